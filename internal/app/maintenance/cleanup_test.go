package maintenance

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/cache"
	testutil "github.com/charlesng35/dabifac/internal/database/testutil"
	"github.com/charlesng35/dabifac/internal/monitoring"
	"github.com/charlesng35/dabifac/internal/offline"
)

func TestCleanerRunOnceEvictsStaleSnapshots(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	fetcher := offline.FetcherFunc(func(_ context.Context, req offline.Request) (*offline.Response, error) {
		return &offline.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte(req.URL)}, nil
	})
	mgr, err := offline.NewManager(offline.Config{
		Name:      "dabimas-factor",
		Version:   "v2",
		WorkerURL: "https://example.test/app/sw.js",
		Manifest:  []string{"index.html"},
	}, store, fetcher)
	require.NoError(t, err)
	require.NoError(t, mgr.Start(ctx))

	// A snapshot written by an interrupted activation of another instance.
	require.NoError(t, store.PutSnapshot(ctx, cache.SnapshotInfo{
		Name:        "dabimas-factor@v1",
		InstalledAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, []cache.Entry{
		{Key: "GET https://example.test/app/index.html", Status: http.StatusOK, Body: []byte("old")},
	}))
	require.NoError(t, db.Exec("INSERT INTO asset_cache_entries (id, snapshot_name, request_key, status, header, body) VALUES (?, ?, ?, ?, ?, ?)",
		"orphan-1", "gone@v0", "GET https://example.test/x", 200, "{}", []byte("x")).Error)

	c := NewCleaner(mgr, store, WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))))
	require.NoError(t, c.RunOnce(ctx))

	snapshots, err := store.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, "dabimas-factor@v2", snapshots[0].Name)

	var orphans int64
	require.NoError(t, db.Table("asset_cache_entries").Where("snapshot_name = ?", "gone@v0").Count(&orphans).Error)
	require.Zero(t, orphans)
}

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context) ([]string, error) {
	return nil, errors.New("sweep failed")
}

type failingPruner struct{}

func (failingPruner) PruneOrphans(context.Context) (int64, error) {
	return 0, errors.New("prune failed")
}

func TestCleanerRunOnceAggregatesErrors(t *testing.T) {
	c := NewCleaner(failingSweeper{}, failingPruner{})

	err := c.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sweep failed")
	require.Contains(t, err.Error(), "prune failed")
}

func TestCleanerStartWithoutJobs(t *testing.T) {
	c := NewCleaner(nil, nil)
	require.NoError(t, c.Start())
	require.NotNil(t, c.Stop())
}

func TestCleanerStartRejectsInvalidSchedule(t *testing.T) {
	c := NewCleaner(failingSweeper{}, nil, WithSweepSchedule("not a schedule"))
	require.Error(t, c.Start())
}

func TestCleanerRunsExtraTasks(t *testing.T) {
	runs := 0
	c := NewCleaner(nil, nil, WithTask(Task{
		Name:     "count",
		Schedule: "@every 1h",
		Run: func(context.Context) error {
			runs++
			return nil
		},
	}), WithTask(Task{Name: "ignored"}))

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, 1, runs)

	require.NoError(t, c.Start())
	<-c.Stop().Done()
}

func TestCleanerRecordsJobRuns(t *testing.T) {
	tracker := monitoring.NewJobTracker()
	c := NewCleaner(failingSweeper{}, nil, WithRecorder(tracker), WithTask(Task{
		Name:     "rate_prune",
		Schedule: "@every 1m",
		Run:      func(context.Context) error { return nil },
	}))

	require.Error(t, c.RunOnce(context.Background()))

	jobs := tracker.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "rate_prune", jobs[0].Job)
	require.Zero(t, jobs[0].ConsecutiveFailures)
	require.Equal(t, JobSnapshotSweep, jobs[1].Job)
	require.Equal(t, uint64(1), jobs[1].ConsecutiveFailures)
	require.Equal(t, "sweep failed", jobs[1].LastError)
}
