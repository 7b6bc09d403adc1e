package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/charlesng35/dabifac/internal/cache"
	"github.com/charlesng35/dabifac/pkg/logger"
	"github.com/charlesng35/dabifac/pkg/metrics"
)

// Notifier is told when a version claims control of connected clients.
type Notifier interface {
	VersionActivated(tag string, purged []string)
}

type nopNotifier struct{}

func (nopNotifier) VersionActivated(string, []string) {}

// Option customises a Manager.
type Option func(*Manager)

// WithNotifier sets the activation notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source used for install timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Status is a point-in-time view of the manager.
type Status struct {
	Tag           string               `json:"tag"`
	State         State                `json:"state"`
	Controlling   string               `json:"controlling,omitempty"`
	ResourceCount int                  `json:"resource_count"`
	LastError     string               `json:"last_error,omitempty"`
	Snapshots     []cache.SnapshotInfo `json:"snapshots"`
}

// Manager installs versioned asset snapshots, answers intercepted requests from the
// controlling snapshot and evicts snapshots left over from previous versions.
type Manager struct {
	cfg       Config
	store     cache.Store
	fetcher   Fetcher
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
	resources []string
	digest    string

	// lifecycle serialises Install, Activate and Start.
	lifecycle sync.Mutex
	flights   singleflight.Group

	mu          sync.RWMutex
	state       State
	controlling string
	lastErr     error
}

// NewManager validates cfg, resolves the manifest and returns an idle manager.
func NewManager(cfg Config, store cache.Store, fetcher Fetcher, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("offline: snapshot store is required")
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher(0)
	}

	resources, err := ResolveManifest(cfg.WorkerURL, cfg.Manifest)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		notifier:  nopNotifier{},
		log:       logger.WithModule("offline"),
		now:       time.Now,
		resources: resources,
		digest:    ManifestDigest(resources),
		state:     StateNew,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Tag returns the snapshot name of the running version.
func (m *Manager) Tag() string {
	return m.cfg.Tag()
}

// Resources returns the resolved manifest URLs.
func (m *Manager) Resources() []string {
	return append([]string(nil), m.resources...)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Controlling returns the snapshot answering requests, or "" before the first activation.
func (m *Manager) Controlling() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlling
}

// Status reports the lifecycle state together with the stored snapshots.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.RLock()
	status := Status{
		Tag:           m.cfg.Tag(),
		State:         m.state,
		Controlling:   m.controlling,
		ResourceCount: len(m.resources),
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	snapshots, err := m.store.Snapshots(ctx)
	if err != nil {
		return status, ErrStorageUnavailable.WithInternal(err)
	}
	status.Snapshots = snapshots
	return status, nil
}

// Start resumes a previously installed snapshot for this version when its manifest is
// unchanged, otherwise installs it. Either way the version is then activated.
func (m *Manager) Start(ctx context.Context) error {
	tag := m.cfg.Tag()
	info, ok, err := m.store.Lookup(ctx, tag)
	if err != nil {
		return ErrStorageUnavailable.WithInternal(err)
	}

	if ok && info.ManifestDigest == m.digest && info.ResourceCount == len(m.resources) {
		m.log.Info("reusing installed snapshot", zap.String("tag", tag), zap.Int("resources", info.ResourceCount))
		m.setState(StateWaiting, nil)
		return m.Activate(ctx)
	}

	if err := m.Install(ctx); err != nil {
		return err
	}
	return m.Activate(ctx)
}

// Install fetches every manifest resource and persists them as one snapshot. Nothing is
// stored unless every fetch succeeded; on failure the manager becomes redundant.
func (m *Manager) Install(ctx context.Context) (err error) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if state := m.State(); !state.canInstall() {
		return fmt.Errorf("offline: cannot install while %s", state)
	}

	tag := m.cfg.Tag()
	start := time.Now()
	m.setState(StateInstalling, nil)
	m.log.Info("installing snapshot", zap.String("tag", tag), zap.Int("resources", len(m.resources)))

	defer func() {
		metrics.InstallDuration.WithLabelValues(metrics.Result(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			m.setState(StateRedundant, err)
			m.log.Warn("snapshot install failed", zap.String("tag", tag), zap.Error(err))
			return
		}
		next := StateWaiting
		if m.Controlling() == tag {
			next = StateActivated
		}
		m.setState(next, nil)
		m.log.Info("snapshot installed", zap.String("tag", tag), zap.Duration("elapsed", time.Since(start)))
	}()

	entries, err := m.fetchAll(ctx)
	if err != nil {
		return err
	}

	info := cache.SnapshotInfo{
		Name:           tag,
		Version:        m.cfg.Version,
		ManifestDigest: m.digest,
		InstalledAt:    m.now().UTC(),
	}
	if err := m.store.PutSnapshot(ctx, info, entries); err != nil {
		return ErrStorageUnavailable.WithInternal(err)
	}
	return nil
}

// Activate evicts every snapshot other than the running version and then claims
// clients so the running version serves requests immediately.
func (m *Manager) Activate(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	tag := m.cfg.Tag()
	if _, ok, err := m.store.Lookup(ctx, tag); err != nil {
		return ErrStorageUnavailable.WithInternal(err)
	} else if !ok {
		return ErrNotInstalled
	}

	previous := m.State()
	m.setState(StateActivating, nil)

	purged, err := m.purgeStale(ctx, tag, nil)
	if err != nil {
		m.setState(previous, err)
		return err
	}

	m.mu.Lock()
	m.controlling = tag
	m.state = StateActivated
	m.lastErr = nil
	m.mu.Unlock()

	m.log.Info("snapshot activated", zap.String("tag", tag), zap.Strings("purged", purged))
	m.notifier.VersionActivated(tag, purged)
	return nil
}

// Sweep repeats stale-snapshot eviction for an activated manager. It is a no-op until
// the running version controls requests, so the previous version keeps serving.
// Snapshots installed after the controlling one are kept: they belong to a newer
// version waiting to take over and only its own activation may evict this one.
func (m *Manager) Sweep(ctx context.Context) ([]string, error) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	tag := m.cfg.Tag()
	if m.Controlling() != tag {
		return nil, nil
	}

	current, ok, err := m.store.Lookup(ctx, tag)
	if err != nil {
		return nil, ErrStorageUnavailable.WithInternal(err)
	}
	if !ok {
		m.log.Warn("controlling snapshot missing from store, skipping sweep", zap.String("tag", tag))
		return nil, nil
	}

	return m.purgeStale(ctx, tag, func(info cache.SnapshotInfo) bool {
		if info.InstalledAt.After(current.InstalledAt) {
			m.log.Info("keeping newer snapshot", zap.String("snapshot", info.Name), zap.String("controlling", tag))
			return false
		}
		return true
	})
}

// purgeStale deletes every snapshot other than keep. A non-nil evict narrows the
// selection further.
func (m *Manager) purgeStale(ctx context.Context, keep string, evict func(cache.SnapshotInfo) bool) ([]string, error) {
	snapshots, err := m.store.Snapshots(ctx)
	if err != nil {
		return nil, ErrStorageUnavailable.WithInternal(err)
	}

	var (
		purged []string
		errs   error
	)
	for _, snapshot := range snapshots {
		if snapshot.Name == keep || (evict != nil && !evict(snapshot)) {
			continue
		}
		existed, err := m.store.DeleteSnapshot(ctx, snapshot.Name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", snapshot.Name, err))
			continue
		}
		if existed {
			purged = append(purged, snapshot.Name)
		}
	}
	metrics.SnapshotsPurged.Add(float64(len(purged)))

	if errs != nil {
		return purged, ErrStorageUnavailable.WithInternal(errs)
	}
	return purged, nil
}

// HandleRequest answers an intercepted request. GET requests are served from the
// controlling snapshot when present; misses are fetched live and written through.
func (m *Manager) HandleRequest(ctx context.Context, req Request) (*Response, error) {
	if !strings.EqualFold(req.Method, http.MethodGet) && strings.TrimSpace(req.Method) != "" {
		metrics.CacheLookups.WithLabelValues("bypass").Inc()
		return m.passThrough(ctx, req)
	}

	snapshot := m.Controlling()
	if snapshot == "" {
		metrics.CacheLookups.WithLabelValues("uncontrolled").Inc()
		return m.passThrough(ctx, req)
	}

	key := RequestKey(req)
	entry, ok, err := m.store.Match(ctx, snapshot, key)
	if err != nil {
		m.log.Warn("snapshot lookup failed, using network", zap.String("key", key), zap.Error(err))
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return &Response{Status: entry.Status, Header: entry.Header.Clone(), Body: entry.Body}, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	if !m.cfg.SingleFlight {
		return m.fetchThrough(ctx, snapshot, key, req)
	}

	// The shared fetch outlives any single caller so one cancellation cannot fail the others.
	ch := m.flights.DoChan(snapshot+"\x00"+key, func() (any, error) {
		return m.fetchThrough(context.WithoutCancel(ctx), snapshot, key, req)
	})
	select {
	case <-ctx.Done():
		return nil, ErrFetchFailed.WithInternal(ctx.Err())
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*Response).Clone(), nil
	}
}

func (m *Manager) passThrough(ctx context.Context, req Request) (*Response, error) {
	resp, err := m.fetcher.Fetch(ctx, req)
	recordFetch("request", resp, err)
	if err != nil {
		return nil, ErrFetchFailed.WithInternal(err)
	}
	if resp == nil {
		return nil, ErrFetchFailed.WithInternal(fmt.Errorf("no response for %s", req.URL))
	}
	return resp, nil
}

func (m *Manager) fetchThrough(ctx context.Context, snapshot, key string, req Request) (*Response, error) {
	resp, err := m.passThrough(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, nil
	}

	written, err := m.store.Put(ctx, snapshot, cache.Entry{
		Key:    key,
		Status: resp.Status,
		Header: resp.Header.Clone(),
		Body:   resp.Body,
	})
	switch {
	case errors.Is(err, cache.ErrSnapshotNotFound):
		m.log.Debug("snapshot evicted before write-through", zap.String("snapshot", snapshot), zap.String("key", key))
	case err != nil:
		m.log.Warn("write-through failed", zap.String("key", key), zap.Error(err))
	case written:
		m.log.Debug("write-through stored", zap.String("key", key))
	}
	return resp, nil
}

func (m *Manager) fetchAll(ctx context.Context) ([]cache.Entry, error) {
	entries := make([]cache.Entry, len(m.resources))

	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.FetchConcurrency)
	for i, target := range m.resources {
		g.Go(func() error {
			resp, err := m.fetchForInstall(gctx, target)
			if err != nil {
				// Siblings cancelled by the first failure add no information.
				if ctx.Err() != nil || !errors.Is(err, context.Canceled) {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", target, err))
					mu.Unlock()
				}
				return err
			}
			entries[i] = cache.Entry{
				Key:    RequestKey(Request{Method: http.MethodGet, URL: target}),
				Status: resp.Status,
				Header: resp.Header,
				Body:   resp.Body,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errs == nil {
			errs = err
		}
		return nil, ErrFetchFailed.WithInternal(errs)
	}
	return entries, nil
}

func (m *Manager) fetchForInstall(ctx context.Context, target string) (*Response, error) {
	op := func() (*Response, error) {
		resp, err := m.fetcher.Fetch(ctx, Request{Method: http.MethodGet, URL: target})
		recordFetch("install", resp, err)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, backoff.Permanent(errors.New("no response"))
		}
		if resp.OK() {
			return resp, nil
		}
		statusErr := fmt.Errorf("unexpected status %d", resp.Status)
		if resp.Status >= http.StatusInternalServerError || resp.Status == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	if m.cfg.Retry.MaxAttempts <= 1 {
		resp, err := op()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Unwrap()
		}
		return resp, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.cfg.Retry.InitialInterval
	policy.MaxInterval = m.cfg.Retry.MaxInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(m.cfg.Retry.MaxAttempts)),
	)
}

func (m *Manager) setState(state State, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.lastErr = err
}

func recordFetch(phase string, resp *Response, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case !resp.OK():
		outcome = "status"
	}
	metrics.UpstreamFetches.WithLabelValues(phase, outcome).Inc()
}
