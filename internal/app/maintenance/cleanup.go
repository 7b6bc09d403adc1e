package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/pkg/logger"
)

const (
	defaultSweepSpec  = "@hourly"
	defaultOrphanSpec = "@daily"

	JobSnapshotSweep = "snapshot_sweep"
	JobOrphanPrune   = "orphan_prune"
)

// SnapshotSweeper evicts stale asset snapshots.
type SnapshotSweeper interface {
	Sweep(ctx context.Context) ([]string, error)
}

// OrphanPruner removes cached resources whose snapshot no longer exists.
type OrphanPruner interface {
	PruneOrphans(ctx context.Context) (int64, error)
}

// RunRecorder receives the outcome of every job execution.
type RunRecorder interface {
	Register(job string)
	RecordRun(job string, err error, duration time.Duration)
}

// Task is an additional named maintenance job.
type Task struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Cleaner coordinates background maintenance of the asset cache: re-running stale
// snapshot eviction after an interrupted activation and pruning orphaned resources.
type Cleaner struct {
	sweeper SnapshotSweeper
	pruner  OrphanPruner
	tasks   []Task
	cron    *cron.Cron
	log      *zap.Logger
	recorder RunRecorder
	enabled  bool

	sweepSchedule  string
	orphanSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSweepSchedule overrides the cron specification for stale snapshot eviction.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// WithOrphanSchedule overrides the cron specification for orphan pruning.
func WithOrphanSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.orphanSchedule = spec
		}
	}
}

// WithRecorder reports job outcomes to the given recorder.
func WithRecorder(recorder RunRecorder) Option {
	return func(cleaner *Cleaner) {
		cleaner.recorder = recorder
	}
}

// WithTask registers an extra job. Tasks without a schedule or function are ignored.
func WithTask(task Task) Option {
	return func(cleaner *Cleaner) {
		if task.Schedule != "" && task.Run != nil {
			cleaner.tasks = append(cleaner.tasks, task)
		}
	}
}

// NewCleaner constructs a Cleaner. Any nil dependency results in the corresponding job
// being skipped.
func NewCleaner(sweeper SnapshotSweeper, pruner OrphanPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sweeper:        sweeper,
		pruner:         pruner,
		sweepSchedule:  defaultSweepSpec,
		orphanSchedule: defaultOrphanSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.sweeper != nil || cleaner.pruner != nil || len(cleaner.tasks) > 0

	return cleaner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.sweeper != nil {
		c.register(JobSnapshotSweep)
		if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
			if err := c.sweep(context.Background()); err != nil {
				c.log.Warn("snapshot sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.pruner != nil {
		c.register(JobOrphanPrune)
		if _, err := c.cron.AddFunc(c.orphanSchedule, func() {
			if err := c.prune(context.Background()); err != nil {
				c.log.Warn("orphan pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	for _, task := range c.tasks {
		c.register(task.Name)
		if _, err := c.cron.AddFunc(task.Schedule, func() {
			if err := c.track(task.Name, func() error { return task.Run(context.Background()) }); err != nil {
				c.log.Warn("maintenance task failed", zap.String("task", task.Name), zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used in tests, by the CLI, and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sweeper != nil {
		if err := c.sweep(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.pruner != nil {
		if err := c.prune(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	for _, task := range c.tasks {
		if err := c.track(task.Name, func() error { return task.Run(ctx) }); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) sweep(ctx context.Context) error {
	return c.track(JobSnapshotSweep, func() error {
		purged, err := c.sweeper.Sweep(ctx)
		if len(purged) > 0 {
			c.log.Info("stale snapshots evicted", zap.Strings("snapshots", purged))
		}
		return err
	})
}

func (c *Cleaner) prune(ctx context.Context) error {
	return c.track(JobOrphanPrune, func() error {
		removed, err := c.pruner.PruneOrphans(ctx)
		if removed > 0 {
			c.log.Info("orphaned cache entries pruned", zap.Int64("count", removed))
		}
		return err
	})
}

func (c *Cleaner) register(job string) {
	if c.recorder != nil {
		c.recorder.Register(job)
	}
}

func (c *Cleaner) track(job string, fn func() error) error {
	start := time.Now()
	err := fn()
	if c.recorder != nil {
		c.recorder.RecordRun(job, err, time.Since(start))
	}
	return err
}
