package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/cache"
	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/metrics"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// Func is one batch job.
type Func func(ctx context.Context) (*domain.BatchResult, error)

// Runner executes named batch jobs under a per-job lock.
type Runner struct {
	locker  cache.Locker
	lockTTL time.Duration
	logger  *zap.Logger

	mu   sync.RWMutex
	jobs map[string]Func
}

func NewRunner(locker cache.Locker, lockTTL time.Duration, logger *zap.Logger) *Runner {
	if locker == nil {
		locker = cache.NopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
		jobs:    make(map[string]Func),
	}
}

// Register adds a job under name, replacing any previous one.
func (r *Runner) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = fn
}

// Names lists the registered jobs in order.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job once.
func (r *Runner) Run(ctx context.Context, name string) (*domain.BatchResult, error) {
	r.mu.RLock()
	fn, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, customError.WrapNotFound("job", name)
	}

	release, err := r.locker.Acquire(ctx, name, r.lockTTL)
	if errors.Is(err, cache.ErrLockHeld) {
		metrics.JobRunsCounter.WithLabelValues(name, "skipped").Inc()
		r.logger.Warn("job already running, skipping", zap.String("job", name))
		return nil, customError.WrapJobRunning(name)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			r.logger.Warn("failed to release job lock", zap.String("job", name), zap.Error(err))
		}
	}()

	start := time.Now()
	r.logger.Info("job started", zap.String("job", name))

	result, err := fn(ctx)
	metrics.JobDurationHistogram.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JobRunsCounter.WithLabelValues(name, "failed").Inc()
		r.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return nil, err
	}

	metrics.JobRunsCounter.WithLabelValues(name, "succeeded").Inc()
	r.logger.Info("job finished",
		zap.String("job", name),
		zap.Int("scanned", result.Scanned),
		zap.Int("changed", result.Changed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}
