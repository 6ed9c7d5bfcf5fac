// Package reminder arms one-shot, in-process timers for persisted reminders.
// The reminder row is the only durable state: a process that restarts calls
// Recover to re-arm whatever is still due in the future.
package reminder

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/metrics"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

const JobRecover = "recover-reminders"

var emptyPayload = types.JSONText("{}")

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock.
func WithClock(now lifecycle.NowFunc) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler owns the timer table of this process.
type Scheduler struct {
	repo     repository.ReminderRepository
	owners   OwnerLookup
	notifier Notifier
	logger   *zap.Logger
	now      lifecycle.NowFunc

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool

	// firing tracks notifier calls in flight so Shutdown can wait for them.
	firing sync.WaitGroup
}

func NewScheduler(repo repository.ReminderRepository, owners OwnerLookup, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		owners:   owners,
		notifier: notifier,
		logger:   zap.NewNop(),
		now:      lifecycle.SystemNow,
		timers:   make(map[uuid.UUID]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule checks the owner is eligible for the audience, persists the
// reminder and arms its timer.
func (s *Scheduler) Schedule(ctx context.Context, request *domain.ScheduleReminderRequest) (*domain.Reminder, error) {
	now := s.now()
	if !request.FireAt.After(now) {
		return nil, customError.NewValidationError("fire_at", "must be in the future")
	}
	switch request.Audience {
	case domain.AudienceTenant, domain.AudienceAdmin:
	default:
		return nil, customError.NewValidationError("audience", "must be tenant or admin")
	}

	status, err := s.owners.OwnerStatus(ctx, request.OwnerID)
	if err != nil {
		return nil, err
	}
	if !request.Audience.Allows(status) {
		return nil, customError.WrapIneligibleOwner(request.OwnerID.String(), status.String())
	}

	payload := emptyPayload
	if len(request.Payload) > 0 {
		payload = types.JSONText(request.Payload)
	}

	id := uuid.New()
	reminder := &domain.Reminder{
		ID:        id,
		OwnerID:   request.OwnerID,
		Audience:  request.Audience,
		Channel:   request.Channel,
		FireAt:    request.FireAt.UTC(),
		Payload:   payload,
		JobHandle: "reminder:" + id.String(),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.arm(reminder)
	s.logger.Info("reminder scheduled",
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("job_handle", reminder.JobHandle),
		zap.Time("fire_at", reminder.FireAt),
	)
	return reminder, nil
}

// Get returns a reminder with its derived display status.
func (s *Scheduler) Get(ctx context.Context, id uuid.UUID) (*domain.ReminderResponse, error) {
	reminder, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ReminderResponse{Reminder: reminder, Status: reminder.DisplayStatus(s.now())}, nil
}

// Cancel disarms the timer and deletes the reminder.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	s.disarm(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return customError.WrapDatabaseError(err)
	}
	s.logger.Info("reminder cancelled", zap.String("reminder_id", id.String()))
	return nil
}

// Recover re-arms every stored reminder still due in the future. Reminders
// whose instant passed while no process was running are not fired. Running it
// again arms nothing new.
func (s *Scheduler) Recover(ctx context.Context) (*domain.BatchResult, error) {
	now := s.now()
	result := &domain.BatchResult{Job: JobRecover, StartedAt: now}

	pending, err := s.repo.ListPending(ctx, now)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	for _, r := range pending {
		result.Scanned++
		if s.arm(r) {
			result.Changed++
		} else {
			result.Skipped++
		}
	}

	result.FinishedAt = s.now()
	s.logger.Info("reminder recovery finished",
		zap.Int("pending", result.Scanned),
		zap.Int("armed", result.Changed),
	)
	return result, nil
}

// Armed returns the number of timers currently armed.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Shutdown stops every timer and waits for in-flight notifications. The
// scheduler arms nothing afterwards.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	metrics.RemindersScheduledGauge.Set(0)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.firing.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// arm starts a timer for r unless one is already armed. It reports whether a
// timer was started.
func (s *Scheduler) arm(r *domain.Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.timers[r.ID]; ok {
		return false
	}

	id := r.ID
	delay := r.FireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
	metrics.RemindersScheduledGauge.Set(float64(len(s.timers)))
	return true
}

func (s *Scheduler) disarm(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
		metrics.RemindersScheduledGauge.Set(float64(len(s.timers)))
	}
}

// fire claims the timer entry before notifying; only the claimant notifies.
func (s *Scheduler) fire(id uuid.UUID) {
	s.mu.Lock()
	if _, ok := s.timers[id]; !ok || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	metrics.RemindersScheduledGauge.Set(float64(len(s.timers)))
	s.firing.Add(1)
	s.mu.Unlock()
	defer s.firing.Done()

	ctx := context.Background()
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("failed to load due reminder", zap.String("reminder_id", id.String()), zap.Error(err))
		}
		return
	}

	if err := s.notifier.Notify(ctx, reminder); err != nil {
		metrics.RemindersFiredCounter.WithLabelValues(string(reminder.Channel), "failed").Inc()
		s.logger.Error("reminder notification failed",
			zap.String("reminder_id", id.String()),
			zap.String("channel", string(reminder.Channel)),
			zap.Error(err),
		)
		return
	}
	metrics.RemindersFiredCounter.WithLabelValues(string(reminder.Channel), "sent").Inc()
}

func (s *Scheduler) load(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("reminder", id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return reminder, nil
}
