package reminder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/repository/mocks"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// memoryStore stands in for the reminders table and survives scheduler restarts.
type memoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Reminder
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[uuid.UUID]domain.Reminder)}
}

func (m *memoryStore) Create(_ context.Context, r *domain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = *r
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *memoryStore) ListPending(_ context.Context, t time.Time) ([]*domain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Reminder
	for _, r := range m.rows {
		if r.FireAt.After(t) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type fixedOwners map[uuid.UUID]domain.Status

func (f fixedOwners) OwnerStatus(_ context.Context, id uuid.UUID) (domain.Status, error) {
	s, ok := f[id]
	if !ok {
		return "", customError.WrapNotFound("owner", id.String())
	}
	return s, nil
}

type firing struct {
	id uuid.UUID
	at time.Time
}

type recordingNotifier struct {
	mu    sync.Mutex
	fired []firing
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, r *domain.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fired = append(n.fired, firing{id: r.ID, at: time.Now()})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fired)
}

func (n *recordingNotifier) first() firing {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fired[0]
}

func activeOwner() (uuid.UUID, fixedOwners) {
	id := uuid.New()
	return id, fixedOwners{id: domain.StatusActive}
}

func TestSchedule_FiresOnceAtFireAt(t *testing.T) {
	owner, owners := activeOwner()
	store := newMemoryStore()
	notifier := &recordingNotifier{}
	s := NewScheduler(store, owners, notifier)
	defer s.Shutdown(context.Background())

	fireAt := time.Now().Add(100 * time.Millisecond)
	r, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID:  owner,
		Audience: domain.AudienceTenant,
		Channel:  domain.ChannelEmail,
		FireAt:   fireAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "reminder:"+r.ID.String(), r.JobHandle)
	assert.JSONEq(t, `{}`, string(r.Payload))
	assert.Equal(t, 1, s.Armed())

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, notifier.first().at.Before(fireAt))
	assert.Never(t, func() bool { return notifier.count() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, 0, s.Armed())
}

func TestSchedule_SurvivesRestart(t *testing.T) {
	owner, owners := activeOwner()
	store := newMemoryStore()

	before := &recordingNotifier{}
	first := NewScheduler(store, owners, before)

	fireAt := time.Now().Add(400 * time.Millisecond)
	r, err := first.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID:  owner,
		Audience: domain.AudienceTenant,
		Channel:  domain.ChannelSMS,
		FireAt:   fireAt,
		Payload:  json.RawMessage(`{"template":"lease_expiring"}`),
	})
	require.NoError(t, err)

	// process goes down halfway to the fire instant
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, first.Shutdown(context.Background()))

	after := &recordingNotifier{}
	second := NewScheduler(store, owners, after)
	defer second.Shutdown(context.Background())

	result, err := second.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Changed)

	// recovery is idempotent
	result, err = second.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Changed)
	assert.Equal(t, 1, result.Skipped)

	assert.Eventually(t, func() bool { return after.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, r.ID, after.first().id)
	assert.False(t, after.first().at.Before(fireAt))
	assert.Never(t, func() bool { return after.count() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, 0, before.count())
}

func TestRecover_SkipsMissedReminders(t *testing.T) {
	store := newMemoryStore()
	missed := domain.Reminder{ID: uuid.New(), OwnerID: uuid.New(), FireAt: time.Now().Add(-time.Minute), Payload: emptyPayload}
	require.NoError(t, store.Create(context.Background(), &missed))

	notifier := &recordingNotifier{}
	s := NewScheduler(store, fixedOwners{}, notifier)
	defer s.Shutdown(context.Background())

	result, err := s.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Scanned)
	assert.Equal(t, 0, s.Armed())
	assert.Never(t, func() bool { return notifier.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSchedule_Eligibility(t *testing.T) {
	owner := uuid.New()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   domain.Status
		audience domain.ReminderAudience
		wantErr  bool
	}{
		{name: "tenant active", status: domain.StatusActive, audience: domain.AudienceTenant},
		{name: "tenant draft", status: domain.StatusDraft, audience: domain.AudienceTenant, wantErr: true},
		{name: "admin draft", status: domain.StatusDraft, audience: domain.AudienceAdmin},
		{name: "admin active", status: domain.StatusActive, audience: domain.AudienceAdmin},
		{name: "admin expired", status: domain.StatusExpired, audience: domain.AudienceAdmin, wantErr: true},
		{name: "tenant terminated", status: domain.StatusTerminated, audience: domain.AudienceTenant, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			s := NewScheduler(store, fixedOwners{owner: tt.status}, &recordingNotifier{}, WithClock(func() time.Time { return now }))
			defer s.Shutdown(context.Background())

			_, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
				OwnerID:  owner,
				Audience: tt.audience,
				Channel:  domain.ChannelPush,
				FireAt:   now.Add(time.Hour),
			})

			if tt.wantErr {
				var be *customError.BusinessError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, customError.ErrCodeIneligibleOwner, be.Code)
				assert.Empty(t, store.rows)
				return
			}
			require.NoError(t, err)
			assert.Len(t, store.rows, 1)
		})
	}
}

func TestSchedule_Rejects(t *testing.T) {
	owner, owners := activeOwner()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewScheduler(newMemoryStore(), owners, &recordingNotifier{}, WithClock(func() time.Time { return now }))
	defer s.Shutdown(context.Background())

	_, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: owner, Audience: domain.AudienceTenant, Channel: domain.ChannelEmail, FireAt: now,
	})
	assert.True(t, customError.IsValidation(err))

	_, err = s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: owner, Audience: "everyone", Channel: domain.ChannelEmail, FireAt: now.Add(time.Hour),
	})
	assert.True(t, customError.IsValidation(err))

	_, err = s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: uuid.New(), Audience: domain.AudienceAdmin, Channel: domain.ChannelEmail, FireAt: now.Add(time.Hour),
	})
	assert.True(t, customError.IsNotFound(err))
}

func TestCancel_DisarmsTimer(t *testing.T) {
	owner, owners := activeOwner()
	store := newMemoryStore()
	notifier := &recordingNotifier{}
	s := NewScheduler(store, owners, notifier)
	defer s.Shutdown(context.Background())

	r, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: owner, Audience: domain.AudienceTenant, Channel: domain.ChannelEmail,
		FireAt: time.Now().Add(100 * time.Millisecond),
	})
	require.NoError(t, err)

	require.NoError(t, s.Cancel(context.Background(), r.ID))
	assert.Equal(t, 0, s.Armed())
	assert.Never(t, func() bool { return notifier.count() > 0 }, 300*time.Millisecond, 20*time.Millisecond)

	err = s.Cancel(context.Background(), r.ID)
	assert.True(t, customError.IsNotFound(err))
}

func TestFire_NotifierFailureIsContained(t *testing.T) {
	owner, owners := activeOwner()
	notifier := &recordingNotifier{err: errors.New("smtp unavailable")}
	s := NewScheduler(newMemoryStore(), owners, notifier)

	_, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: owner, Audience: domain.AudienceTenant, Channel: domain.ChannelEmail,
		FireAt: time.Now().Add(20 * time.Millisecond),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestShutdown_StopsArming(t *testing.T) {
	owner, owners := activeOwner()
	store := newMemoryStore()
	s := NewScheduler(store, owners, &recordingNotifier{})
	require.NoError(t, s.Shutdown(context.Background()))

	_, err := s.Schedule(context.Background(), &domain.ScheduleReminderRequest{
		OwnerID: owner, Audience: domain.AudienceTenant, Channel: domain.ChannelEmail,
		FireAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Armed())
	assert.Len(t, store.rows, 1)
}

func TestGet_DisplayStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	past := domain.Reminder{ID: uuid.New(), FireAt: now.Add(-time.Minute)}
	future := domain.Reminder{ID: uuid.New(), FireAt: now.Add(time.Minute)}
	require.NoError(t, store.Create(context.Background(), &past))
	require.NoError(t, store.Create(context.Background(), &future))

	s := NewScheduler(store, fixedOwners{}, &recordingNotifier{}, WithClock(func() time.Time { return now }))

	resp, err := s.Get(context.Background(), past.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderStatusSent, resp.Status)

	resp, err = s.Get(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderStatusPending, resp.Status)

	_, err = s.Get(context.Background(), uuid.New())
	assert.True(t, customError.IsNotFound(err))
}

func TestLeaseOwners(t *testing.T) {
	leaseRepo := &mocks.MockLeaseRepository{}
	owners := LeaseOwners{LeaseRepo: leaseRepo}
	active := uuid.New()
	missing := uuid.New()
	broken := uuid.New()

	leaseRepo.On("GetByID", mock.Anything, active).Return(&domain.Lease{ID: active, Status: domain.StatusActive}, nil)
	leaseRepo.On("GetByID", mock.Anything, missing).Return(nil, sql.ErrNoRows)
	leaseRepo.On("GetByID", mock.Anything, broken).Return(nil, errors.New("connection reset"))

	status, err := owners.OwnerStatus(context.Background(), active)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, status)

	_, err = owners.OwnerStatus(context.Background(), missing)
	assert.True(t, customError.IsNotFound(err))

	_, err = owners.OwnerStatus(context.Background(), broken)
	assert.ErrorIs(t, err, customError.ErrDatabase)

	leaseRepo.AssertExpectations(t)
}
