package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

// MockTransactor runs fn inline. Set Fail to make every transaction error
// before fn runs.
type MockTransactor struct {
	Calls int
	Fail  error
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Fail != nil {
		return m.Fail
	}
	return fn(ctx)
}

type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) Create(ctx context.Context, lease *domain.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func (m *MockLeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}

func (m *MockLeaseRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}

func (m *MockLeaseRepository) Update(ctx context.Context, lease *domain.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func (m *MockLeaseRepository) AppendStatus(ctx context.Context, entry *domain.StatusEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLeaseRepository) History(ctx context.Context, leaseID uuid.UUID) ([]domain.StatusEntry, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusEntry), args.Error(1)
}

func (m *MockLeaseRepository) LockParties(ctx context.Context, flatID, tenantID uuid.UUID) error {
	args := m.Called(ctx, flatID, tenantID)
	return args.Error(0)
}

func (m *MockLeaseRepository) FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.Lease, error) {
	args := m.Called(ctx, flatID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lease), args.Error(1)
}

func (m *MockLeaseRepository) ListActiveEndedBefore(ctx context.Context, t time.Time) ([]*domain.Lease, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lease), args.Error(1)
}

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Create(ctx context.Context, contract *domain.FlatContract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlatContract), args.Error(1)
}

func (m *MockContractRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlatContract), args.Error(1)
}

func (m *MockContractRepository) Invalidate(ctx context.Context, id uuid.UUID, reason domain.Status) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockContractRepository) FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.FlatContract, error) {
	args := m.Called(ctx, flatID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FlatContract), args.Error(1)
}

func (m *MockContractRepository) ListValidEndedBefore(ctx context.Context, t time.Time) ([]*domain.FlatContract, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FlatContract), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreateBatch(ctx context.Context, payments []*domain.ContractPayment) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*domain.ContractPayment, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContractPayment), args.Error(1)
}

func (m *MockPaymentRepository) SoftDeleteByContract(ctx context.Context, contractID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, contractID, at)
	return args.Error(0)
}

type MockRenewalRepository struct {
	mock.Mock
}

func (m *MockRenewalRepository) Create(ctx context.Context, renewal *domain.Renewal) error {
	args := m.Called(ctx, renewal)
	return args.Error(0)
}

func (m *MockRenewalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Renewal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) Approve(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRenewalRepository) ListPendingApproved(ctx context.Context, t time.Time) ([]*domain.Renewal, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) MarkMaterialized(ctx context.Context, id, contractID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, contractID)
	return args.Bool(0), args.Error(1)
}

type MockMaintenanceRepository struct {
	mock.Mock
}

func (m *MockMaintenanceRepository) GetProgram(ctx context.Context, id uuid.UUID) (*domain.MaintenanceProgram, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceProgram), args.Error(1)
}

func (m *MockMaintenanceRepository) UpdateProgram(ctx context.Context, program *domain.MaintenanceProgram) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockMaintenanceRepository) DeleteSlots(ctx context.Context, programID uuid.UUID) error {
	args := m.Called(ctx, programID)
	return args.Error(0)
}

func (m *MockMaintenanceRepository) CreateSlots(ctx context.Context, slots []*domain.ScheduleSlot) error {
	args := m.Called(ctx, slots)
	return args.Error(0)
}

func (m *MockMaintenanceRepository) ListSlots(ctx context.Context, programID uuid.UUID) ([]*domain.ScheduleSlot, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleSlot), args.Error(1)
}

type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) SetLoginEnabled(ctx context.Context, tenantID uuid.UUID, enabled bool) error {
	args := m.Called(ctx, tenantID, enabled)
	return args.Error(0)
}

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListPending(ctx context.Context, t time.Time) ([]*domain.Reminder, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
