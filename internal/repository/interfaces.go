package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

// Transactor runs fn inside one database transaction. Repositories called with
// the context handed to fn join that transaction; nested calls reuse it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LeaseRepository defines the interface for lease data operations
type LeaseRepository interface {
	// Create inserts the lease row; its status entries are appended separately
	Create(ctx context.Context, lease *domain.Lease) error

	// GetByID retrieves a lease with its current status
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error)

	// LockByID retrieves a lease and locks its row until the transaction ends
	LockByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error)

	// Update rewrites the dates and grace of a lease
	Update(ctx context.Context, lease *domain.Lease) error

	// AppendStatus adds an entry to the status log
	AppendStatus(ctx context.Context, entry *domain.StatusEntry) error

	// History returns the status log oldest first
	History(ctx context.Context, leaseID uuid.UUID) ([]domain.StatusEntry, error)

	// LockParties holds transaction-scoped locks on the flat and the tenant so
	// that concurrent creates for either are serialized
	LockParties(ctx context.Context, flatID, tenantID uuid.UUID) error

	// FindLive returns Draft or Active leases held on the flat or by the tenant
	FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.Lease, error)

	// ListActiveEndedBefore returns Active leases whose nominal end is before t
	ListActiveEndedBefore(ctx context.Context, t time.Time) ([]*domain.Lease, error)
}

// ContractRepository defines the interface for flat contract data operations
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.FlatContract) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error)

	LockByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error)

	// Invalidate clears is_valid and records the terminal reason
	Invalidate(ctx context.Context, id uuid.UUID, reason domain.Status) error

	// FindLive returns valid contracts on the flat or for the tenant
	FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.FlatContract, error)

	// ListValidEndedBefore returns valid contracts whose nominal end is before t
	ListValidEndedBefore(ctx context.Context, t time.Time) ([]*domain.FlatContract, error)
}

// PaymentRepository defines the interface for contract payment data operations
type PaymentRepository interface {
	// CreateBatch inserts a generated schedule
	CreateBatch(ctx context.Context, payments []*domain.ContractPayment) error

	// ListByContract returns live installments ordered by due date
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]*domain.ContractPayment, error)

	// SoftDeleteByContract marks every live installment of the contract deleted
	SoftDeleteByContract(ctx context.Context, contractID uuid.UUID, at time.Time) error
}

// RenewalRepository defines the interface for renewal request data operations
type RenewalRepository interface {
	Create(ctx context.Context, renewal *domain.Renewal) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Renewal, error)

	Approve(ctx context.Context, id uuid.UUID) error

	// ListPendingApproved returns approved, not yet materialized renewals whose
	// predecessor contract nominally ends on or before t
	ListPendingApproved(ctx context.Context, t time.Time) ([]*domain.Renewal, error)

	// MarkMaterialized links the renewal to its new contract. It reports false
	// when the renewal was already linked.
	MarkMaterialized(ctx context.Context, id, contractID uuid.UUID) (bool, error)
}

// MaintenanceRepository defines the interface for maintenance program data operations
type MaintenanceRepository interface {
	GetProgram(ctx context.Context, id uuid.UUID) (*domain.MaintenanceProgram, error)

	// UpdateProgram stores the rule and validity bounds of a program
	UpdateProgram(ctx context.Context, program *domain.MaintenanceProgram) error

	DeleteSlots(ctx context.Context, programID uuid.UUID) error

	CreateSlots(ctx context.Context, slots []*domain.ScheduleSlot) error

	ListSlots(ctx context.Context, programID uuid.UUID) ([]*domain.ScheduleSlot, error)
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)

	// ListPending returns reminders firing strictly after t, earliest first
	ListPending(ctx context.Context, t time.Time) ([]*domain.Reminder, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// AccessRepository toggles resident login access
type AccessRepository interface {
	SetLoginEnabled(ctx context.Context, tenantID uuid.UUID, enabled bool) error
}
