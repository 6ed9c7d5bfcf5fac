package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lease represents a lease entity. Its stage is the last entry of StatusHistory.
type Lease struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	FlatID     uuid.UUID       `json:"flat_id" db:"flat_id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	StartDate  time.Time       `json:"start_date" db:"start_date"`
	EndDate    time.Time       `json:"end_date" db:"end_date"`
	Grace      int             `json:"grace" db:"grace"`
	RentAmount decimal.Decimal `json:"rent_amount" db:"rent_amount"`
	// Status is the latest history entry as read by the repository.
	Status        Status        `json:"status" db:"status"`
	StatusHistory []StatusEntry `json:"status_history,omitempty" db:"-"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// CurrentStatus returns the latest stage, preferring a loaded history over the
// denormalized column.
func (l *Lease) CurrentStatus() Status {
	if n := len(l.StatusHistory); n > 0 {
		return l.StatusHistory[n-1].Status
	}
	if l.Status == "" {
		return StatusDraft
	}
	return l.Status
}

func (l *Lease) NominalEnd() time.Time { return l.EndDate }

func (l *Lease) GraceMonths() int { return l.Grace }

// DTOs for requests and responses

type CreateLeaseRequest struct {
	FlatID     uuid.UUID       `json:"flat_id" validate:"required"`
	TenantID   uuid.UUID       `json:"tenant_id" validate:"required"`
	StartDate  time.Time       `json:"start_date" validate:"required"`
	EndDate    time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	Grace      int             `json:"grace" validate:"gte=0"`
	RentAmount decimal.Decimal `json:"rent_amount"`
}

type EditLeaseRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Grace     int       `json:"grace" validate:"gte=0"`
}

type TransitionRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

type ExpiryResponse struct {
	LeaseID          uuid.UUID `json:"lease_id"`
	Status           Status    `json:"status"`
	EffectiveEndDate time.Time `json:"effective_end_date"`
	IsExpired        bool      `json:"is_expired"`
}
