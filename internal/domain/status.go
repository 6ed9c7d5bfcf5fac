package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is a lifecycle stage shared by leases and flat contracts.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusCancelled  Status = "cancelled"
	StatusTerminated Status = "terminated"
	StatusExpired    Status = "expired"
	// StatusRenewed only applies to contracts superseded by a materialized renewal.
	StatusRenewed Status = "renewed"
)

// IsLive reports whether the stage is non-terminal.
func (s Status) IsLive() bool {
	return s == StatusDraft || s == StatusActive
}

// IsTerminal reports whether no further status change is allowed.
func (s Status) IsTerminal() bool {
	return !s.IsLive()
}

func (s Status) String() string {
	return string(s)
}

// StatusEntry is one row of a lease's append-only status log
type StatusEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LeaseID   uuid.UUID `json:"lease_id" db:"lease_id"`
	Status    Status    `json:"status" db:"status"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
