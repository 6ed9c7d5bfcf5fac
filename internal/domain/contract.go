package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFrequency is the installment period of a contract
type PaymentFrequency string

const (
	FrequencyMonthly    PaymentFrequency = "monthly"
	FrequencyQuarterly  PaymentFrequency = "quarterly"
	FrequencyHalfYearly PaymentFrequency = "half_yearly"
	FrequencyYearly     PaymentFrequency = "yearly"
)

// StepMonths maps the frequency to its period length in months.
func (f PaymentFrequency) StepMonths() (int, error) {
	switch f {
	case FrequencyMonthly:
		return 1, nil
	case FrequencyQuarterly:
		return 3, nil
	case FrequencyHalfYearly:
		return 6, nil
	case FrequencyYearly:
		return 12, nil
	}
	return 0, fmt.Errorf("unknown payment frequency %q", f)
}

// FlatContract is the boolean-flagged counterpart of Lease: a contract is live
// while IsValid holds and InvalidReason records the terminal stage otherwise.
type FlatContract struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	FlatID           uuid.UUID        `json:"flat_id" db:"flat_id"`
	TenantID         uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	StartDate        time.Time        `json:"start_date" db:"start_date"`
	EndDate          time.Time        `json:"end_date" db:"end_date"`
	Grace            int              `json:"grace" db:"grace"`
	IsValid          bool             `json:"is_valid" db:"is_valid"`
	InvalidReason    string           `json:"invalid_reason,omitempty" db:"invalid_reason"`
	RentAmount       decimal.Decimal  `json:"rent_amount" db:"rent_amount"`
	Discount         decimal.Decimal  `json:"discount" db:"discount"`
	DiscountPeriod   int              `json:"discount_period" db:"discount_period"`
	PaymentFrequency PaymentFrequency `json:"payment_frequency" db:"payment_frequency"`
	RenewedFromID    uuid.NullUUID    `json:"renewed_from_id" db:"renewed_from_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// CurrentStatus derives the stage from the validity flag.
func (c *FlatContract) CurrentStatus() Status {
	if c.IsValid {
		return StatusActive
	}
	if c.InvalidReason == "" {
		return StatusTerminated
	}
	return Status(c.InvalidReason)
}

func (c *FlatContract) NominalEnd() time.Time { return c.EndDate }

func (c *FlatContract) GraceMonths() int { return c.Grace }

// ContractPayment is one generated installment. Rows are bulk-emitted and
// soft-deleted as a set, never edited one by one.
type ContractPayment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ContractID      uuid.UUID       `json:"contract_id" db:"contract_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	DiscountApplied decimal.Decimal `json:"discount_applied" db:"discount_applied"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Renewal is a request to continue a contract under new terms.
type Renewal struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	ContractID        uuid.UUID       `json:"contract_id" db:"contract_id"`
	NewEndDate        time.Time       `json:"new_end_date" db:"new_end_date"`
	Grace             int             `json:"grace" db:"grace"`
	RentAmount        decimal.Decimal `json:"rent_amount" db:"rent_amount"`
	Discount          decimal.Decimal `json:"discount" db:"discount"`
	DiscountPeriod    int             `json:"discount_period" db:"discount_period"`
	Approved          bool            `json:"approved" db:"approved"`
	RenewedContractID uuid.NullUUID   `json:"renewed_contract_id" db:"renewed_contract_id"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Materialized reports whether the renewal already produced a contract.
func (r *Renewal) Materialized() bool {
	return r.RenewedContractID.Valid
}

// DTOs for requests and responses

type CreateContractRequest struct {
	FlatID           uuid.UUID        `json:"flat_id" validate:"required"`
	TenantID         uuid.UUID        `json:"tenant_id" validate:"required"`
	StartDate        time.Time        `json:"start_date" validate:"required"`
	EndDate          time.Time        `json:"end_date" validate:"required,gtfield=StartDate"`
	Grace            int              `json:"grace" validate:"gte=0"`
	RentAmount       decimal.Decimal  `json:"rent_amount"`
	Discount         decimal.Decimal  `json:"discount"`
	DiscountPeriod   int              `json:"discount_period" validate:"gte=0"`
	PaymentFrequency PaymentFrequency `json:"payment_frequency" validate:"required,oneof=monthly quarterly half_yearly yearly"`
}

type RenewalRequest struct {
	NewEndDate     time.Time       `json:"new_end_date" validate:"required"`
	Grace          int             `json:"grace" validate:"gte=0"`
	RentAmount     decimal.Decimal `json:"rent_amount"`
	Discount       decimal.Decimal `json:"discount"`
	DiscountPeriod int             `json:"discount_period" validate:"gte=0"`
}

type CreateContractResponse struct {
	Contract *FlatContract      `json:"contract"`
	Payments []*ContractPayment `json:"payments"`
}
