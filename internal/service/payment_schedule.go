package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/recurrence"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// PaymentScheduleInput describes the installments of one contract term.
type PaymentScheduleInput struct {
	ContractID     uuid.UUID
	Anchor         time.Time
	EffectiveEnd   time.Time
	Frequency      domain.PaymentFrequency
	RentAmount     decimal.Decimal
	Discount       decimal.Decimal
	DiscountPeriod int
}

// ScheduleInputFor derives the installment input of a contract, anchored at
// anchor and running to the grace-adjusted end.
func ScheduleInputFor(c *domain.FlatContract, anchor time.Time) PaymentScheduleInput {
	return PaymentScheduleInput{
		ContractID:     c.ID,
		Anchor:         anchor,
		EffectiveEnd:   lifecycle.EffectiveEndDate(c.EndDate, c.Grace),
		Frequency:      c.PaymentFrequency,
		RentAmount:     c.RentAmount,
		Discount:       c.Discount,
		DiscountPeriod: c.DiscountPeriod,
	}
}

type PaymentScheduleBuilder struct {
	PaymentRepo repository.PaymentRepository
	now         lifecycle.NowFunc
}

func NewPaymentScheduleBuilder(paymentRepo repository.PaymentRepository, now lifecycle.NowFunc) *PaymentScheduleBuilder {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &PaymentScheduleBuilder{PaymentRepo: paymentRepo, now: now}
}

// Build expands the installments without persisting them. The discount is
// applied to the first DiscountPeriod installments.
func (b *PaymentScheduleBuilder) Build(in PaymentScheduleInput) ([]*domain.ContractPayment, error) {
	step, err := in.Frequency.StepMonths()
	if err != nil {
		return nil, customError.NewValidationError("payment_frequency", err.Error())
	}
	if in.DiscountPeriod < 0 {
		return nil, customError.NewValidationError("discount_period", "must not be negative")
	}

	slots, err := recurrence.Expand(
		recurrence.Periodic{StepMonths: step},
		recurrence.Bounds{From: in.Anchor, Till: in.EffectiveEnd},
		in.Anchor,
	)
	if err != nil {
		return nil, err
	}

	createdAt := b.now()
	remaining := in.DiscountPeriod
	payments := make([]*domain.ContractPayment, 0, len(slots))
	for _, slot := range slots {
		applied := decimal.Zero
		if remaining > 0 {
			applied = in.Discount
			remaining--
		}
		payments = append(payments, &domain.ContractPayment{
			ID:              uuid.New(),
			ContractID:      in.ContractID,
			Amount:          in.RentAmount,
			DueDate:         slot.StartAt,
			DiscountApplied: applied,
			CreatedAt:       createdAt,
		})
	}
	return payments, nil
}

// Generate builds and stores the installments in one bulk insert.
func (b *PaymentScheduleBuilder) Generate(ctx context.Context, in PaymentScheduleInput) ([]*domain.ContractPayment, error) {
	payments, err := b.Build(in)
	if err != nil {
		return nil, err
	}
	if err := b.PaymentRepo.CreateBatch(ctx, payments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// Regenerate soft-deletes the live installments of the contract and emits a
// fresh set. Callers run it inside a transaction.
func (b *PaymentScheduleBuilder) Regenerate(ctx context.Context, in PaymentScheduleInput) ([]*domain.ContractPayment, error) {
	payments, err := b.Build(in)
	if err != nil {
		return nil, err
	}
	if err := b.PaymentRepo.SoftDeleteByContract(ctx, in.ContractID, b.now()); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err := b.PaymentRepo.CreateBatch(ctx, payments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}
