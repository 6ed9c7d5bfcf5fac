package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/metrics"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

const JobRenewals = "renewals"

// errNotDue marks a renewal skipped inside its transaction.
var errNotDue = errors.New("renewal not due")

// RenewalMaterializer turns approved renewals into successor contracts once
// the predecessor's effective end is within the renewal window. The window is
// measured on the predecessor and has no lower bound, so a late run catches up.
// An approved renewal whose predecessor ended any other way counts as failed.
type RenewalMaterializer struct {
	ContractRepo repository.ContractRepository
	RenewalRepo  repository.RenewalRepository
	tx           repository.Transactor
	payments     *PaymentScheduleBuilder
	window       time.Duration
	now          lifecycle.NowFunc
}

func NewRenewalMaterializer(
	contractRepo repository.ContractRepository,
	renewalRepo repository.RenewalRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.Transactor,
	window time.Duration,
	now lifecycle.NowFunc,
) *RenewalMaterializer {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &RenewalMaterializer{
		ContractRepo: contractRepo,
		RenewalRepo:  renewalRepo,
		tx:           tx,
		payments:     NewPaymentScheduleBuilder(paymentRepo, now),
		window:       window,
		now:          now,
	}
}

// Run materializes every due renewal, each in its own transaction.
func (m *RenewalMaterializer) Run(ctx context.Context) (*domain.BatchResult, error) {
	now := m.now()
	result := &domain.BatchResult{Job: JobRenewals, StartedAt: now}
	horizon := now.Add(m.window)

	// Nominal end is never after the effective end, so this over-selects.
	renewals, err := m.RenewalRepo.ListPendingApproved(ctx, horizon)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	for _, renewal := range renewals {
		result.Scanned++
		successor, err := m.materialize(ctx, renewal, horizon)
		switch {
		case errors.Is(err, errNotDue):
			result.Skipped++
		case err != nil:
			result.Failed++
			metrics.RecordFailuresCounter.WithLabelValues(JobRenewals).Inc()
			logger.FromContext(ctx).Error("failed to materialize renewal",
				zap.String("renewal_id", renewal.ID.String()),
				zap.Error(err),
			)
		default:
			result.Changed++
			metrics.RenewalsMaterializedCounter.Inc()
			logger.FromContext(ctx).Info("renewal materialized",
				zap.String("renewal_id", renewal.ID.String()),
				zap.String("predecessor_id", renewal.ContractID.String()),
				zap.String("contract_id", successor.ID.String()),
			)
		}
	}

	result.FinishedAt = m.now()
	return result, nil
}

// materialize retires the predecessor and creates its successor with a fresh
// schedule. A renewal already linked to a contract rolls the whole unit back.
func (m *RenewalMaterializer) materialize(ctx context.Context, renewal *domain.Renewal, horizon time.Time) (*domain.FlatContract, error) {
	var successor *domain.FlatContract
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 1. Predecessor must still be valid and inside the window
		predecessor, err := m.ContractRepo.LockByID(ctx, renewal.ContractID)
		if err != nil {
			return lookupError(err, "contract", renewal.ContractID)
		}
		if !predecessor.IsValid {
			// another renewal of the same contract already went through
			if predecessor.CurrentStatus() == domain.StatusRenewed {
				return errNotDue
			}
			return customError.WrapInvalidTransition("contract", predecessor.CurrentStatus().String())
		}
		effectiveEnd := lifecycle.EffectiveEndDate(predecessor.EndDate, predecessor.Grace)
		if effectiveEnd.After(horizon) {
			return errNotDue
		}

		// 2. Free the flat and tenant for the successor
		if err := m.ContractRepo.Invalidate(ctx, predecessor.ID, domain.StatusRenewed); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// 3. Successor carries the renewal terms, falling back to the predecessor's
		successor = successorOf(predecessor, renewal, effectiveEnd, m.now())
		if err := m.ContractRepo.Create(ctx, successor); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if _, err := m.payments.Generate(ctx, ScheduleInputFor(successor, anchorFor(successor))); err != nil {
			return err
		}

		// 4. Link the renewal; losing this race undoes everything above
		linked, err := m.RenewalRepo.MarkMaterialized(ctx, renewal.ID, successor.ID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !linked {
			return customError.WrapAlreadyRenewed(renewal.ID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

func successorOf(predecessor *domain.FlatContract, renewal *domain.Renewal, start, now time.Time) *domain.FlatContract {
	successor := &domain.FlatContract{
		ID:               uuid.New(),
		FlatID:           predecessor.FlatID,
		TenantID:         predecessor.TenantID,
		StartDate:        start,
		EndDate:          renewal.NewEndDate,
		Grace:            renewal.Grace,
		IsValid:          true,
		RentAmount:       renewal.RentAmount,
		Discount:         renewal.Discount,
		DiscountPeriod:   renewal.DiscountPeriod,
		PaymentFrequency: predecessor.PaymentFrequency,
		RenewedFromID:    uuid.NullUUID{UUID: predecessor.ID, Valid: true},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if successor.RentAmount.IsZero() {
		successor.RentAmount = predecessor.RentAmount
	}
	if successor.Discount.IsZero() && successor.DiscountPeriod == 0 {
		successor.Discount = predecessor.Discount
		successor.DiscountPeriod = predecessor.DiscountPeriod
	}
	return successor
}
