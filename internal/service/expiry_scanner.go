package service

import (
	"context"
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

const JobExpiryScan = "expiry-scan"

// ExpiryScanner moves Active leases and valid contracts past their effective
// end to Expired. Each record is handled in its own transaction, so one
// failure never blocks the rest and a rerun only picks up what is left.
type ExpiryScanner struct {
	LeaseRepo    repository.LeaseRepository
	ContractRepo repository.ContractRepository
	tx           repository.Transactor
	access       AccessManager
	now          lifecycle.NowFunc
}

func NewExpiryScanner(
	leaseRepo repository.LeaseRepository,
	contractRepo repository.ContractRepository,
	tx repository.Transactor,
	access AccessManager,
	now lifecycle.NowFunc,
) *ExpiryScanner {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &ExpiryScanner{
		LeaseRepo:    leaseRepo,
		ContractRepo: contractRepo,
		tx:           tx,
		access:       access,
		now:          now,
	}
}

// Run scans both entity kinds. Only a failed candidate listing aborts the run.
func (s *ExpiryScanner) Run(ctx context.Context) (*domain.BatchResult, error) {
	now := s.now()
	result := &domain.BatchResult{Job: JobExpiryScan, StartedAt: now}

	// Nominal end before now is a superset of effective end before now; the
	// grace check happens per record.
	leases, err := s.LeaseRepo.ListActiveEndedBefore(ctx, now)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	for _, lease := range leases {
		changed, err := s.expireLease(ctx, lease.ID, now)
		s.tally(ctx, result, "lease", lease.ID, changed, err)
	}

	contracts, err := s.ContractRepo.ListValidEndedBefore(ctx, now)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	for _, contract := range contracts {
		changed, err := s.expireContract(ctx, contract.ID, now)
		s.tally(ctx, result, "contract", contract.ID, changed, err)
	}

	result.FinishedAt = s.now()
	return result, nil
}

func (s *ExpiryScanner) tally(ctx context.Context, result *domain.BatchResult, entity string, id uuid.UUID, changed bool, err error) {
	result.Scanned++
	switch {
	case err != nil:
		result.Failed++
		metrics.RecordFailuresCounter.WithLabelValues(JobExpiryScan).Inc()
		logger.FromContext(ctx).Error("failed to expire record",
			zap.String("entity", entity),
			zap.String("id", id.String()),
			zap.Error(err),
		)
	case changed:
		result.Changed++
		metrics.RecordsExpiredCounter.WithLabelValues(entity).Inc()
		logger.FromContext(ctx).Info("record expired",
			zap.String("entity", entity),
			zap.String("id", id.String()),
		)
	default:
		result.Skipped++
	}
}

// expireLease re-reads the lease under lock so a concurrent transition or an
// earlier run leaves it untouched.
func (s *ExpiryScanner) expireLease(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	changed := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lease, err := s.LeaseRepo.LockByID(ctx, id)
		if err != nil {
			return lookupError(err, "lease", id)
		}
		if !lifecycle.DueForExpiry(lease, now) {
			return nil
		}

		entry := &domain.StatusEntry{
			ID:        uuid.New(),
			LeaseID:   lease.ID,
			Status:    lifecycle.Next(lifecycle.ActionExpire),
			Comment:   "grace period elapsed",
			CreatedAt: now,
		}
		if err := s.LeaseRepo.AppendStatus(ctx, entry); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.access.RevokeLogin(ctx, lease.TenantID); err != nil {
			return passThrough(err)
		}
		changed = true
		return nil
	})
	return changed, err
}

func (s *ExpiryScanner) expireContract(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	changed := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		contract, err := s.ContractRepo.LockByID(ctx, id)
		if err != nil {
			return lookupError(err, "contract", id)
		}
		if !lifecycle.DueForExpiry(contract, now) {
			return nil
		}

		if err := s.ContractRepo.Invalidate(ctx, contract.ID, lifecycle.Next(lifecycle.ActionExpire)); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.access.RevokeLogin(ctx, contract.TenantID); err != nil {
			return passThrough(err)
		}
		changed = true
		return nil
	})
	return changed, err
}
