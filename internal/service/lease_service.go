package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

type LeaseService struct {
	LeaseRepo repository.LeaseRepository
	tx        repository.Transactor
	access    AccessManager
	now       lifecycle.NowFunc
}

func NewLeaseService(
	leaseRepo repository.LeaseRepository,
	tx repository.Transactor,
	access AccessManager,
	now lifecycle.NowFunc,
) *LeaseService {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &LeaseService{
		LeaseRepo: leaseRepo,
		tx:        tx,
		access:    access,
		now:       now,
	}
}

// CreateLease stores a Draft lease after checking that neither the flat nor the
// tenant already holds a live one.
func (s *LeaseService) CreateLease(ctx context.Context, request *domain.CreateLeaseRequest) (*domain.Lease, error) {
	if !request.EndDate.After(request.StartDate) {
		return nil, customError.NewValidationError("end_date", "must be after start_date")
	}
	if request.Grace < 0 {
		return nil, customError.NewValidationError("grace", "must not be negative")
	}

	now := s.now()
	lease := &domain.Lease{
		ID:         uuid.New(),
		FlatID:     request.FlatID,
		TenantID:   request.TenantID,
		StartDate:  request.StartDate,
		EndDate:    request.EndDate,
		Grace:      request.Grace,
		RentAmount: request.RentAmount,
		Status:     domain.StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 1. One live lease per flat and per tenant, checked under lock
		if err := s.LeaseRepo.LockParties(ctx, request.FlatID, request.TenantID); err != nil {
			return customError.WrapDatabaseError(err)
		}
		live, err := s.LeaseRepo.FindLive(ctx, request.FlatID, request.TenantID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		for _, existing := range live {
			if existing.FlatID == request.FlatID {
				return customError.WrapDuplicateActive("lease", "flat", request.FlatID.String())
			}
			return customError.WrapDuplicateActive("lease", "tenant", request.TenantID.String())
		}

		// 2. Save the lease and open its status log
		if err := s.LeaseRepo.Create(ctx, lease); err != nil {
			return customError.WrapDatabaseError(err)
		}
		entry := s.entry(lease.ID, domain.StatusDraft, "created")
		if err := s.LeaseRepo.AppendStatus(ctx, entry); err != nil {
			return customError.WrapDatabaseError(err)
		}
		lease.StatusHistory = []domain.StatusEntry{*entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("lease created",
		zap.String("lease_id", lease.ID.String()),
		zap.String("flat_id", lease.FlatID.String()),
	)
	return lease, nil
}

// EditLease rewrites the term of a Draft lease.
func (s *LeaseService) EditLease(ctx context.Context, id uuid.UUID, request *domain.EditLeaseRequest) (*domain.Lease, error) {
	if !request.EndDate.After(request.StartDate) {
		return nil, customError.NewValidationError("end_date", "must be after start_date")
	}

	var lease *domain.Lease
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lease, err = s.lock(ctx, id, lifecycle.ActionEdit)
		if err != nil {
			return err
		}

		lease.StartDate = request.StartDate
		lease.EndDate = request.EndDate
		lease.Grace = request.Grace
		lease.UpdatedAt = s.now()
		if err := s.LeaseRepo.Update(ctx, lease); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lease, nil
}

// ApproveLease activates a Draft lease and provisions the tenant's login.
func (s *LeaseService) ApproveLease(ctx context.Context, id uuid.UUID, comment string) (*domain.Lease, error) {
	return s.transition(ctx, id, lifecycle.ActionApprove, comment, func(ctx context.Context, lease *domain.Lease) error {
		return s.access.ProvisionLogin(ctx, lease.TenantID)
	})
}

// CancelLease abandons a Draft lease.
func (s *LeaseService) CancelLease(ctx context.Context, id uuid.UUID, comment string) (*domain.Lease, error) {
	return s.transition(ctx, id, lifecycle.ActionCancel, comment, nil)
}

// TerminateLease ends an Active lease early and revokes the tenant's login.
func (s *LeaseService) TerminateLease(ctx context.Context, id uuid.UUID, comment string) (*domain.Lease, error) {
	return s.transition(ctx, id, lifecycle.ActionTerminate, comment, func(ctx context.Context, lease *domain.Lease) error {
		return s.access.RevokeLogin(ctx, lease.TenantID)
	})
}

// GetExpiry reports the derived expiry of a lease as of now.
func (s *LeaseService) GetExpiry(ctx context.Context, id uuid.UUID) (*domain.ExpiryResponse, error) {
	lease, err := s.LeaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "lease", id)
	}

	return &domain.ExpiryResponse{
		LeaseID:          lease.ID,
		Status:           lease.CurrentStatus(),
		EffectiveEndDate: lifecycle.EffectiveEndDate(lease.EndDate, lease.Grace),
		IsExpired:        lifecycle.IsExpired(lease, s.now()),
	}, nil
}

// GetHistory returns the status log of a lease, oldest first.
func (s *LeaseService) GetHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusEntry, error) {
	if _, err := s.LeaseRepo.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, "lease", id)
	}

	history, err := s.LeaseRepo.History(ctx, id)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return history, nil
}

func (s *LeaseService) transition(
	ctx context.Context,
	id uuid.UUID,
	action lifecycle.Action,
	comment string,
	sideEffect func(ctx context.Context, lease *domain.Lease) error,
) (*domain.Lease, error) {
	var lease *domain.Lease
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lease, err = s.lock(ctx, id, action)
		if err != nil {
			return err
		}

		entry := s.entry(lease.ID, lifecycle.Next(action), comment)
		if err := s.LeaseRepo.AppendStatus(ctx, entry); err != nil {
			return customError.WrapDatabaseError(err)
		}
		lease.Status = entry.Status
		lease.StatusHistory = append(lease.StatusHistory, *entry)

		if sideEffect != nil {
			return sideEffect(ctx, lease)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("lease status changed",
		zap.String("lease_id", lease.ID.String()),
		zap.String("action", string(action)),
		zap.String("status", lease.CurrentStatus().String()),
	)
	return lease, nil
}

// lock reads the lease under a row lock and checks that action is allowed.
func (s *LeaseService) lock(ctx context.Context, id uuid.UUID, action lifecycle.Action) (*domain.Lease, error) {
	lease, err := s.LeaseRepo.LockByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "lease", id)
	}
	if err := lifecycle.CheckAction("lease", lease.CurrentStatus(), action); err != nil {
		return nil, err
	}
	return lease, nil
}

func (s *LeaseService) entry(leaseID uuid.UUID, status domain.Status, comment string) *domain.StatusEntry {
	return &domain.StatusEntry{
		ID:        uuid.New(),
		LeaseID:   leaseID,
		Status:    status,
		Comment:   comment,
		CreatedAt: s.now(),
	}
}
