package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

type ContractService struct {
	ContractRepo repository.ContractRepository
	RenewalRepo  repository.RenewalRepository
	PaymentRepo  repository.PaymentRepository
	tx           repository.Transactor
	payments     *PaymentScheduleBuilder
	access       AccessManager
	now          lifecycle.NowFunc
}

func NewContractService(
	contractRepo repository.ContractRepository,
	renewalRepo repository.RenewalRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.Transactor,
	access AccessManager,
	now lifecycle.NowFunc,
) *ContractService {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &ContractService{
		ContractRepo: contractRepo,
		RenewalRepo:  renewalRepo,
		PaymentRepo:  paymentRepo,
		tx:           tx,
		payments:     NewPaymentScheduleBuilder(paymentRepo, now),
		access:       access,
		now:          now,
	}
}

// anchorFor is the instant installments count from: the creation instant of an
// original contract, the start of a renewed one.
func anchorFor(c *domain.FlatContract) time.Time {
	if c.RenewedFromID.Valid {
		return c.StartDate
	}
	return c.CreatedAt
}

// CreateContract stores a valid contract and its installments atomically.
func (s *ContractService) CreateContract(ctx context.Context, request *domain.CreateContractRequest) (*domain.CreateContractResponse, error) {
	if !request.EndDate.After(request.StartDate) {
		return nil, customError.NewValidationError("end_date", "must be after start_date")
	}
	if request.RentAmount.IsNegative() {
		return nil, customError.NewValidationError("rent_amount", "must not be negative")
	}
	if _, err := request.PaymentFrequency.StepMonths(); err != nil {
		return nil, customError.NewValidationError("payment_frequency", err.Error())
	}

	now := s.now()
	contract := &domain.FlatContract{
		ID:               uuid.New(),
		FlatID:           request.FlatID,
		TenantID:         request.TenantID,
		StartDate:        request.StartDate,
		EndDate:          request.EndDate,
		Grace:            request.Grace,
		IsValid:          true,
		RentAmount:       request.RentAmount,
		Discount:         request.Discount,
		DiscountPeriod:   request.DiscountPeriod,
		PaymentFrequency: request.PaymentFrequency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var payments []*domain.ContractPayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 1. One valid contract per flat and per tenant
		live, err := s.ContractRepo.FindLive(ctx, request.FlatID, request.TenantID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		for _, existing := range live {
			if existing.FlatID == request.FlatID {
				return customError.WrapDuplicateActive("contract", "flat", request.FlatID.String())
			}
			return customError.WrapDuplicateActive("contract", "tenant", request.TenantID.String())
		}

		// 2. Save the contract
		if err := s.ContractRepo.Create(ctx, contract); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// 3. Emit its installments
		payments, err = s.payments.Generate(ctx, ScheduleInputFor(contract, anchorFor(contract)))
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.Int("installments", len(payments)),
	)
	return &domain.CreateContractResponse{Contract: contract, Payments: payments}, nil
}

// TerminateContract invalidates a valid contract and revokes the tenant's login.
func (s *ContractService) TerminateContract(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error) {
	var contract *domain.FlatContract
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.lock(ctx, id, lifecycle.ActionTerminate)
		if err != nil {
			return err
		}

		if err := s.ContractRepo.Invalidate(ctx, id, domain.StatusTerminated); err != nil {
			return customError.WrapDatabaseError(err)
		}
		contract.IsValid = false
		contract.InvalidReason = string(domain.StatusTerminated)

		return s.access.RevokeLogin(ctx, contract.TenantID)
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// RegenerateSchedule replaces the installments of a valid contract after its
// terms changed.
func (s *ContractService) RegenerateSchedule(ctx context.Context, id uuid.UUID) ([]*domain.ContractPayment, error) {
	var payments []*domain.ContractPayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		contract, err := s.ContractRepo.LockByID(ctx, id)
		if err != nil {
			return lookupError(err, "contract", id)
		}
		if !contract.IsValid {
			return customError.WrapInvalidTransition("contract", contract.CurrentStatus().String())
		}
		payments, err = s.payments.Regenerate(ctx, ScheduleInputFor(contract, anchorFor(contract)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPayments returns the live installments of a contract.
func (s *ContractService) ListPayments(ctx context.Context, id uuid.UUID) ([]*domain.ContractPayment, error) {
	if _, err := s.ContractRepo.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, "contract", id)
	}
	payments, err := s.PaymentRepo.ListByContract(ctx, id)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// RequestRenewal records unapproved new terms for a valid contract.
func (s *ContractService) RequestRenewal(ctx context.Context, contractID uuid.UUID, request *domain.RenewalRequest) (*domain.Renewal, error) {
	contract, err := s.ContractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, lookupError(err, "contract", contractID)
	}
	if !contract.IsValid {
		return nil, customError.WrapInvalidTransition("contract", contract.CurrentStatus().String())
	}

	effectiveEnd := lifecycle.EffectiveEndDate(contract.EndDate, contract.Grace)
	if !request.NewEndDate.After(effectiveEnd) {
		return nil, customError.NewValidationError("new_end_date", "must be after the current effective end date")
	}

	renewal := &domain.Renewal{
		ID:             uuid.New(),
		ContractID:     contract.ID,
		NewEndDate:     request.NewEndDate,
		Grace:          request.Grace,
		RentAmount:     request.RentAmount,
		Discount:       request.Discount,
		DiscountPeriod: request.DiscountPeriod,
		CreatedAt:      s.now(),
	}
	if err := s.RenewalRepo.Create(ctx, renewal); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return renewal, nil
}

// ApproveRenewal marks a renewal approved. Approving twice is a no-op. The
// contract being renewed must still be valid.
func (s *ContractService) ApproveRenewal(ctx context.Context, renewalID uuid.UUID) (*domain.Renewal, error) {
	renewal, err := s.RenewalRepo.GetByID(ctx, renewalID)
	if err != nil {
		return nil, lookupError(err, "renewal", renewalID)
	}
	if renewal.Materialized() {
		return nil, customError.WrapAlreadyRenewed(renewalID.String())
	}

	contract, err := s.ContractRepo.GetByID(ctx, renewal.ContractID)
	if err != nil {
		return nil, lookupError(err, "contract", renewal.ContractID)
	}
	if !contract.IsValid {
		return nil, customError.WrapInvalidTransition("contract", contract.CurrentStatus().String())
	}

	if renewal.Approved {
		return renewal, nil
	}

	if err := s.RenewalRepo.Approve(ctx, renewalID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	renewal.Approved = true
	return renewal, nil
}

func (s *ContractService) lock(ctx context.Context, id uuid.UUID, action lifecycle.Action) (*domain.FlatContract, error) {
	contract, err := s.ContractRepo.LockByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "contract", id)
	}
	if err := lifecycle.CheckAction("contract", contract.CurrentStatus(), action); err != nil {
		return nil, err
	}
	return contract, nil
}
