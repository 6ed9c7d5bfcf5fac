package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/repository/mocks"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

type contractFixture struct {
	contractRepo *mocks.MockContractRepository
	renewalRepo  *mocks.MockRenewalRepository
	paymentRepo  *mocks.MockPaymentRepository
	accessRepo   *mocks.MockAccessRepository
	tx           *mocks.MockTransactor
	service      *ContractService
}

func newContractFixture(now time.Time) *contractFixture {
	f := &contractFixture{
		contractRepo: &mocks.MockContractRepository{},
		renewalRepo:  &mocks.MockRenewalRepository{},
		paymentRepo:  &mocks.MockPaymentRepository{},
		accessRepo:   &mocks.MockAccessRepository{},
		tx:           &mocks.MockTransactor{},
	}
	f.service = NewContractService(f.contractRepo, f.renewalRepo, f.paymentRepo, f.tx, NewAccessManager(f.accessRepo), fixedClock(now))
	return f
}

func validContract() *domain.FlatContract {
	return &domain.FlatContract{
		ID:               uuid.New(),
		FlatID:           uuid.New(),
		TenantID:         uuid.New(),
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2024, 7, 1),
		IsValid:          true,
		RentAmount:       decimal.NewFromInt(1000),
		PaymentFrequency: domain.FrequencyMonthly,
		CreatedAt:        date(2024, 1, 1),
	}
}

func TestCreateContract(t *testing.T) {
	now := date(2024, 1, 1)
	flatID := uuid.New()
	tenantID := uuid.New()
	request := &domain.CreateContractRequest{
		FlatID:           flatID,
		TenantID:         tenantID,
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2024, 7, 1),
		RentAmount:       decimal.NewFromInt(1000),
		Discount:         decimal.NewFromInt(100),
		DiscountPeriod:   2,
		PaymentFrequency: domain.FrequencyMonthly,
	}

	tests := []struct {
		name       string
		setupMocks func(f *contractFixture)
		wantCode   string
	}{
		{
			name: "contract and installments in one transaction",
			setupMocks: func(f *contractFixture) {
				f.contractRepo.On("FindLive", mock.Anything, flatID, tenantID).Return([]*domain.FlatContract{}, nil)
				f.contractRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.FlatContract) bool {
					return c.IsValid && c.FlatID == flatID
				})).Return(nil)
				f.paymentRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(p []*domain.ContractPayment) bool {
					return len(p) == 6 && p[0].DueDate.Equal(date(2024, 1, 1)) && p[5].DueDate.Equal(date(2024, 6, 1))
				})).Return(nil)
			},
		},
		{
			name: "duplicate valid contract on the flat",
			setupMocks: func(f *contractFixture) {
				f.contractRepo.On("FindLive", mock.Anything, flatID, tenantID).
					Return([]*domain.FlatContract{{FlatID: flatID}}, nil)
			},
			wantCode: customError.ErrCodeDuplicateActive,
		},
		{
			name: "installment insert failure",
			setupMocks: func(f *contractFixture) {
				f.contractRepo.On("FindLive", mock.Anything, flatID, tenantID).Return([]*domain.FlatContract{}, nil)
				f.contractRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
				f.paymentRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			wantCode: customError.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContractFixture(now)
			tt.setupMocks(f)

			resp, err := f.service.CreateContract(context.Background(), request)

			if tt.wantCode != "" {
				var be *customError.BusinessError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, tt.wantCode, be.Code)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, f.tx.Calls)
			require.Len(t, resp.Payments, 6)
			assert.True(t, resp.Payments[1].DiscountApplied.Equal(decimal.NewFromInt(100)))
			assert.True(t, resp.Payments[2].DiscountApplied.IsZero())
			f.contractRepo.AssertExpectations(t)
			f.paymentRepo.AssertExpectations(t)
		})
	}
}

func TestCreateContract_Validation(t *testing.T) {
	f := newContractFixture(date(2024, 1, 1))

	_, err := f.service.CreateContract(context.Background(), &domain.CreateContractRequest{
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2025, 1, 1),
		PaymentFrequency: "fortnightly",
	})

	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "payment_frequency", be.Field)
	assert.Equal(t, 0, f.tx.Calls)
}

func TestTerminateContract(t *testing.T) {
	f := newContractFixture(date(2024, 3, 1))
	contract := validContract()
	f.contractRepo.On("LockByID", mock.Anything, contract.ID).Return(contract, nil)
	f.contractRepo.On("Invalidate", mock.Anything, contract.ID, domain.StatusTerminated).Return(nil)
	f.accessRepo.On("SetLoginEnabled", mock.Anything, contract.TenantID, false).Return(nil)

	got, err := f.service.TerminateContract(context.Background(), contract.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, got.CurrentStatus())

	// invalid contracts cannot be terminated again
	_, err = f.service.TerminateContract(context.Background(), contract.ID)
	assert.EqualError(t, err, "INVALID_STATUS_TRANSITION: cannot change status of a contract in terminated stage (conflict)")
	f.contractRepo.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestRegenerateSchedule(t *testing.T) {
	now := date(2024, 2, 10)
	f := newContractFixture(now)
	contract := validContract()
	f.contractRepo.On("LockByID", mock.Anything, contract.ID).Return(contract, nil)
	f.paymentRepo.On("SoftDeleteByContract", mock.Anything, contract.ID, now).Return(nil)
	f.paymentRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	payments, err := f.service.RegenerateSchedule(context.Background(), contract.ID)

	require.NoError(t, err)
	assert.Len(t, payments, 6)
	assert.Equal(t, contract.CreatedAt, payments[0].DueDate)
	f.paymentRepo.AssertExpectations(t)
}

func TestRequestRenewal(t *testing.T) {
	contract := validContract()
	contract.Grace = 1

	tests := []struct {
		name      string
		contract  *domain.FlatContract
		request   *domain.RenewalRequest
		created   bool
		wantCheck func(t *testing.T, err error)
	}{
		{
			name:     "records unapproved renewal",
			contract: contract,
			request:  &domain.RenewalRequest{NewEndDate: date(2025, 8, 1)},
			created:  true,
		},
		{
			name:     "new end inside the current term",
			contract: contract,
			request:  &domain.RenewalRequest{NewEndDate: date(2024, 7, 15)},
			wantCheck: func(t *testing.T, err error) {
				var be *customError.BusinessError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, "new_end_date", be.Field)
			},
		},
		{
			name:     "expired contract",
			contract: &domain.FlatContract{ID: contract.ID, InvalidReason: "expired"},
			request:  &domain.RenewalRequest{NewEndDate: date(2025, 8, 1)},
			wantCheck: func(t *testing.T, err error) {
				assert.True(t, customError.IsConflict(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContractFixture(date(2024, 5, 1))
			f.contractRepo.On("GetByID", mock.Anything, contract.ID).Return(tt.contract, nil)
			if tt.created {
				f.renewalRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Renewal) bool {
					return r.ContractID == contract.ID && !r.Approved
				})).Return(nil)
			}

			renewal, err := f.service.RequestRenewal(context.Background(), contract.ID, tt.request)

			if tt.wantCheck != nil {
				tt.wantCheck(t, err)
				f.renewalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.False(t, renewal.Approved)
			f.renewalRepo.AssertExpectations(t)
		})
	}
}

func TestApproveRenewal(t *testing.T) {
	contract := validContract()
	pending := &domain.Renewal{ID: uuid.New(), ContractID: contract.ID}
	approved := &domain.Renewal{ID: uuid.New(), ContractID: contract.ID, Approved: true}
	done := &domain.Renewal{ID: uuid.New(), ContractID: contract.ID, Approved: true, RenewedContractID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}

	f := newContractFixture(date(2024, 5, 1))
	f.renewalRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	f.renewalRepo.On("GetByID", mock.Anything, approved.ID).Return(approved, nil)
	f.renewalRepo.On("GetByID", mock.Anything, done.ID).Return(done, nil)
	f.contractRepo.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)
	f.renewalRepo.On("Approve", mock.Anything, pending.ID).Return(nil).Once()

	got, err := f.service.ApproveRenewal(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)

	_, err = f.service.ApproveRenewal(context.Background(), approved.ID)
	require.NoError(t, err)

	_, err = f.service.ApproveRenewal(context.Background(), done.ID)
	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, customError.ErrCodeAlreadyRenewed, be.Code)

	f.renewalRepo.AssertExpectations(t)
}

func TestApproveRenewal_ContractNoLongerValid(t *testing.T) {
	contract := validContract()
	contract.IsValid = false
	contract.InvalidReason = string(domain.StatusExpired)
	renewal := &domain.Renewal{ID: uuid.New(), ContractID: contract.ID}

	f := newContractFixture(date(2024, 8, 2))
	f.renewalRepo.On("GetByID", mock.Anything, renewal.ID).Return(renewal, nil)
	f.contractRepo.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)

	got, err := f.service.ApproveRenewal(context.Background(), renewal.ID)

	assert.Nil(t, got)
	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, customError.ErrCodeInvalidTransition, be.Code)
	assert.True(t, customError.IsConflict(err))
	assert.False(t, renewal.Approved)
	f.renewalRepo.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}
