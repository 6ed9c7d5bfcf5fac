package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

const contractColumns = `
	id, flat_id, tenant_id, start_date, end_date, grace, is_valid, invalid_reason,
	rent_amount, discount, discount_period, payment_frequency, renewed_from_id, created_at, updated_at
`

type contractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *domain.FlatContract) error {
	query := `
		INSERT INTO flat_contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.FlatID,
		contract.TenantID,
		contract.StartDate,
		contract.EndDate,
		contract.Grace,
		contract.IsValid,
		contract.InvalidReason,
		contract.RentAmount,
		contract.Discount,
		contract.DiscountPeriod,
		contract.PaymentFrequency,
		contract.RenewedFromID,
		contract.CreatedAt,
		contract.UpdatedAt,
	)

	return err
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error) {
	query := `SELECT ` + contractColumns + ` FROM flat_contracts WHERE id = $1`

	var contract domain.FlatContract
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.FlatContract, error) {
	query := `SELECT ` + contractColumns + ` FROM flat_contracts WHERE id = $1 FOR UPDATE`

	var contract domain.FlatContract
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) Invalidate(ctx context.Context, id uuid.UUID, reason domain.Status) error {
	query := `
		UPDATE flat_contracts
		SET is_valid = false, invalid_reason = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query, id, reason, time.Now().UTC())
	return err
}

func (r *contractRepository) FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.FlatContract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM flat_contracts
		WHERE is_valid AND (flat_id = $1 OR tenant_id = $2)
	`

	var contracts []*domain.FlatContract
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &contracts, query, flatID, tenantID); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *contractRepository) ListValidEndedBefore(ctx context.Context, t time.Time) ([]*domain.FlatContract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM flat_contracts
		WHERE is_valid AND end_date < $1
		ORDER BY end_date
	`

	var contracts []*domain.FlatContract
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &contracts, query, t); err != nil {
		return nil, err
	}
	return contracts, nil
}
