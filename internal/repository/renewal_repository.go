package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

const renewalColumns = `
	r.id, r.contract_id, r.new_end_date, r.grace, r.rent_amount, r.discount, r.discount_period,
	r.approved, r.renewed_contract_id, r.created_at
`

type renewalRepository struct {
	db *sqlx.DB
}

func NewRenewalRepository(db *sqlx.DB) RenewalRepository {
	return &renewalRepository{db: db}
}

func (r *renewalRepository) Create(ctx context.Context, renewal *domain.Renewal) error {
	query := `
		INSERT INTO contract_renewals (id, contract_id, new_end_date, grace, rent_amount, discount, discount_period, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		renewal.ID,
		renewal.ContractID,
		renewal.NewEndDate,
		renewal.Grace,
		renewal.RentAmount,
		renewal.Discount,
		renewal.DiscountPeriod,
		renewal.Approved,
		renewal.CreatedAt,
	)

	return err
}

func (r *renewalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Renewal, error) {
	query := `SELECT ` + renewalColumns + ` FROM contract_renewals r WHERE r.id = $1`

	var renewal domain.Renewal
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &renewal, query, id); err != nil {
		return nil, err
	}
	return &renewal, nil
}

func (r *renewalRepository) Approve(ctx context.Context, id uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `UPDATE contract_renewals SET approved = true WHERE id = $1`, id)
	return err
}

func (r *renewalRepository) ListPendingApproved(ctx context.Context, t time.Time) ([]*domain.Renewal, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM contract_renewals r
		JOIN flat_contracts c ON c.id = r.contract_id
		WHERE r.approved AND r.renewed_contract_id IS NULL AND c.end_date <= $1
		ORDER BY c.end_date
	`

	var renewals []*domain.Renewal
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &renewals, query, t); err != nil {
		return nil, err
	}
	return renewals, nil
}

func (r *renewalRepository) MarkMaterialized(ctx context.Context, id, contractID uuid.UUID) (bool, error) {
	query := `
		UPDATE contract_renewals
		SET renewed_contract_id = $2
		WHERE id = $1 AND renewed_contract_id IS NULL
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, contractID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
