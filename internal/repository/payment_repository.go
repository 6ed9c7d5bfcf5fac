package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []*domain.ContractPayment) error {
	query := `
		INSERT INTO contract_payments (id, contract_id, amount, due_date, discount_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	return inTx(ctx, r.db, func(q sqlx.ExtContext) error {
		for _, payment := range payments {
			_, err := q.ExecContext(ctx, query,
				payment.ID,
				payment.ContractID,
				payment.Amount,
				payment.DueDate,
				payment.DiscountApplied,
				payment.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *paymentRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*domain.ContractPayment, error) {
	query := `
		SELECT id, contract_id, amount, due_date, discount_applied, created_at, deleted_at
		FROM contract_payments
		WHERE contract_id = $1 AND deleted_at IS NULL
		ORDER BY due_date
	`

	var payments []*domain.ContractPayment
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &payments, query, contractID); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) SoftDeleteByContract(ctx context.Context, contractID uuid.UUID, at time.Time) error {
	query := `
		UPDATE contract_payments
		SET deleted_at = $2
		WHERE contract_id = $1 AND deleted_at IS NULL
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query, contractID, at)
	return err
}
