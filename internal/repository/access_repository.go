package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type accessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) SetLoginEnabled(ctx context.Context, tenantID uuid.UUID, enabled bool) error {
	query := `
		INSERT INTO tenant_access (tenant_id, login_enabled, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE SET login_enabled = EXCLUDED.login_enabled, updated_at = EXCLUDED.updated_at
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query, tenantID, enabled, time.Now().UTC())
	return err
}
