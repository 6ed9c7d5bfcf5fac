package repository

import (
	"context"
	"encoding/binary"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

// Current status is the newest history row.
const leaseSelect = `
	SELECT l.id, l.flat_id, l.tenant_id, l.start_date, l.end_date, l.grace, l.rent_amount,
	       COALESCE(h.status, 'draft') AS status, l.created_at, l.updated_at
	FROM leases l
	LEFT JOIN LATERAL (
		SELECT status FROM lease_status_history
		WHERE lease_id = l.id
		ORDER BY seq DESC
		LIMIT 1
	) h ON true
`

type leaseRepository struct {
	db *sqlx.DB
}

func NewLeaseRepository(db *sqlx.DB) LeaseRepository {
	return &leaseRepository{db: db}
}

func (r *leaseRepository) Create(ctx context.Context, lease *domain.Lease) error {
	query := `
		INSERT INTO leases (id, flat_id, tenant_id, start_date, end_date, grace, rent_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		lease.ID,
		lease.FlatID,
		lease.TenantID,
		lease.StartDate,
		lease.EndDate,
		lease.Grace,
		lease.RentAmount,
		lease.CreatedAt,
		lease.UpdatedAt,
	)

	return err
}

func (r *leaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &lease, leaseSelect+` WHERE l.id = $1`, id); err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &lease, leaseSelect+` WHERE l.id = $1 FOR UPDATE OF l`, id); err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) Update(ctx context.Context, lease *domain.Lease) error {
	query := `
		UPDATE leases
		SET start_date = $2, end_date = $3, grace = $4, rent_amount = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		lease.ID,
		lease.StartDate,
		lease.EndDate,
		lease.Grace,
		lease.RentAmount,
		lease.UpdatedAt,
	)

	return err
}

func (r *leaseRepository) AppendStatus(ctx context.Context, entry *domain.StatusEntry) error {
	query := `
		INSERT INTO lease_status_history (id, lease_id, status, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.LeaseID,
		entry.Status,
		entry.Comment,
		entry.CreatedAt,
	)

	return err
}

func (r *leaseRepository) History(ctx context.Context, leaseID uuid.UUID) ([]domain.StatusEntry, error) {
	query := `
		SELECT id, lease_id, status, comment, created_at
		FROM lease_status_history
		WHERE lease_id = $1
		ORDER BY seq
	`

	var entries []domain.StatusEntry
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &entries, query, leaseID); err != nil {
		return nil, err
	}
	return entries, nil
}

// LockParties takes the advisory locks in key order so two creates naming the
// same pair cannot deadlock. Outside a transaction the locks release at once.
func (r *leaseRepository) LockParties(ctx context.Context, flatID, tenantID uuid.UUID) error {
	keys := []int64{advisoryKey(flatID), advisoryKey(tenantID)}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		if _, err := executor(ctx, r.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
			return err
		}
	}
	return nil
}

// advisoryKey folds an id into the bigint key space of advisory locks.
func advisoryKey(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}

func (r *leaseRepository) FindLive(ctx context.Context, flatID, tenantID uuid.UUID) ([]*domain.Lease, error) {
	query := leaseSelect + `
		WHERE (l.flat_id = $1 OR l.tenant_id = $2)
		AND COALESCE(h.status, 'draft') IN ('draft', 'active')
	`

	var leases []*domain.Lease
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &leases, query, flatID, tenantID); err != nil {
		return nil, err
	}
	return leases, nil
}

func (r *leaseRepository) ListActiveEndedBefore(ctx context.Context, t time.Time) ([]*domain.Lease, error) {
	query := leaseSelect + `
		WHERE h.status = 'active' AND l.end_date < $1
		ORDER BY l.end_date
	`

	var leases []*domain.Lease
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &leases, query, t); err != nil {
		return nil, err
	}
	return leases, nil
}
