package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		rawDB.Close()
	})
	return sqlx.NewDb(rawDB, "postgres"), mock
}

var leaseColumns = []string{"id", "flat_id", "tenant_id", "start_date", "end_date", "grace", "rent_amount", "status", "created_at", "updated_at"}

func TestTransactor_SharesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	leases := NewLeaseRepository(db)
	payments := NewPaymentRepository(db)
	tx := NewTransactor(db)

	entry := &domain.StatusEntry{ID: uuid.New(), LeaseID: uuid.New(), Status: domain.StatusActive, CreatedAt: time.Now()}
	batch := []*domain.ContractPayment{
		{ID: uuid.New(), ContractID: uuid.New(), Amount: decimal.NewFromInt(1000), DiscountApplied: decimal.Zero},
		{ID: uuid.New(), ContractID: uuid.New(), Amount: decimal.NewFromInt(1000), DiscountApplied: decimal.Zero},
	}

	// one BEGIN/COMMIT even though CreateBatch is itself transactional
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lease_status_history").
		WithArgs(entry.ID.String(), entry.LeaseID.String(), "active", "", entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO contract_payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO contract_payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := leases.AppendStatus(ctx, entry); err != nil {
			return err
		}
		return payments.CreateBatch(ctx, batch)
	})

	assert.NoError(t, err)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	contracts := NewContractRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE flat_contracts").
		WithArgs(id.String(), "expired", sqlmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context) error {
		return contracts.Invalidate(ctx, id, domain.StatusExpired)
	})

	assert.EqualError(t, err, "deadlock detected")
}

func TestLeaseRepository_Reads(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaseRepository(db)
	id := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(leaseColumns).
			AddRow(id.String(), uuid.NewString(), uuid.NewString(), start, end, 1, "1500.00", "active", start, start)
	}

	mock.ExpectQuery(`FROM leases l\s+LEFT JOIN LATERAL .* WHERE l.id = \$1$`).WithArgs(id.String()).WillReturnRows(row())
	mock.ExpectQuery(`WHERE l.id = \$1 FOR UPDATE OF l`).WithArgs(id.String()).WillReturnRows(row())

	lease, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, lease.ID)
	assert.Equal(t, domain.StatusActive, lease.CurrentStatus())
	assert.True(t, lease.RentAmount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 1, lease.Grace)

	locked, err := repo.LockByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, end, locked.EndDate)
}

func TestLeaseRepository_Listings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaseRepository(db)
	flatID, tenantID := uuid.New(), uuid.New()
	cutoff := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`\(l.flat_id = \$1 OR l.tenant_id = \$2\)\s+AND COALESCE\(h.status, 'draft'\) IN \('draft', 'active'\)`).
		WithArgs(flatID.String(), tenantID.String()).
		WillReturnRows(sqlmock.NewRows(leaseColumns))
	mock.ExpectQuery(`WHERE h.status = 'active' AND l.end_date < \$1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(leaseColumns).
			AddRow(uuid.NewString(), flatID.String(), tenantID.String(), cutoff, cutoff, 0, "900", "active", cutoff, cutoff))
	mock.ExpectQuery(`FROM lease_status_history\s+WHERE lease_id = \$1\s+ORDER BY seq`).
		WithArgs(flatID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lease_id", "status", "comment", "created_at"}).
			AddRow(uuid.NewString(), flatID.String(), "draft", "created", cutoff).
			AddRow(uuid.NewString(), flatID.String(), "active", "", cutoff))

	live, err := repo.FindLive(context.Background(), flatID, tenantID)
	require.NoError(t, err)
	assert.Empty(t, live)

	ended, err := repo.ListActiveEndedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, ended, 1)

	history, err := repo.History(context.Background(), flatID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.StatusActive, history[1].Status)
}

func TestContractRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContractRepository(db)
	predecessor := uuid.New()
	c := &domain.FlatContract{
		ID:               uuid.New(),
		FlatID:           uuid.New(),
		TenantID:         uuid.New(),
		IsValid:          true,
		RentAmount:       decimal.NewFromInt(1000),
		Discount:         decimal.NewFromInt(50),
		DiscountPeriod:   2,
		PaymentFrequency: domain.FrequencyQuarterly,
		RenewedFromID:    uuid.NullUUID{UUID: predecessor, Valid: true},
	}

	mock.ExpectExec(`INSERT INTO flat_contracts`).
		WithArgs(c.ID.String(), c.FlatID.String(), c.TenantID.String(), c.StartDate, c.EndDate, 0, true, "",
			"1000", "50", 2, "quarterly", predecessor.String(), c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), c))
}

func TestContractRepository_ListValidEndedBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContractRepository(db)
	cutoff := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "flat_id", "tenant_id", "start_date", "end_date", "grace", "is_valid", "invalid_reason",
		"rent_amount", "discount", "discount_period", "payment_frequency", "renewed_from_id", "created_at", "updated_at"}

	mock.ExpectQuery(`WHERE is_valid AND end_date < \$1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), uuid.NewString(), uuid.NewString(), cutoff, cutoff, 0, true, "",
				"1000", "0", 0, "monthly", nil, cutoff, cutoff))

	contracts, err := repo.ListValidEndedBefore(context.Background(), cutoff)

	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.False(t, contracts[0].RenewedFromID.Valid)
	assert.Equal(t, domain.FrequencyMonthly, contracts[0].PaymentFrequency)
}

func TestRenewalRepository_MarkMaterialized(t *testing.T) {
	id, successor := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first link wins", affected: 1, want: true},
		{name: "already linked", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(`SET renewed_contract_id = \$2\s+WHERE id = \$1 AND renewed_contract_id IS NULL`).
				WithArgs(id.String(), successor.String()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			linked, err := NewRenewalRepository(db).MarkMaterialized(context.Background(), id, successor)

			require.NoError(t, err)
			assert.Equal(t, tt.want, linked)
		})
	}
}

func TestRenewalRepository_ListPendingApproved(t *testing.T) {
	db, mock := newMockDB(t)
	horizon := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE r.approved AND r.renewed_contract_id IS NULL AND c.end_date <= \$1`).
		WithArgs(horizon).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id", "new_end_date", "grace", "rent_amount", "discount",
			"discount_period", "approved", "renewed_contract_id", "created_at"}).
			AddRow(uuid.NewString(), uuid.NewString(), horizon, 0, "1100", "0", 0, true, nil, horizon))

	renewals, err := NewRenewalRepository(db).ListPendingApproved(context.Background(), horizon)

	require.NoError(t, err)
	require.Len(t, renewals, 1)
	assert.False(t, renewals[0].Materialized())
}

func TestPaymentRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	contractID := uuid.New()
	at := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE contract_payments\s+SET deleted_at = \$2\s+WHERE contract_id = \$1 AND deleted_at IS NULL`).
		WithArgs(contractID.String(), at).
		WillReturnResult(sqlmock.NewResult(0, 6))

	// a standalone batch opens its own transaction
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO contract_payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO contract_payments").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	mock.ExpectQuery(`WHERE contract_id = \$1 AND deleted_at IS NULL\s+ORDER BY due_date`).
		WithArgs(contractID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id", "amount", "due_date", "discount_applied", "created_at", "deleted_at"}).
			AddRow(uuid.NewString(), contractID.String(), "1000", at, "0", at, nil))

	require.NoError(t, repo.SoftDeleteByContract(context.Background(), contractID, at))

	err := repo.CreateBatch(context.Background(), []*domain.ContractPayment{
		{ID: uuid.New(), ContractID: contractID},
		{ID: uuid.New(), ContractID: contractID},
	})
	assert.EqualError(t, err, "unique violation")

	payments, err := repo.ListByContract(context.Background(), contractID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Nil(t, payments[0].DeletedAt)
}

func TestMaintenanceRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMaintenanceRepository(db)
	id := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	till := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM maintenance_programs\s+WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "valid_from", "valid_till", "frequency_type", "frequency", "pattern",
			"start_time", "end_time", "timezone", "created_at", "updated_at"}).
			AddRow(id.String(), "Lift inspection", from, till, "pattern", "monthly", []byte(`{0,0,0,15,1/2,?,*}`),
				"09:00:00", "11:00:00", "UTC", from, from))

	program, err := repo.GetProgram(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"0", "0", "0", "15", "1/2", "?", "*"}, program.Pattern)
	assert.Equal(t, domain.PatternMonthly, program.Frequency)

	mock.ExpectExec(`UPDATE maintenance_programs`).
		WithArgs(id.String(), from, till, "pattern", "monthly", `{"0","0","0","15","1/2","?","*"}`,
			"09:00:00", "11:00:00", "UTC", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateProgram(context.Background(), program))

	mock.ExpectExec(`DELETE FROM preventative_schedules WHERE program_id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 6))
	require.NoError(t, repo.DeleteSlots(context.Background(), id))
}

func TestReminderRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReminderRepository(db)
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM reminders\s+WHERE fire_at > \$1\s+ORDER BY fire_at`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "audience", "channel", "fire_at", "payload", "job_handle", "created_at"}).
			AddRow(uuid.NewString(), uuid.NewString(), "tenant", "email", now.Add(time.Hour), []byte(`{"subject":"rent due"}`), "reminder:1", now))

	pending, err := repo.ListPending(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.AudienceTenant, pending[0].Audience)
	assert.JSONEq(t, `{"subject":"rent due"}`, string(pending[0].Payload))

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM reminders WHERE id = \$1`).WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), id))
}

func TestAccessRepository_SetLoginEnabled(t *testing.T) {
	db, mock := newMockDB(t)
	tenantID := uuid.New()

	mock.ExpectExec(`INSERT INTO tenant_access .* ON CONFLICT \(tenant_id\) DO UPDATE`).
		WithArgs(tenantID.String(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewAccessRepository(db).SetLoginEnabled(context.Background(), tenantID, false))
}

func TestLeaseRepository_LockParties(t *testing.T) {
	db, mock := newMockDB(t)
	flatID, tenantID := uuid.New(), uuid.New()
	first, second := advisoryKey(flatID), advisoryKey(tenantID)
	if second < first {
		first, second = second, first
	}

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).WithArgs(first).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).WithArgs(second).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewLeaseRepository(db)
	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context) error {
		return repo.LockParties(ctx, tenantID, flatID)
	})

	assert.NoError(t, err)
}
