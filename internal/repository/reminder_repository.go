package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	query := `
		INSERT INTO reminders (id, owner_id, audience, channel, fire_at, payload, job_handle, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		reminder.ID,
		reminder.OwnerID,
		reminder.Audience,
		reminder.Channel,
		reminder.FireAt,
		reminder.Payload,
		reminder.JobHandle,
		reminder.CreatedAt,
	)

	return err
}

func (r *reminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := `
		SELECT id, owner_id, audience, channel, fire_at, payload, job_handle, created_at
		FROM reminders
		WHERE id = $1
	`

	var reminder domain.Reminder
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &reminder, query, id); err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) ListPending(ctx context.Context, t time.Time) ([]*domain.Reminder, error) {
	query := `
		SELECT id, owner_id, audience, channel, fire_at, payload, job_handle, created_at
		FROM reminders
		WHERE fire_at > $1
		ORDER BY fire_at
	`

	var reminders []*domain.Reminder
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &reminders, query, t); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	return err
}
