package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/tenancy-engine/internal/domain"
)

type maintenanceRepository struct {
	db *sqlx.DB
}

func NewMaintenanceRepository(db *sqlx.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) GetProgram(ctx context.Context, id uuid.UUID) (*domain.MaintenanceProgram, error) {
	query := `
		SELECT id, name, valid_from, valid_till, frequency_type, frequency, pattern,
		       start_time, end_time, timezone, created_at, updated_at
		FROM maintenance_programs
		WHERE id = $1
	`

	var program domain.MaintenanceProgram
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *maintenanceRepository) UpdateProgram(ctx context.Context, program *domain.MaintenanceProgram) error {
	query := `
		UPDATE maintenance_programs
		SET valid_from = $2, valid_till = $3, frequency_type = $4, frequency = $5, pattern = $6,
		    start_time = $7, end_time = $8, timezone = $9, updated_at = $10
		WHERE id = $1
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		program.ID,
		program.ValidFrom,
		program.ValidTill,
		program.FrequencyType,
		program.Frequency,
		program.Pattern,
		program.StartTime,
		program.EndTime,
		program.Timezone,
		program.UpdatedAt,
	)

	return err
}

func (r *maintenanceRepository) DeleteSlots(ctx context.Context, programID uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM preventative_schedules WHERE program_id = $1`, programID)
	return err
}

func (r *maintenanceRepository) CreateSlots(ctx context.Context, slots []*domain.ScheduleSlot) error {
	query := `
		INSERT INTO preventative_schedules (id, program_id, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	return inTx(ctx, r.db, func(q sqlx.ExtContext) error {
		for _, slot := range slots {
			if _, err := q.ExecContext(ctx, query, slot.ID, slot.ProgramID, slot.StartAt, slot.EndAt, slot.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *maintenanceRepository) ListSlots(ctx context.Context, programID uuid.UUID) ([]*domain.ScheduleSlot, error) {
	query := `
		SELECT id, program_id, start_at, end_at, created_at
		FROM preventative_schedules
		WHERE program_id = $1
		ORDER BY start_at
	`

	var slots []*domain.ScheduleSlot
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &slots, query, programID); err != nil {
		return nil, err
	}
	return slots, nil
}
