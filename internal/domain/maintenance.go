package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FrequencyType selects how a maintenance program declares its occurrences
type FrequencyType string

const (
	FrequencyTypePattern  FrequencyType = "pattern"
	FrequencyTypeExplicit FrequencyType = "explicit"
)

// PatternFrequency is the repetition unit of a pattern rule
type PatternFrequency string

const (
	PatternDaily   PatternFrequency = "daily"
	PatternWeekly  PatternFrequency = "weekly"
	PatternMonthly PatternFrequency = "monthly"
	PatternYearly  PatternFrequency = "yearly"
)

// MaintenanceProgram represents a preventive-maintenance program. Pattern holds
// the 7-field encoding and is empty for explicit programs.
type MaintenanceProgram struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	ValidFrom     time.Time        `json:"valid_from" db:"valid_from"`
	ValidTill     time.Time        `json:"valid_till" db:"valid_till"`
	FrequencyType FrequencyType    `json:"frequency_type" db:"frequency_type"`
	Frequency     PatternFrequency `json:"frequency,omitempty" db:"frequency"`
	Pattern       pq.StringArray   `json:"pattern,omitempty" db:"pattern"`
	StartTime     string           `json:"start_time,omitempty" db:"start_time"`
	EndTime       string           `json:"end_time,omitempty" db:"end_time"`
	Timezone      string           `json:"timezone" db:"timezone"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// ScheduleSlot is one generated service window, stored as UTC instants.
type ScheduleSlot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProgramID uuid.UUID `json:"program_id" db:"program_id"`
	StartAt   time.Time `json:"start_at" db:"start_at"`
	EndAt     time.Time `json:"end_at" db:"end_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type ExplicitOccurrence struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type MaintenanceScheduleRequest struct {
	FrequencyType FrequencyType        `json:"frequency_type" validate:"required,oneof=pattern explicit"`
	Frequency     PatternFrequency     `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	DayOfMonth    int                  `json:"day_of_month"`
	Month         int                  `json:"month"`
	StepMonths    int                  `json:"step_months"`
	Weekdays      []int                `json:"weekdays"`
	StartTime     string               `json:"start_time"`
	EndTime       string               `json:"end_time"`
	ValidFrom     string               `json:"valid_from"`
	ValidTill     string               `json:"valid_till"`
	Timezone      string               `json:"timezone"`
	Occurrences   []ExplicitOccurrence `json:"occurrences" validate:"dive"`
}

type MaintenanceScheduleResponse struct {
	Program *MaintenanceProgram `json:"program"`
	Slots   []*ScheduleSlot     `json:"slots"`
}
