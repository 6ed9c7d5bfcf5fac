package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// ReminderAudience decides which owner stages may receive a reminder
type ReminderAudience string

const (
	AudienceTenant ReminderAudience = "tenant"
	AudienceAdmin  ReminderAudience = "admin"
)

// Allows reports whether an owner in status s is eligible.
func (a ReminderAudience) Allows(s Status) bool {
	switch a {
	case AudienceTenant:
		return s == StatusActive
	case AudienceAdmin:
		return s == StatusActive || s == StatusDraft
	}
	return false
}

type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "email"
	ChannelSMS   ReminderChannel = "sms"
	ChannelPush  ReminderChannel = "push"
)

// Displayed reminder states
const (
	ReminderStatusPending = "Pending"
	ReminderStatusSent    = "Sent"
)

// Reminder is a one-shot notification persisted with its fire instant. Fired
// reminders are kept; whether one was sent is derived from FireAt.
type Reminder struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	OwnerID   uuid.UUID        `json:"owner_id" db:"owner_id"`
	Audience  ReminderAudience `json:"audience" db:"audience"`
	Channel   ReminderChannel  `json:"channel" db:"channel"`
	FireAt    time.Time        `json:"fire_at" db:"fire_at"`
	Payload   types.JSONText   `json:"payload" db:"payload"`
	JobHandle string           `json:"job_handle" db:"job_handle"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// DisplayStatus derives Sent/Pending from FireAt relative to now.
func (r *Reminder) DisplayStatus(now time.Time) string {
	if r.FireAt.Before(now) {
		return ReminderStatusSent
	}
	return ReminderStatusPending
}

// DTOs for requests and responses

type ScheduleReminderRequest struct {
	OwnerID  uuid.UUID        `json:"owner_id" validate:"required"`
	Audience ReminderAudience `json:"audience" validate:"required,oneof=tenant admin"`
	Channel  ReminderChannel  `json:"channel" validate:"required,oneof=email sms push"`
	FireAt   time.Time        `json:"fire_at" validate:"required"`
	Payload  json.RawMessage  `json:"payload"`
}

type ReminderResponse struct {
	Reminder *Reminder `json:"reminder"`
	Status   string    `json:"status"`
}
