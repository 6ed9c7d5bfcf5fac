package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/lifecycle"
	"github.com/segyhp/tenancy-engine/internal/recurrence"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/logger"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

type MaintenanceScheduleBuilder struct {
	MaintenanceRepo repository.MaintenanceRepository
	tx              repository.Transactor
	defaultTimezone string
	now             lifecycle.NowFunc
}

func NewMaintenanceScheduleBuilder(
	maintenanceRepo repository.MaintenanceRepository,
	tx repository.Transactor,
	defaultTimezone string,
	now lifecycle.NowFunc,
) *MaintenanceScheduleBuilder {
	if now == nil {
		now = lifecycle.SystemNow
	}
	return &MaintenanceScheduleBuilder{
		MaintenanceRepo: maintenanceRepo,
		tx:              tx,
		defaultTimezone: defaultTimezone,
		now:             now,
	}
}

// ParsedSchedule is a request turned into a rule and the bounds it expands in.
type ParsedSchedule struct {
	Rule     recurrence.Rule
	Bounds   recurrence.Bounds
	Timezone string
}

// ParseRequest validates a schedule request. fallbackTimezone applies when the
// request names none.
func (b *MaintenanceScheduleBuilder) ParseRequest(request *domain.MaintenanceScheduleRequest, fallbackTimezone string) (*ParsedSchedule, error) {
	tz := request.Timezone
	if tz == "" {
		tz = fallbackTimezone
	}
	if tz == "" {
		tz = b.defaultTimezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return nil, customError.NewValidationError("timezone", "unknown timezone "+tz)
	}

	switch request.FrequencyType {
	case domain.FrequencyTypePattern:
		return b.parsePattern(request, tz, loc)
	case domain.FrequencyTypeExplicit:
		return b.parseExplicit(request, tz, loc)
	}
	return nil, customError.NewValidationError("frequency_type", "must be pattern or explicit")
}

func (b *MaintenanceScheduleBuilder) parsePattern(request *domain.MaintenanceScheduleRequest, tz string, loc *time.Location) (*ParsedSchedule, error) {
	if len(request.Occurrences) > 0 {
		return nil, customError.NewValidationError("occurrences", "pattern schedule takes no occurrences")
	}

	start, err := parseClockField("start_time", request.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClockField("end_time", request.EndTime)
	if err != nil {
		return nil, err
	}
	from, err := parseDateField("valid_from", request.ValidFrom, loc)
	if err != nil {
		return nil, err
	}
	till, err := parseDateField("valid_till", request.ValidTill, loc)
	if err != nil {
		return nil, err
	}

	rule := recurrence.Pattern{
		Frequency:  request.Frequency,
		DayOfMonth: request.DayOfMonth,
		Month:      request.Month,
		StepMonths: request.StepMonths,
		Weekdays:   request.Weekdays,
		StartTime:  start,
		EndTime:    end,
	}
	return &ParsedSchedule{
		Rule:     rule,
		Bounds:   recurrence.Bounds{From: from, Till: till, Location: loc},
		Timezone: tz,
	}, nil
}

func (b *MaintenanceScheduleBuilder) parseExplicit(request *domain.MaintenanceScheduleRequest, tz string, loc *time.Location) (*ParsedSchedule, error) {
	if request.Frequency != "" || len(request.Weekdays) > 0 || request.DayOfMonth != 0 || request.Month != 0 || request.StepMonths != 0 {
		return nil, customError.NewValidationError("frequency", "explicit schedule takes no pattern fields")
	}

	occurrences := make([]recurrence.Occurrence, 0, len(request.Occurrences))
	for _, o := range request.Occurrences {
		date, err := parseDateField("date", o.Date, loc)
		if err != nil {
			return nil, err
		}
		start, err := parseClockField("start_time", o.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseClockField("end_time", o.EndTime)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, recurrence.Occurrence{Date: date, StartTime: start, EndTime: end})
	}

	rule := recurrence.Explicit{Occurrences: occurrences}
	from, till := rule.Span()
	return &ParsedSchedule{
		Rule:     rule,
		Bounds:   recurrence.Bounds{From: from, Till: till, Location: loc},
		Timezone: tz,
	}, nil
}

// Preview expands a request without touching storage.
func (b *MaintenanceScheduleBuilder) Preview(request *domain.MaintenanceScheduleRequest) ([]recurrence.Slot, error) {
	parsed, err := b.ParseRequest(request, "")
	if err != nil {
		return nil, err
	}
	return recurrence.Expand(parsed.Rule, parsed.Bounds, b.now())
}

// ApplySchedule stores the rule on the program and replaces its slots with a
// fresh expansion, all in one transaction.
func (b *MaintenanceScheduleBuilder) ApplySchedule(ctx context.Context, programID uuid.UUID, request *domain.MaintenanceScheduleRequest) (*domain.MaintenanceScheduleResponse, error) {
	program, err := b.MaintenanceRepo.GetProgram(ctx, programID)
	if err != nil {
		return nil, lookupError(err, "maintenance program", programID)
	}

	parsed, err := b.ParseRequest(request, program.Timezone)
	if err != nil {
		return nil, err
	}

	// Rule fields are persisted as sent; the stored pattern is what regeneration reads back.
	program.FrequencyType = request.FrequencyType
	program.Frequency = ""
	program.Pattern = nil
	program.StartTime = ""
	program.EndTime = ""
	if p, ok := parsed.Rule.(recurrence.Pattern); ok {
		program.Frequency = p.Frequency
		program.Pattern = p.Encode()
		program.StartTime = p.StartTime.String()
		program.EndTime = p.EndTime.String()
	}
	program.ValidFrom = parsed.Bounds.From.UTC()
	program.ValidTill = parsed.Bounds.Till.UTC()
	program.Timezone = parsed.Timezone

	return b.replaceSlots(ctx, program, parsed)
}

// RegenerateSlots re-expands the stored pattern of a program. Explicit
// programs keep no rule to re-expand and must be re-sent.
func (b *MaintenanceScheduleBuilder) RegenerateSlots(ctx context.Context, programID uuid.UUID) (*domain.MaintenanceScheduleResponse, error) {
	program, err := b.MaintenanceRepo.GetProgram(ctx, programID)
	if err != nil {
		return nil, lookupError(err, "maintenance program", programID)
	}
	if program.FrequencyType != domain.FrequencyTypePattern {
		return nil, customError.NewValidationError("frequency_type", "only pattern programs can be regenerated")
	}

	loc, err := utils.LoadLocation(program.Timezone)
	if err != nil {
		return nil, customError.NewValidationError("timezone", "unknown timezone "+program.Timezone)
	}
	start, err := parseClockField("start_time", program.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClockField("end_time", program.EndTime)
	if err != nil {
		return nil, err
	}
	rule, err := recurrence.ParsePattern(program.Frequency, program.Pattern, start, end)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedSchedule{
		Rule:     rule,
		Bounds:   recurrence.Bounds{From: program.ValidFrom, Till: program.ValidTill, Location: loc},
		Timezone: program.Timezone,
	}
	return b.replaceSlots(ctx, program, parsed)
}

func (b *MaintenanceScheduleBuilder) replaceSlots(ctx context.Context, program *domain.MaintenanceProgram, parsed *ParsedSchedule) (*domain.MaintenanceScheduleResponse, error) {
	now := b.now()

	// 1. Expand before any write so an empty rule leaves the program untouched
	expanded, err := recurrence.Expand(parsed.Rule, parsed.Bounds, now)
	if err != nil {
		return nil, err
	}

	slots := make([]*domain.ScheduleSlot, 0, len(expanded))
	for _, s := range expanded {
		slots = append(slots, &domain.ScheduleSlot{
			ID:        uuid.New(),
			ProgramID: program.ID,
			StartAt:   s.StartAt,
			EndAt:     s.EndAt,
			CreatedAt: now,
		})
	}
	program.UpdatedAt = now

	// 2. Swap rule and slots atomically
	err = b.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := b.MaintenanceRepo.UpdateProgram(ctx, program); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := b.MaintenanceRepo.DeleteSlots(ctx, program.ID); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := b.MaintenanceRepo.CreateSlots(ctx, slots); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("maintenance schedule generated",
		zap.String("program_id", program.ID.String()),
		zap.String("frequency_type", string(program.FrequencyType)),
		zap.Int("slots", len(slots)),
	)
	return &domain.MaintenanceScheduleResponse{Program: program, Slots: slots}, nil
}

func parseClockField(field, value string) (utils.ClockTime, error) {
	if value == "" {
		return utils.ClockTime{}, customError.NewValidationError(field, "is required")
	}
	c, err := utils.ParseClock(value)
	if err != nil {
		return utils.ClockTime{}, customError.NewValidationError(field, err.Error())
	}
	return c, nil
}

func parseDateField(field, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, customError.NewValidationError(field, "is required")
	}
	t, err := utils.ParseDateIn(value, loc)
	if err != nil {
		return time.Time{}, customError.NewValidationError(field, "must be a date like 2006-01-02")
	}
	return t, nil
}
