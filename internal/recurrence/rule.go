package recurrence

import (
	"sort"
	"time"

	"github.com/segyhp/tenancy-engine/internal/domain"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

// Kind discriminates the Rule variants
type Kind string

const (
	KindPeriodic Kind = "periodic"
	KindPattern  Kind = "pattern"
	KindExplicit Kind = "explicit"
)

// Rule is a parsed, validated recurrence. Exactly one of Periodic, Pattern or
// Explicit backs it.
type Rule interface {
	Kind() Kind
	Validate() error
}

// Periodic repeats every StepMonths months from an anchor instant.
type Periodic struct {
	StepMonths int
}

func (Periodic) Kind() Kind { return KindPeriodic }

func (p Periodic) Validate() error {
	switch p.StepMonths {
	case 1, 3, 6, 12:
		return nil
	}
	return customError.NewValidationError("step_months", "must be one of 1, 3, 6, 12")
}

// Pattern repeats on calendar positions between the bounds, each occurrence
// spanning StartTime to EndTime on its day.
type Pattern struct {
	Frequency  domain.PatternFrequency
	DayOfMonth int
	Month      int
	StepMonths int
	// Weekdays are ISO numbers, 1 = Monday through 7 = Sunday.
	Weekdays  []int
	StartTime utils.ClockTime
	EndTime   utils.ClockTime
}

func (Pattern) Kind() Kind { return KindPattern }

func (p Pattern) Validate() error {
	if !p.StartTime.Before(p.EndTime) {
		return customError.NewValidationError("start_time", "must be before end_time")
	}

	switch p.Frequency {
	case domain.PatternDaily:
		if p.DayOfMonth != 0 || p.Month != 0 || len(p.Weekdays) > 0 {
			return customError.NewValidationError("frequency", "daily pattern takes no day, month or weekday")
		}
	case domain.PatternMonthly:
		if err := validDayOfMonth(p.DayOfMonth); err != nil {
			return err
		}
		if p.StepMonths < 1 || p.StepMonths > 6 {
			return customError.NewValidationError("step_months", "must be between 1 and 6")
		}
		if len(p.Weekdays) > 0 {
			return customError.NewValidationError("weekdays", "monthly pattern takes no weekdays")
		}
	case domain.PatternYearly:
		if err := validDayOfMonth(p.DayOfMonth); err != nil {
			return err
		}
		if p.Month < 1 || p.Month > 12 {
			return customError.NewValidationError("month", "must be between 1 and 12")
		}
		if len(p.Weekdays) > 0 {
			return customError.NewValidationError("weekdays", "yearly pattern takes no weekdays")
		}
	case domain.PatternWeekly:
		if len(p.Weekdays) == 0 {
			return customError.NewValidationError("weekdays", "weekly pattern needs at least one weekday")
		}
		for _, d := range p.Weekdays {
			if d < 1 || d > 7 {
				return customError.NewValidationError("weekdays", "weekday must be between 1 and 7")
			}
		}
		if p.DayOfMonth != 0 || p.Month != 0 {
			return customError.NewValidationError("frequency", "weekly pattern takes no day of month or month")
		}
	default:
		return customError.NewValidationError("frequency", "unknown pattern frequency "+string(p.Frequency))
	}

	// fields the encoding has no slot for under this frequency
	if p.StepMonths != 0 && p.Frequency != domain.PatternMonthly {
		return customError.NewValidationError("step_months", "only monthly patterns take a month step")
	}
	if p.Month != 0 && p.Frequency != domain.PatternYearly {
		return customError.NewValidationError("month", "only yearly patterns take a month")
	}
	return nil
}

func validDayOfMonth(day int) error {
	if day < 1 || day > 28 {
		return customError.NewValidationError("day_of_month", "must be between 1 and 28")
	}
	return nil
}

// Occurrence is one caller-supplied window of an explicit rule. Date is
// midnight of the calendar day in the caller's timezone.
type Occurrence struct {
	Date      time.Time
	StartTime utils.ClockTime
	EndTime   utils.ClockTime
}

// Explicit lists its occurrences directly.
type Explicit struct {
	Occurrences []Occurrence
}

func (Explicit) Kind() Kind { return KindExplicit }

func (e Explicit) Validate() error {
	if len(e.Occurrences) == 0 {
		return customError.NewValidationError("occurrences", "at least one occurrence is required")
	}
	for _, o := range e.Occurrences {
		if !o.StartTime.Before(o.EndTime) {
			return customError.NewValidationError("start_time", "must be before end_time")
		}
	}
	return nil
}

// Span returns the first and last occurrence dates.
func (e Explicit) Span() (from, till time.Time) {
	dates := make([]time.Time, 0, len(e.Occurrences))
	for _, o := range e.Occurrences {
		dates = append(dates, o.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return dates[0], dates[len(dates)-1]
}
