package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/tenancy-engine/internal/domain"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

// Positions in the persisted 7-field encoding
// [sec, min, hour, day-of-month, month, weekday, year].
const (
	fieldSecond = iota
	fieldMinute
	fieldHour
	fieldDayOfMonth
	fieldMonth
	fieldWeekday
	fieldYear
	fieldCount
)

// Time of day travels in StartTime/EndTime, so only midnight is walked.
var dayParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Encode renders the pattern as the persisted 7-field array.
func (p Pattern) Encode() []string {
	fields := []string{"0", "0", "0", "?", "*", "*", "*"}
	switch p.Frequency {
	case domain.PatternMonthly:
		fields[fieldDayOfMonth] = strconv.Itoa(p.DayOfMonth)
		fields[fieldMonth] = fmt.Sprintf("1/%d", p.StepMonths)
		fields[fieldWeekday] = "?"
	case domain.PatternYearly:
		fields[fieldDayOfMonth] = strconv.Itoa(p.DayOfMonth)
		fields[fieldMonth] = strconv.Itoa(p.Month)
		fields[fieldWeekday] = "?"
	case domain.PatternWeekly:
		days := make([]string, 0, len(p.Weekdays))
		for _, d := range p.Weekdays {
			days = append(days, strconv.Itoa(d))
		}
		fields[fieldWeekday] = strings.Join(days, ",")
	}
	return fields
}

// ParsePattern decodes a persisted 7-field array for the declared frequency.
// The field layout must match the frequency exactly; the result is validated.
func ParsePattern(freq domain.PatternFrequency, fields []string, start, end utils.ClockTime) (Pattern, error) {
	p := Pattern{Frequency: freq, StartTime: start, EndTime: end}

	if len(fields) != fieldCount {
		return p, customError.NewValidationError("pattern", fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)))
	}
	for _, i := range []int{fieldSecond, fieldMinute, fieldHour} {
		if fields[i] != "0" {
			return p, customError.NewValidationError("pattern", "second, minute and hour fields must be 0")
		}
	}
	if fields[fieldYear] != "*" {
		return p, customError.NewValidationError("pattern", "year field must be *")
	}

	dom, month, weekday := fields[fieldDayOfMonth], fields[fieldMonth], fields[fieldWeekday]
	var err error

	switch freq {
	case domain.PatternDaily:
		if dom != "?" || month != "*" || weekday != "*" {
			return p, customError.NewValidationError("pattern", "daily pattern must be [0 0 0 ? * * *]")
		}
	case domain.PatternMonthly:
		if p.DayOfMonth, err = parseBounded(dom, "day_of_month", 1, 28); err != nil {
			return p, err
		}
		step, ok := strings.CutPrefix(month, "1/")
		if !ok {
			return p, customError.NewValidationError("step_months", "monthly pattern month field must be 1/N")
		}
		if p.StepMonths, err = parseBounded(step, "step_months", 1, 6); err != nil {
			return p, err
		}
		if weekday != "?" {
			return p, customError.NewValidationError("weekdays", "monthly pattern weekday field must be ?")
		}
	case domain.PatternYearly:
		if p.DayOfMonth, err = parseBounded(dom, "day_of_month", 1, 28); err != nil {
			return p, err
		}
		if p.Month, err = parseBounded(month, "month", 1, 12); err != nil {
			return p, err
		}
		if weekday != "?" {
			return p, customError.NewValidationError("weekdays", "yearly pattern weekday field must be ?")
		}
	case domain.PatternWeekly:
		if dom != "?" || month != "*" {
			return p, customError.NewValidationError("pattern", "weekly pattern must be [0 0 0 ? * days *]")
		}
		if p.Weekdays, err = parseWeekdays(weekday); err != nil {
			return p, err
		}
	default:
		return p, customError.NewValidationError("frequency", "unknown pattern frequency "+string(freq))
	}

	return p, p.Validate()
}

func parseBounded(value, field string, min, max int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < min || n > max {
		return 0, customError.NewValidationError(field, fmt.Sprintf("must be an integer between %d and %d", min, max))
	}
	return n, nil
}

func parseWeekdays(value string) ([]int, error) {
	if value == "" || value == "?" || value == "*" {
		return nil, customError.NewValidationError("weekdays", "weekly pattern needs at least one weekday")
	}
	seen := make(map[int]bool)
	var days []int
	for _, part := range strings.Split(value, ",") {
		d, err := parseBounded(strings.TrimSpace(part), "weekdays", 1, 7)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days, nil
}

// schedule converts the pattern to a robfig schedule firing at midnight of
// every matching day. ISO weekday 7 (Sunday) maps to cron's 0.
func (p Pattern) schedule() (cron.Schedule, error) {
	fields := p.Encode()
	if p.Frequency == domain.PatternWeekly {
		days := make([]string, 0, len(p.Weekdays))
		for _, d := range p.Weekdays {
			days = append(days, strconv.Itoa(d%7))
		}
		fields[fieldWeekday] = strings.Join(days, ",")
	}
	return dayParser.Parse(strings.Join(fields[:fieldYear], " "))
}
