package recurrence

import (
	"fmt"
	"sort"
	"time"

	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

// Slot is one concrete occurrence, as UTC instants.
type Slot struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// Bounds frames an expansion. For Periodic rules From is the anchor instant and
// Till the effective end; for Pattern rules both are calendar dates in Location
// and Till is inclusive. Explicit rules ignore From/Till.
type Bounds struct {
	From     time.Time
	Till     time.Time
	Location *time.Location
}

func (b Bounds) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// Expand produces the ordered slots of rule within bounds. Pattern slots not
// strictly after horizon are dropped. An expansion yielding nothing is an
// error, never an empty result.
func Expand(rule Rule, bounds Bounds, horizon time.Time) ([]Slot, error) {
	if rule == nil {
		return nil, customError.NewValidationError("rule", "recurrence rule is required")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var (
		slots []Slot
		err   error
	)
	switch r := rule.(type) {
	case Periodic:
		slots, err = expandPeriodic(r, bounds)
	case Pattern:
		slots, err = expandPattern(r, bounds, horizon.UTC())
	case Explicit:
		slots, err = expandExplicit(r, bounds, horizon.UTC())
	default:
		return nil, customError.NewValidationError("rule", fmt.Sprintf("unsupported rule kind %q", rule.Kind()))
	}
	if err != nil {
		return nil, err
	}

	if len(slots) == 0 {
		return nil, customError.WrapNoSlots(string(rule.Kind()))
	}
	return slots, nil
}

// expandPeriodic emits one slot per whole period between the anchor and the
// end: slot i covers [anchor+i*step, anchor+(i+1)*step) and the last period
// never runs past Till.
func expandPeriodic(r Periodic, b Bounds) ([]Slot, error) {
	if b.From.IsZero() || !b.From.Before(b.Till) {
		return nil, customError.NewValidationError("valid_from", "must be before the end date")
	}

	var slots []Slot
	for i := 0; ; i++ {
		start := utils.AddMonths(b.From, i*r.StepMonths)
		end := utils.AddMonths(b.From, (i+1)*r.StepMonths)
		if end.After(b.Till) {
			break
		}
		slots = append(slots, Slot{StartAt: start.UTC(), EndAt: end.UTC()})
	}
	return slots, nil
}

func expandPattern(r Pattern, b Bounds, horizon time.Time) ([]Slot, error) {
	loc := b.location()
	from := utils.StartOfDay(b.From, loc)
	till := utils.StartOfDay(b.Till, loc)
	if !from.Before(till) {
		return nil, customError.NewValidationError("valid_from", "must be before valid_till")
	}

	sched, err := r.schedule()
	if err != nil {
		return nil, customError.NewValidationError("pattern", err.Error())
	}

	var slots []Slot
	for day := sched.Next(from.Add(-time.Second)); !day.IsZero() && !day.After(till); day = sched.Next(day) {
		start := r.StartTime.At(day, loc)
		if !start.After(horizon) {
			continue
		}
		slots = append(slots, Slot{StartAt: start, EndAt: r.EndTime.At(day, loc)})
	}
	return slots, nil
}

func expandExplicit(r Explicit, b Bounds, horizon time.Time) ([]Slot, error) {
	loc := b.location()
	today := utils.StartOfDay(horizon, loc)

	slots := make([]Slot, 0, len(r.Occurrences))
	for _, o := range r.Occurrences {
		date := utils.StartOfDay(o.Date, loc)
		if date.Before(today) {
			return nil, customError.NewValidationError("date", date.Format(utils.DateLayout)+" is in the past")
		}
		slots = append(slots, Slot{StartAt: o.StartTime.At(date, loc), EndAt: o.EndTime.At(date, loc)})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt.Before(slots[j].StartAt) })
	for i := 1; i < len(slots); i++ {
		if !slots[i].StartAt.After(slots[i-1].StartAt) {
			return nil, customError.NewValidationError("occurrences", "two occurrences start at the same instant")
		}
	}
	return slots, nil
}
