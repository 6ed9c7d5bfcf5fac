// Package lifecycle holds the time rules shared by leases and flat contracts:
// grace-adjusted expiry and the allowed stage changes. Everything here is a
// pure function of its inputs and an explicit "now".
package lifecycle

import (
	"time"

	"github.com/segyhp/tenancy-engine/internal/domain"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

// Subject is anything with a nominal end, a grace period and a readable stage.
// Lease reads its stage from the status log, FlatContract from its validity flag.
type Subject interface {
	NominalEnd() time.Time
	GraceMonths() int
	CurrentStatus() domain.Status
}

// NowFunc supplies the current instant.
type NowFunc func() time.Time

// SystemNow is the wall clock in UTC.
func SystemNow() time.Time {
	return time.Now().UTC()
}

// EffectiveEndDate is the end date pushed out by grace whole months.
func EffectiveEndDate(end time.Time, grace int) time.Time {
	if grace < 0 {
		grace = 0
	}
	return utils.AddMonths(end, grace)
}

// PastEffectiveEnd reports whether now is strictly after the grace-adjusted end.
func PastEffectiveEnd(s Subject, now time.Time) bool {
	return now.UTC().After(EffectiveEndDate(s.NominalEnd(), s.GraceMonths()).UTC())
}

// IsExpired is the derived expiry read: past the effective end, or already in
// a terminal stage.
func IsExpired(s Subject, now time.Time) bool {
	return PastEffectiveEnd(s, now) || s.CurrentStatus().IsTerminal()
}

// DueForExpiry reports whether the scanner should move s to Expired: it must
// still be Active and past its effective end.
func DueForExpiry(s Subject, now time.Time) bool {
	return s.CurrentStatus() == domain.StatusActive && PastEffectiveEnd(s, now)
}

// Action is an explicit, caller-initiated operation on a lease or contract
type Action string

const (
	ActionEdit      Action = "edit"
	ActionCancel    Action = "cancel"
	ActionApprove   Action = "approve"
	ActionTerminate Action = "terminate"
	// ActionExpire is only taken by the expiry scanner.
	ActionExpire Action = "expire"
)

var allowedFrom = map[Action]domain.Status{
	ActionEdit:      domain.StatusDraft,
	ActionCancel:    domain.StatusDraft,
	ActionApprove:   domain.StatusDraft,
	ActionTerminate: domain.StatusActive,
	ActionExpire:    domain.StatusActive,
}

var resultingStatus = map[Action]domain.Status{
	ActionEdit:      domain.StatusDraft,
	ActionCancel:    domain.StatusCancelled,
	ActionApprove:   domain.StatusActive,
	ActionTerminate: domain.StatusTerminated,
	ActionExpire:    domain.StatusExpired,
}

// CheckAction returns a conflict error unless action may be taken on an
// entity currently in stage current.
func CheckAction(entity string, current domain.Status, action Action) error {
	from, ok := allowedFrom[action]
	if !ok {
		return customError.NewValidationError("action", "unknown action "+string(action))
	}
	if current != from {
		return customError.WrapInvalidTransition(entity, current.String())
	}
	return nil
}

// Next returns the stage an action leads to.
func Next(action Action) domain.Status {
	return resultingStatus[action]
}
