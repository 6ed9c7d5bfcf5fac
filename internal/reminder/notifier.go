package reminder

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// Notifier delivers a due reminder. Failures are logged by the scheduler and
// never retried.
type Notifier interface {
	Notify(ctx context.Context, r *domain.Reminder) error
}

// LogNotifier records each firing in the log instead of contacting a channel.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r *domain.Reminder) error {
	n.Logger.Info("reminder fired",
		zap.String("reminder_id", r.ID.String()),
		zap.String("owner_id", r.OwnerID.String()),
		zap.String("channel", string(r.Channel)),
		zap.Time("fire_at", r.FireAt),
		zap.ByteString("payload", r.Payload),
	)
	return nil
}

// OwnerLookup reads the lifecycle stage of a reminder's owner.
type OwnerLookup interface {
	OwnerStatus(ctx context.Context, ownerID uuid.UUID) (domain.Status, error)
}

// LeaseOwners resolves owners as leases.
type LeaseOwners struct {
	LeaseRepo repository.LeaseRepository
}

func (o LeaseOwners) OwnerStatus(ctx context.Context, ownerID uuid.UUID) (domain.Status, error) {
	lease, err := o.LeaseRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", customError.WrapNotFound("owner", ownerID.String())
		}
		return "", customError.WrapDatabaseError(err)
	}
	return lease.CurrentStatus(), nil
}
