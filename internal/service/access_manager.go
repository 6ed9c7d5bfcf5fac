package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/repository"
	customError "github.com/segyhp/tenancy-engine/pkg/errors"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

// AccessManager grants and withdraws a resident's login.
type AccessManager interface {
	ProvisionLogin(ctx context.Context, tenantID uuid.UUID) error
	RevokeLogin(ctx context.Context, tenantID uuid.UUID) error
}

type accessManager struct {
	accessRepo repository.AccessRepository
}

func NewAccessManager(accessRepo repository.AccessRepository) AccessManager {
	return &accessManager{accessRepo: accessRepo}
}

func (a *accessManager) ProvisionLogin(ctx context.Context, tenantID uuid.UUID) error {
	if err := a.accessRepo.SetLoginEnabled(ctx, tenantID, true); err != nil {
		return customError.WrapDatabaseError(err)
	}
	logger.FromContext(ctx).Info("tenant login provisioned", zap.String("tenant_id", tenantID.String()))
	return nil
}

func (a *accessManager) RevokeLogin(ctx context.Context, tenantID uuid.UUID) error {
	if err := a.accessRepo.SetLoginEnabled(ctx, tenantID, false); err != nil {
		return customError.WrapDatabaseError(err)
	}
	logger.FromContext(ctx).Info("tenant login revoked", zap.String("tenant_id", tenantID.String()))
	return nil
}
