// Package bootstrap wires configuration into the stores, services and batch
// jobs shared by the server, the cron process and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/cache"
	"github.com/segyhp/tenancy-engine/internal/config"
	"github.com/segyhp/tenancy-engine/internal/jobs"
	"github.com/segyhp/tenancy-engine/internal/repository"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

func InitLogger(cfg *config.Config, serviceName string) error {
	return logger.InitLogger(logConfig(cfg, serviceName))
}

// logConfig forces JSON output in production whatever LOG_FORMAT says.
func logConfig(cfg *config.Config, serviceName string) *logger.LogConfig {
	format := cfg.Logging.Format
	if cfg.IsProduction() {
		format = "json"
	}
	return &logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      format,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	}
}

func OpenDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

// OpenRedis returns nil when redis is disabled.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// Repositories groups the Postgres stores.
type Repositories struct {
	Leases      repository.LeaseRepository
	Contracts   repository.ContractRepository
	Renewals    repository.RenewalRepository
	Payments    repository.PaymentRepository
	Maintenance repository.MaintenanceRepository
	Reminders   repository.ReminderRepository
	Access      repository.AccessRepository
	Tx          repository.Transactor
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Leases:      repository.NewLeaseRepository(db),
		Contracts:   repository.NewContractRepository(db),
		Renewals:    repository.NewRenewalRepository(db),
		Payments:    repository.NewPaymentRepository(db),
		Maintenance: repository.NewMaintenanceRepository(db),
		Reminders:   repository.NewReminderRepository(db),
		Access:      repository.NewAccessRepository(db),
		Tx:          repository.NewTransactor(db),
	}
}

// Services groups the domain services built over one set of repositories.
type Services struct {
	Leases      *service.LeaseService
	Contracts   *service.ContractService
	Maintenance *service.MaintenanceScheduleBuilder
	Expiry      *service.ExpiryScanner
	Renewals    *service.RenewalMaterializer
}

func NewServices(cfg *config.Config, repos *Repositories) *Services {
	access := service.NewAccessManager(repos.Access)
	return &Services{
		Leases:      service.NewLeaseService(repos.Leases, repos.Tx, access, nil),
		Contracts:   service.NewContractService(repos.Contracts, repos.Renewals, repos.Payments, repos.Tx, access, nil),
		Maintenance: service.NewMaintenanceScheduleBuilder(repos.Maintenance, repos.Tx, cfg.Scheduler.Timezone, nil),
		Expiry:      service.NewExpiryScanner(repos.Leases, repos.Contracts, repos.Tx, access, nil),
		Renewals:    service.NewRenewalMaterializer(repos.Contracts, repos.Renewals, repos.Payments, repos.Tx, cfg.GetRenewalWindow(), nil),
	}
}

// NewRunner registers the database batch jobs behind a run lock. A nil redis
// client runs them unlocked.
func NewRunner(cfg *config.Config, redisClient *redis.Client, services *Services, log *zap.Logger) *jobs.Runner {
	runner := jobs.NewRunner(cache.NewRedisLocker(redisClient), cfg.GetJobLockTTL(), log)
	runner.Register(service.JobExpiryScan, services.Expiry.Run)
	runner.Register(service.JobRenewals, services.Renewals.Run)
	return runner
}
