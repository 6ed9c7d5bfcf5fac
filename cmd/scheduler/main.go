package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/bootstrap"
	"github.com/segyhp/tenancy-engine/internal/config"
	"github.com/segyhp/tenancy-engine/internal/jobs"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load configuration", zap.Error(err))
	}

	if err := bootstrap.InitLogger(cfg, "tenancy-scheduler"); err != nil {
		zap.L().Fatal("failed to initialize logger", zap.Error(err))
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := bootstrap.OpenDB(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := bootstrap.OpenRedis(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	services := bootstrap.NewServices(cfg, bootstrap.NewRepositories(db))
	runner := bootstrap.NewRunner(cfg, redisClient, services, log.Named("jobs"))

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetLocation()), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	// Schedule tasks
	setupCronJobs(c, cfg, runner, log)

	// Start the scheduler
	c.Start()
	log.Info("scheduler started", zap.Strings("jobs", runner.Names()))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, runner *jobs.Runner, log *zap.Logger) {
	specs := map[string]string{
		service.JobExpiryScan: cfg.Scheduler.ExpiryCron,
		service.JobRenewals:   cfg.Scheduler.RenewalCron,
	}

	for name, spec := range specs {
		name := name // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		_, err := c.AddFunc(spec, func() {
			// outcomes are logged and counted by the runner
			_, _ = runner.Run(context.Background(), name)
		})
		if err != nil {
			log.Fatal("error scheduling job", zap.String("job", name), zap.String("spec", spec), zap.Error(err))
		}
		log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	}
}
