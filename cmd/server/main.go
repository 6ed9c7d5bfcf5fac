package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/tenancy-engine/internal/bootstrap"
	"github.com/segyhp/tenancy-engine/internal/config"
	"github.com/segyhp/tenancy-engine/internal/handler"
	"github.com/segyhp/tenancy-engine/internal/reminder"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load configuration", zap.Error(err))
	}

	if err := bootstrap.InitLogger(cfg, "tenancy-server"); err != nil {
		zap.L().Fatal("failed to initialize logger", zap.Error(err))
	}
	log := logger.GetLogger()
	defer log.Sync()

	// Initialize database
	db, err := bootstrap.OpenDB(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := bootstrap.OpenRedis(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repositories and services
	repos := bootstrap.NewRepositories(db)
	services := bootstrap.NewServices(cfg, repos)

	scheduler := reminder.NewScheduler(
		repos.Reminders,
		reminder.LeaseOwners{LeaseRepo: repos.Leases},
		reminder.LogNotifier{Logger: log.Named("notifier")},
		reminder.WithLogger(log.Named("reminders")),
	)

	// Timers live in this process, so reminders are re-armed before serving
	recovered, err := scheduler.Recover(context.Background())
	if err != nil {
		log.Fatal("failed to recover reminders", zap.Error(err))
	}
	log.Info("reminders recovered", zap.Int("armed", recovered.Changed), zap.Int("scanned", recovered.Scanned))

	runner := bootstrap.NewRunner(cfg, redisClient, services, log.Named("jobs"))
	runner.Register(reminder.JobRecover, scheduler.Recover)

	router := handler.NewRouter(handler.Handlers{
		Health:    handler.NewHealthHandler(db, redisClient, scheduler, cfg.GetHealthTimeout()),
		Jobs:      handler.NewJobHandler(runner),
		Reminders: handler.NewReminderHandler(scheduler),
		Leases:    handler.NewLeaseHandler(services.Leases),
		Contracts: handler.NewContractHandler(services.Contracts),
		Programs:  handler.NewProgramHandler(services.Maintenance),
	})

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := scheduler.Shutdown(ctx); err != nil {
		log.Error("reminder scheduler did not drain", zap.Error(err))
	}

	log.Info("server exited")
}
