package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/segyhp/tenancy-engine/internal/bootstrap"
	"github.com/segyhp/tenancy-engine/internal/config"
	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/logger"
)

func ScanExpiryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-expiry",
		Short: "Expire leases and contracts whose grace period has elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocalJob(cmd.Context(), cmd.OutOrStdout(), service.JobExpiryScan)
		},
	}
}

func MaterializeRenewalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materialize-renewals",
		Short: "Turn approved renewals that are due into successor contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocalJob(cmd.Context(), cmd.OutOrStdout(), service.JobRenewals)
		},
	}
}

// runLocalJob runs a database batch job in this process, under the same run
// lock the cron process takes.
func runLocalJob(ctx context.Context, out io.Writer, name string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := bootstrap.InitLogger(cfg, "tenancyctl"); err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := bootstrap.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	services := bootstrap.NewServices(cfg, bootstrap.NewRepositories(db))
	runner := bootstrap.NewRunner(cfg, redisClient, services, log)

	result, err := runner.Run(ctx, name)
	if err != nil {
		return err
	}
	printResult(out, result)
	return nil
}

func printResult(out io.Writer, r *domain.BatchResult) {
	fmt.Fprintf(out, "%s: scanned=%d changed=%d skipped=%d failed=%d (%s)\n",
		r.Job, r.Scanned, r.Changed, r.Skipped, r.Failed, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}
