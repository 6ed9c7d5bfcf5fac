package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/segyhp/tenancy-engine/internal/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tenancyctl",
		Short:         "Run tenancy batch jobs on demand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		commands.ScanExpiryCmd(),
		commands.MaterializeRenewalsCmd(),
		commands.RecoverRemindersCmd(),
		commands.PreviewPatternCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
