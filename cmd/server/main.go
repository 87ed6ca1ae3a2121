package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// rootCmd runs the broker when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "serviceconf",
	Short: "Configuration broker for the secondlock service fleet",
	Long: `serviceconf stores configuration entries for the fleet, resolves
reads through stored entries, factory defaults and environment variables,
and aggregates the feature lists published by every registered service.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runServe,
}

func stderrLogger(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
}

func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(stderrLogger)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set maxprocs: %v\n", err)
	}
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.8),
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set memory limit: %v\n", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newSeedCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
