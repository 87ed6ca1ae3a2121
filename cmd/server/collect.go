package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/registry"
)

func newCollectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Aggregate the fleet feature list once and print it",
		Long: `collect asks the service registry for every registered service,
fetches each one's /internal descriptor and prints the merged feature
list. Unreachable services are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json|yaml)")
	return cmd
}

func runCollect(cmd *cobra.Command, output string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	featureCache, stopCache := newFeatureCache(cfg, nil)
	defer stopCache()

	collector := newFeatureCollector(cfg, registry.New(cfg.Registry.URI, cfg.Registry.Timeout), featureCache)

	features, err := collector.CollectAll(ctx)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), output, features)
}
