package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Persist factory settings that have no stored entry yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table|json|yaml)")
	return cmd
}

func runSeed(cmd *cobra.Command, output string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	configService, defaults, err := newConfigService(cfg, db)
	if err != nil {
		return err
	}

	result, err := seedFactorySettings(ctx, defaults, configService)
	if result != nil {
		if werr := writeOutput(cmd.OutOrStdout(), output, result); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
