package main

import (
	"github.com/spf13/cobra"

	"campaign-import/internal/bootstrap"
	"campaign-import/internal/shared/config"
	"campaign-import/internal/shared/storage/db"
	"campaign-import/internal/shared/telemetry"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Validate and deploy campaign content workbooks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newValidateCmd(), newDeployCmd())
	return cmd
}

func buildApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	telemetry.Configure(cmd.ErrOrStderr(), cfg.LogLevel)

	opts := db.OptionsFromEnv(db.DefaultCLIOptions())
	return bootstrap.Build(cmd.Context(), cfg, bootstrap.Options{
		DBOptions:  &opts,
		SkipRouter: true,
	})
}
