package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDeployCmd() *cobra.Command {
	var (
		types []string
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "deploy <file.xlsx>",
		Short: "Validate a workbook and upsert its valid records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			start := time.Now()
			batch, err := validateFile(cmd, app, args[0], types)
			if err != nil {
				return err
			}
			out := commandOutput{
				Command:    "deploy",
				BatchID:    batch.ID,
				Validation: &batch.Validation,
				DryRun:     !yes,
			}
			if !yes {
				out.DurationMS = time.Since(start).Milliseconds()
				return writeJSON(cmd.OutOrStdout(), out)
			}

			_, res, deployErr := app.ImportService.Deploy(cmd.Context(), batch.ID)
			out.Deploy = &res
			out.DurationMS = time.Since(start).Milliseconds()
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if deployErr != nil {
				return fmt.Errorf("deploy batch %s: %w", batch.ID, deployErr)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "types", nil, "Product types to import (ids or aliases, default all)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Write records (default prints the validation only)")
	return cmd
}
