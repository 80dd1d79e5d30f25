package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"campaign-import/internal/bootstrap"
	"campaign-import/internal/imports"
)

func newValidateCmd() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "validate <file.xlsx>",
		Short: "Parse and resolve a workbook without writing content",
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
			return writeJSON(cmd.OutOrStdout(), commandOutput{
				Command:    "validate",
				DurationMS: time.Since(start).Milliseconds(),
				BatchID:    batch.ID,
				Validation: &batch.Validation,
			})
		},
	}

	cmd.Flags().StringSliceVar(&types, "types", nil, "Product types to import (ids or aliases, default all)")
	return cmd
}

func validateFile(cmd *cobra.Command, app *bootstrap.App, path string, types []string) (imports.Batch, error) {
	allowed, err := app.Registry.ParseTypes(types)
	if err != nil {
		return imports.Batch{}, fmt.Errorf("invalid --types: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return imports.Batch{}, err
	}
	defer f.Close()

	return app.ImportService.ValidateWorkbook(cmd.Context(), filepath.Base(path), f, allowed)
}
