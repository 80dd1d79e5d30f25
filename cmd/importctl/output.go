package main

import (
	"encoding/json"
	"io"

	"campaign-import/internal/report"
)

type commandOutput struct {
	Command    string                   `json:"command"`
	DurationMS int64                    `json:"duration_ms"`
	BatchID    string                   `json:"batchId,omitempty"`
	Validation *report.ValidationResult `json:"validation,omitempty"`
	Deploy     *report.DeployResult     `json:"deploy,omitempty"`
	DryRun     bool                     `json:"dryRun,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
