package report

import "campaign-import/internal/records"

// Skip reasons.
const (
	SkipUnknownSheet   = "unknown_sheet"
	SkipTypeNotAllowed = "type_not_allowed"
)

// SkippedSheet is a sheet that was not parsed.
type SkippedSheet struct {
	SheetName   string `json:"sheetName"`
	ProductType string `json:"productType,omitempty"`
	Reason      string `json:"reason"`
}

// ValidationResult is the pre-commit view of a batch.
type ValidationResult struct {
	Sheets         []records.SheetData `json:"sheets"`
	TotalRecords   int                 `json:"totalRecords"`
	ValidRecords   int                 `json:"validRecords"`
	InvalidRecords int                 `json:"invalidRecords"`
	SkippedSheets  []SkippedSheet      `json:"skippedSheets"`
	// Errors holds the first few invalid-row messages; OmittedErrors counts the rest.
	Errors        []string `json:"errors"`
	OmittedErrors int      `json:"omittedErrors"`
}

// SheetOutcome is what deploying one sheet produced.
type SheetOutcome struct {
	SheetName    string   `json:"sheetName"`
	ProductType  string   `json:"productType"`
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Errors       []string `json:"-"`
}

// ProgressTrace records one submission's progress recomputation.
type ProgressTrace struct {
	SubmissionID string `json:"submissionId"`
	ContentCount int    `json:"contentCount"`
	TargetCount  int    `json:"targetCount"`
	Percentage   int    `json:"percentage"`
	Status       string `json:"status,omitempty"`
	Skipped      bool   `json:"skipped,omitempty"`
	Note         string `json:"note,omitempty"`
	UpdateError  string `json:"updateError,omitempty"`
}

// DeployResult is the post-commit outcome of a batch.
type DeployResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	SuccessCount  int             `json:"successCount"`
	FailedCount   int             `json:"failedCount"`
	Errors        []string        `json:"errors"`
	OmittedErrors int             `json:"omittedErrors"`
	Sheets        []SheetOutcome  `json:"sheets"`
	ProgressDebug []ProgressTrace `json:"progressDebug"`
}
