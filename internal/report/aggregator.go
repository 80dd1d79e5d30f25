package report

import (
	"fmt"

	"campaign-import/internal/records"
)

// DefaultMaxErrors is how many error strings a result shows.
const DefaultMaxErrors = 5

// Aggregator folds stage outputs into results. It is the only place batch
// totals are computed.
type Aggregator struct {
	MaxErrors int
}

// Validation sums sheet counts and collects the first invalid-row messages.
func (a Aggregator) Validation(sheets []records.SheetData, skipped []SkippedSheet) ValidationResult {
	res := ValidationResult{
		Sheets:        sheets,
		SkippedSheets: skipped,
		Errors:        []string{},
	}
	if res.Sheets == nil {
		res.Sheets = []records.SheetData{}
	}
	if res.SkippedSheets == nil {
		res.SkippedSheets = []SkippedSheet{}
	}

	var all []string
	for _, sd := range sheets {
		res.TotalRecords += len(sd.Records)
		res.ValidRecords += sd.ValidCount
		res.InvalidRecords += sd.InvalidCount
		for _, rec := range sd.Records {
			if !rec.IsValid {
				all = append(all, fmt.Sprintf("%s row %d: %s", sd.SheetName, rec.Row, rec.ErrorMessage))
			}
		}
	}
	res.Errors, res.OmittedErrors = a.capErrors(all)
	return res
}

// Deployment sums per-sheet outcomes. batchErr marks the run as aborted;
// counts gathered before the abort are kept.
func (a Aggregator) Deployment(outcomes []SheetOutcome, trace []ProgressTrace, batchErr error) DeployResult {
	res := DeployResult{
		Sheets:        outcomes,
		ProgressDebug: trace,
	}
	if res.Sheets == nil {
		res.Sheets = []SheetOutcome{}
	}
	if res.ProgressDebug == nil {
		res.ProgressDebug = []ProgressTrace{}
	}

	var all []string
	for _, o := range outcomes {
		res.SuccessCount += o.SuccessCount
		res.FailedCount += o.FailedCount
		all = append(all, o.Errors...)
	}
	res.Errors, res.OmittedErrors = a.capErrors(all)
	// Failures without a message still count toward the omitted total.
	if hidden := res.FailedCount - len(res.Errors) - res.OmittedErrors; hidden > 0 {
		res.OmittedErrors += hidden
	}

	switch {
	case batchErr != nil:
		res.Success = false
		res.Message = fmt.Sprintf("deployment aborted after %d records: %v", res.SuccessCount+res.FailedCount, batchErr)
	case res.SuccessCount == 0 && res.FailedCount == 0:
		res.Success = true
		res.Message = "no deployable records"
	case res.FailedCount > 0:
		res.Success = true
		res.Message = fmt.Sprintf("deployed %d records, %d failed", res.SuccessCount, res.FailedCount)
	default:
		res.Success = true
		res.Message = fmt.Sprintf("deployed %d records", res.SuccessCount)
	}
	return res
}

// RecordError formats a per-record deployment failure so it can be located:
// sheet, row and the leading characters of the submission id.
func RecordError(sheet string, row int, submissionID string, err error) string {
	return fmt.Sprintf("%s row %d (submission %s): %v", sheet, row, shortID(submissionID), err)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func (a Aggregator) capErrors(all []string) ([]string, int) {
	limit := a.MaxErrors
	if limit <= 0 {
		limit = DefaultMaxErrors
	}
	if len(all) <= limit {
		if all == nil {
			return []string{}, 0
		}
		return all, 0
	}
	shown := make([]string, limit)
	copy(shown, all[:limit])
	return shown, len(all) - limit
}
