package submissions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"campaign-import/internal/records"
	"campaign-import/internal/shared/telemetry"
)

// Resolver attaches canonical submission ids to parsed records.
type Resolver struct {
	Directory Directory
	// Timeout bounds the single lookup call. Zero means no extra bound.
	Timeout time.Duration
}

// Resolve looks up the distinct submission numbers of all valid records
// across sheets in one call. Unknown numbers and company mismatches
// invalidate the record; already-invalid records are left untouched. The
// input sheets are not modified.
func (r *Resolver) Resolve(ctx context.Context, sheets []records.SheetData) ([]records.SheetData, error) {
	out := make([]records.SheetData, len(sheets))
	for i := range sheets {
		out[i] = sheets[i].Clone()
	}

	numbers := distinctValidNumbers(out)
	if len(numbers) == 0 {
		for i := range out {
			out[i].Recount()
		}
		return out, nil
	}

	lookupCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	found, err := r.Directory.LookupByNumbers(lookupCtx, numbers)
	if err != nil {
		telemetry.Error("resolve.lookup_failed", map[string]any{
			"numbers": len(numbers),
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	byNumber := make(map[string]Submission, len(found))
	for _, s := range found {
		if _, dup := byNumber[s.SubmissionNumber]; !dup {
			byNumber[s.SubmissionNumber] = s
		}
	}

	var notFound, mismatched int
	for i := range out {
		for j := range out[i].Records {
			rec := &out[i].Records[j]
			if !rec.IsValid {
				continue
			}
			sub, ok := byNumber[rec.SubmissionNumber]
			if !ok {
				rec.Invalidate("submission not found")
				notFound++
				continue
			}
			if rec.CompanyName != "" && !SameCompany(rec.CompanyName, sub.CompanyName) {
				rec.Invalidate(fmt.Sprintf("company name mismatch: entered %q, registered %q", rec.CompanyName, sub.CompanyName))
				mismatched++
				continue
			}
			rec.SubmissionID = sub.ID
		}
		out[i].Recount()
	}

	telemetry.Info("resolve.done", map[string]any{
		"numbers":    len(numbers),
		"found":      len(byNumber),
		"not_found":  notFound,
		"mismatched": mismatched,
	})
	return out, nil
}

// SameCompany compares company names ignoring case and surrounding or repeated whitespace.
func SameCompany(entered, registered string) bool {
	return strings.EqualFold(collapseSpaces(entered), collapseSpaces(registered))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func distinctValidNumbers(sheets []records.SheetData) []string {
	seen := make(map[string]struct{})
	for _, sd := range sheets {
		for _, rec := range sd.Records {
			if rec.IsValid && rec.SubmissionNumber != "" {
				seen[rec.SubmissionNumber] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
