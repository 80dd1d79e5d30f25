package deploy

import (
	"context"

	"github.com/shopspring/decimal"

	"campaign-import/internal/catalog"
	"campaign-import/internal/report"
	"campaign-import/internal/shared/telemetry"
	"campaign-import/internal/submissions"
)

type affectedSubmission struct {
	id          string
	productType catalog.ProductType
	binding     catalog.Binding
}

var hundred = decimal.NewFromInt(100)

// ProgressPercent is round(100*count/target) clamped to [0, 100]. ok is false
// when target is not positive.
func ProgressPercent(count, target int) (int, bool) {
	if target <= 0 {
		return 0, false
	}
	pct := decimal.NewFromInt(int64(count)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(target))).
		Round(0).
		IntPart()
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	return int(pct), true
}

// recomputeProgress updates each affected submission. Failures are recorded
// in the trace and never abort the deployment, which has already committed.
func (e *Engine) recomputeProgress(ctx context.Context, affected []affectedSubmission) []report.ProgressTrace {
	trace := make([]report.ProgressTrace, 0, len(affected))
	for _, a := range affected {
		t := report.ProgressTrace{SubmissionID: a.id}
		e.recomputeOne(ctx, a, &t)
		if t.UpdateError != "" {
			telemetry.Warn("deploy.progress_failed", map[string]any{
				"submission_id": a.id,
				"error":         t.UpdateError,
			})
		}
		trace = append(trace, t)
	}
	return trace
}

func (e *Engine) recomputeOne(ctx context.Context, a affectedSubmission, t *report.ProgressTrace) {
	callCtx, cancel := e.storageContext(ctx)
	sub, err := e.Submissions.GetByID(callCtx, a.id)
	cancel()
	if err != nil {
		t.UpdateError = "load submission: " + err.Error()
		return
	}
	t.TargetCount = sub.TargetCount

	callCtx, cancel = e.storageContext(ctx)
	count, err := e.Content.CountContent(callCtx, a.binding, a.id)
	cancel()
	if err != nil {
		t.UpdateError = "count content: " + err.Error()
		return
	}
	t.ContentCount = count

	pct, ok := ProgressPercent(count, sub.TargetCount)
	if !ok {
		t.Skipped = true
		t.Note = "target count is not set; progress not recomputed"
		return
	}
	t.Percentage = pct

	var status string
	if spec, found := e.Registry.Spec(a.productType); found && spec.StatusRule != nil {
		if s, changed := spec.StatusRule(pct); changed {
			status = s
		}
	}
	t.Status = status
	if status == "" {
		t.Status = sub.Status
	}

	callCtx, cancel = e.storageContext(ctx)
	defer cancel()
	err = e.Submissions.UpdateProgress(callCtx, submissions.ProgressUpdate{
		SubmissionID:    a.id,
		ContentCount:    count,
		ProgressPercent: pct,
		Status:          status,
	})
	if err != nil {
		t.UpdateError = "update progress: " + err.Error()
	}
}
