package deploy

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"golang.org/x/sync/errgroup"

	"campaign-import/internal/catalog"
	"campaign-import/internal/content"
	"campaign-import/internal/records"
	"campaign-import/internal/report"
	"campaign-import/internal/shared/lock"
	"campaign-import/internal/shared/metrics"
	"campaign-import/internal/shared/telemetry"
	"campaign-import/internal/submissions"
)

// ErrAborted wraps the batch-level failure that stopped a deployment.
var ErrAborted = errors.New("deployment aborted")

const abortedProgressTimeout = 10 * time.Second

// ProgressStore reads targets and writes recomputed progress.
type ProgressStore interface {
	GetByID(ctx context.Context, id string) (submissions.Submission, error)
	UpdateProgress(ctx context.Context, update submissions.ProgressUpdate) error
}

// Engine upserts resolved records and recomputes submission progress.
type Engine struct {
	Registry    *catalog.Registry
	Content     content.Repo
	Submissions ProgressStore
	Locker      lock.Locker
	Aggregator  report.Aggregator

	// StorageTimeout bounds each storage call. Zero means no extra bound.
	StorageTimeout time.Duration
	// Concurrency is the number of writers per product type group.
	Concurrency int
}

type job struct {
	sheet   int
	rec     records.ParsedRecord
	binding catalog.Binding
	row     content.Record
	key     string
}

type result struct {
	done    bool
	created bool
	err     error
}

// Deploy upserts every valid, resolved record of vr. Per-record failures are
// reported in the result; a storage outage, timeout or cancelled context
// aborts the run and is returned as an error alongside the partial result.
func (e *Engine) Deploy(ctx context.Context, vr report.ValidationResult) (report.DeployResult, error) {
	start := time.Now()
	defer metrics.ObserveStage("deploy", start)

	outcomes := make([]report.SheetOutcome, len(vr.Sheets))
	for i, sd := range vr.Sheets {
		outcomes[i] = report.SheetOutcome{SheetName: sd.SheetName, ProductType: string(sd.ProductType)}
	}

	groups, rejected := e.plan(vr.Sheets)
	for _, r := range rejected {
		o := &outcomes[r.sheet]
		o.FailedCount++
		o.Errors = append(o.Errors, report.RecordError(o.SheetName, r.rec.Row, r.rec.SubmissionID, r.err))
		metrics.IncDeployed(string(r.rec.ProductType), "failed")
	}

	var batchErr error
	var affected []affectedSubmission
	seen := make(map[string]bool)

	for _, pt := range e.Registry.Types() {
		jobs := groups[pt]
		if len(jobs) == 0 {
			continue
		}
		results, err := e.runGroup(ctx, jobs)
		for i, j := range jobs {
			r := results[i]
			if !r.done {
				continue
			}
			o := &outcomes[j.sheet]
			if r.err != nil {
				o.FailedCount++
				o.Errors = append(o.Errors, report.RecordError(o.SheetName, j.rec.Row, j.rec.SubmissionID, r.err))
				metrics.IncDeployed(string(pt), "failed")
				continue
			}
			o.SuccessCount++
			if r.created {
				o.Created++
			} else {
				o.Updated++
			}
			metrics.IncDeployed(string(pt), "success")
			if !seen[j.rec.SubmissionID] {
				seen[j.rec.SubmissionID] = true
				affected = append(affected, affectedSubmission{id: j.rec.SubmissionID, productType: pt, binding: j.binding})
			}
		}
		if err != nil {
			batchErr = err
			break
		}
	}

	if batchErr != nil {
		metrics.IncBatchFailure("deploy")
		telemetry.Error("deploy.aborted", map[string]any{"error": batchErr.Error()})
		var trace []report.ProgressTrace
		if len(affected) > 0 {
			// Rows already committed still move their submissions' progress.
			pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortedProgressTimeout)
			trace = e.recomputeProgress(pctx, affected)
			cancel()
		}
		res := e.Aggregator.Deployment(outcomes, trace, batchErr)
		return res, fmt.Errorf("%w: %w", ErrAborted, batchErr)
	}

	trace := e.recomputeProgress(ctx, affected)
	res := e.Aggregator.Deployment(outcomes, trace, nil)
	telemetry.Info("deploy.done", map[string]any{
		"success_count": res.SuccessCount,
		"failed_count":  res.FailedCount,
		"submissions":   len(affected),
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return res, nil
}

type rejectedJob struct {
	sheet int
	rec   records.ParsedRecord
	err   error
}

// plan selects eligible records and groups them by product type, keeping
// sheet and row order inside each group.
func (e *Engine) plan(sheets []records.SheetData) (map[catalog.ProductType][]job, []rejectedJob) {
	groups := make(map[catalog.ProductType][]job)
	var rejected []rejectedJob
	for si, sd := range sheets {
		for _, rec := range sd.Records {
			if !rec.IsValid || rec.SubmissionID == "" {
				continue
			}
			pt := rec.ProductType
			if pt == "" {
				pt = sd.ProductType
			}
			binding, ok := e.Registry.BindingFor(pt)
			if !ok {
				rejected = append(rejected, rejectedJob{sheet: si, rec: rec, err: fmt.Errorf("%w: %s", catalog.ErrUnknownProductType, pt)})
				continue
			}
			row, err := toContent(rec)
			if err != nil {
				rejected = append(rejected, rejectedJob{sheet: si, rec: rec, err: err})
				continue
			}
			groups[pt] = append(groups[pt], job{
				sheet:   si,
				rec:     rec,
				binding: binding,
				row:     row,
				key:     binding.StorageKey + "|" + row.Key(),
			})
		}
	}
	return groups, rejected
}

// runGroup spreads jobs over writers by key so that rows sharing a key are
// written by one writer in input order. The first batch-level error stops
// every writer.
func (e *Engine) runGroup(ctx context.Context, jobs []job) ([]result, error) {
	n := e.Concurrency
	if n <= 0 {
		n = 1
	}
	if n > len(jobs) {
		n = len(jobs)
	}
	queues := make([][]int, n)
	for i, j := range jobs {
		w := partition(j.key, n)
		queues[w] = append(queues[w], i)
	}

	results := make([]result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		if len(q) == 0 {
			continue
		}
		q := q
		g.Go(func() error {
			for _, idx := range q {
				if err := gctx.Err(); err != nil {
					return err
				}
				created, err := e.upsert(gctx, jobs[idx])
				if err != nil && isBatchLevel(gctx, err) {
					return err
				}
				results[idx] = result{done: true, created: created, err: err}
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func (e *Engine) upsert(ctx context.Context, j job) (bool, error) {
	callCtx, cancel := e.storageContext(ctx)
	defer cancel()

	if e.Locker != nil {
		release, err := e.Locker.Lock(callCtx, j.key)
		if err != nil {
			return false, fmt.Errorf("lock %s: %w", j.row.Key(), err)
		}
		defer release()
	}

	created, err := e.Content.Upsert(callCtx, j.binding, j.row)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return created, nil
}

func (e *Engine) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.StorageTimeout > 0 {
		return context.WithTimeout(ctx, e.StorageTimeout)
	}
	return context.WithCancel(ctx)
}

// isBatchLevel tells an outage or timeout apart from a single rejected write.
func isBatchLevel(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, content.ErrStoreUnavailable) ||
		errors.Is(err, lock.ErrUnavailable) ||
		errors.Is(err, lock.ErrNotObtained) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func partition(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
