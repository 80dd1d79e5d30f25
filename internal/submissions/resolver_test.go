package submissions

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"campaign-import/internal/catalog"
	"campaign-import/internal/records"
)

func reviewSheet(recs ...records.ParsedRecord) records.SheetData {
	sd := records.SheetData{SheetName: "ReviewTypeA", ProductType: catalog.ReviewA, Records: recs}
	sd.Recount()
	return sd
}

func validRecord(row int, number, company string) records.ParsedRecord {
	return records.ParsedRecord{
		Row:              row,
		ProductType:      catalog.ReviewA,
		SubmissionNumber: number,
		CompanyName:      company,
		Payload:          records.ReviewPayload{Content: "Great place", RegisteredDate: "2025-12-05", Status: "approved"},
		IsValid:          true,
	}
}

func seeded(t *testing.T, subs ...Submission) *MemoryRepo {
	t.Helper()
	repo := NewMemoryRepo()
	for _, s := range subs {
		if _, err := repo.Create(context.Background(), s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	return repo
}

func TestResolveAttachesSubmissionID(t *testing.T) {
	repo := seeded(t, Submission{ID: "sub-1", SubmissionNumber: "RA-2025-0001", CompanyName: "Acme"})
	r := &Resolver{Directory: repo}

	in := []records.SheetData{reviewSheet(validRecord(2, "RA-2025-0001", "Acme"))}
	out, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rec := out[0].Records[0]
	if !rec.IsValid || rec.SubmissionID != "sub-1" {
		t.Fatalf("expected resolved valid record, got %+v", rec)
	}
	if in[0].Records[0].SubmissionID != "" {
		t.Fatalf("input sheet was mutated")
	}
}

func TestResolveCompanyMismatchIsHardFailure(t *testing.T) {
	repo := seeded(t, Submission{ID: "sub-1", SubmissionNumber: "RA-2025-0001", CompanyName: "Other Co"})
	r := &Resolver{Directory: repo}

	out, err := r.Resolve(context.Background(), []records.SheetData{reviewSheet(validRecord(2, "RA-2025-0001", "Acme"))})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rec := out[0].Records[0]
	if rec.IsValid || rec.SubmissionID != "" {
		t.Fatalf("expected invalid unresolved record, got %+v", rec)
	}
	if !strings.Contains(rec.ErrorMessage, `"Acme"`) || !strings.Contains(rec.ErrorMessage, `"Other Co"`) {
		t.Fatalf("message should name both companies: %q", rec.ErrorMessage)
	}
	if out[0].ValidCount != 0 || out[0].InvalidCount != 1 {
		t.Fatalf("counts not recomputed: %+v", out[0])
	}
}

func TestResolveCompanyComparisonIgnoresCaseAndSpacing(t *testing.T) {
	repo := seeded(t, Submission{ID: "sub-1", SubmissionNumber: "RA-2025-0001", CompanyName: "Acme  Coffee"})
	r := &Resolver{Directory: repo}

	in := reviewSheet(
		validRecord(2, "RA-2025-0001", " acme coffee "),
		validRecord(3, "RA-2025-0001", ""),
	)
	out, err := r.Resolve(context.Background(), []records.SheetData{in})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, rec := range out[0].Records {
		if !rec.IsValid || rec.SubmissionID != "sub-1" {
			t.Fatalf("row %d: expected resolved, got %+v", rec.Row, rec)
		}
	}
}

func TestResolveSingleBatchedLookupAndMonotonicity(t *testing.T) {
	repo := seeded(t,
		Submission{ID: "sub-1", SubmissionNumber: "RA-2025-0001", CompanyName: "Acme"},
		Submission{ID: "sub-2", SubmissionNumber: "RA-2025-0002", CompanyName: "Acme"},
	)
	r := &Resolver{Directory: repo}

	invalid := validRecord(4, "RA-2025-0002", "Acme")
	invalid.IsValid = false
	invalid.ErrorMessage = "content is required"

	first := reviewSheet(
		validRecord(2, "RA-2025-0001", "Acme"),
		validRecord(3, "RA-2025-0009", "Acme"),
		invalid,
	)
	second := reviewSheet(validRecord(2, "RA-2025-0001", "Acme"), validRecord(3, "RA-2025-0002", "Acme"))
	second.SheetName = "리뷰A"

	out, err := r.Resolve(context.Background(), []records.SheetData{first, second})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if repo.Lookups() != 1 {
		t.Fatalf("expected one batched lookup, got %d", repo.Lookups())
	}

	if out[0].Records[1].IsValid || out[0].Records[1].ErrorMessage != "submission not found" {
		t.Fatalf("expected not found, got %+v", out[0].Records[1])
	}
	got := out[0].Records[2]
	if got.IsValid || got.ErrorMessage != "content is required" || got.SubmissionID != "" {
		t.Fatalf("already-invalid record must stay untouched, got %+v", got)
	}

	in := []records.SheetData{first, second}
	for i := range out {
		for j, rec := range out[i].Records {
			if rec.IsValid && !in[i].Records[j].IsValid {
				t.Fatalf("sheet %d row %d turned valid", i, rec.Row)
			}
			if !reflect.DeepEqual(rec.Payload, in[i].Records[j].Payload) {
				t.Fatalf("payload changed during resolution")
			}
		}
		if out[i].ValidCount+out[i].InvalidCount != len(out[i].Records) {
			t.Fatalf("count invariant broken for sheet %d", i)
		}
	}
	if out[0].ValidCount != 1 || out[1].ValidCount != 2 {
		t.Fatalf("unexpected valid counts %d, %d", out[0].ValidCount, out[1].ValidCount)
	}
}

func TestResolveSkipsLookupWhenNothingValid(t *testing.T) {
	repo := seeded(t)
	r := &Resolver{Directory: repo}

	rec := validRecord(2, "RA-2025-0001", "Acme")
	rec.IsValid = false
	rec.ErrorMessage = "date format error"

	out, err := r.Resolve(context.Background(), []records.SheetData{reviewSheet(rec)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if repo.Lookups() != 0 {
		t.Fatalf("expected no lookup")
	}
	if out[0].InvalidCount != 1 {
		t.Fatalf("unexpected counts %+v", out[0])
	}
}

type slowDirectory struct{}

func (slowDirectory) LookupByNumbers(ctx context.Context, _ []string) ([]Submission, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingDirectory struct{ err error }

func (d failingDirectory) LookupByNumbers(context.Context, []string) ([]Submission, error) {
	return nil, d.err
}

func TestResolveLookupFailureIsBatchLevel(t *testing.T) {
	in := []records.SheetData{reviewSheet(validRecord(2, "RA-2025-0001", "Acme"))}

	r := &Resolver{Directory: slowDirectory{}, Timeout: 20 * time.Millisecond}
	out, err := r.Resolve(context.Background(), in)
	if !errors.Is(err, ErrLookupFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected lookup timeout, got %v", err)
	}
	if out != nil {
		t.Fatalf("no sheets should be returned on batch failure")
	}
	if !in[0].Records[0].IsValid || in[0].Records[0].ErrorMessage != "" {
		t.Fatalf("records must not be marked not found on failure")
	}

	r = &Resolver{Directory: failingDirectory{err: errors.New("connection refused")}}
	if _, err := r.Resolve(context.Background(), in); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
}
