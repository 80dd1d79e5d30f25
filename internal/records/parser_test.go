package records

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"campaign-import/internal/catalog"
)

var reviewHeader = []any{"submission", "company", "content", "registered", "visit", "status", "link", "id"}

func newParser() *Parser {
	return NewParser(catalog.Default())
}

func TestParseSheetValidReviewRow(t *testing.T) {
	rows := [][]any{
		reviewHeader,
		{"RA-2025-0001", "Acme", "Great place", "2025-12-05", "2025-12-01", "approved", "http://x", "id1"},
	}

	recs, err := newParser().ParseSheet(rows, catalog.ReviewA)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if !rec.IsValid || rec.ErrorMessage != "" {
		t.Fatalf("expected valid record, got %+v", rec)
	}
	if rec.Row != 2 || rec.SubmissionNumber != "RA-2025-0001" || rec.CompanyName != "Acme" || rec.SubmissionID != "" {
		t.Fatalf("unexpected record header fields: %+v", rec)
	}
	want := ReviewPayload{
		Content:        "Great place",
		RegisteredDate: "2025-12-05",
		VisitDate:      "2025-12-01",
		Status:         "approved",
		Link:           "http://x",
		ExternalID:     "id1",
	}
	if !reflect.DeepEqual(rec.Payload, want) {
		t.Fatalf("payload = %+v, want %+v", rec.Payload, want)
	}
	if rec.Payload.PrimaryDate() != "2025-12-05" {
		t.Fatalf("primary date should be the registered date")
	}
}

func TestParseSheetUnparseableDate(t *testing.T) {
	rows := [][]any{
		reviewHeader,
		{"RA-2025-0001", "Acme", "Great place", "not-a-date", "", "", "", ""},
	}
	recs, err := newParser().ParseSheet(rows, catalog.ReviewA)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if recs[0].IsValid || !strings.Contains(recs[0].ErrorMessage, "date format error") {
		t.Fatalf("expected date format error, got %+v", recs[0])
	}
}

func TestParseSheetRejectsBareNumbersAsDates(t *testing.T) {
	rows := [][]any{
		reviewHeader,
		{"RA-2025-0001", "Acme", "year only", "2025", "", "", "", ""},
		{"RA-2025-0001", "Acme", "day only", "12", "", "", "", ""},
	}
	recs, err := newParser().ParseSheet(rows, catalog.ReviewA)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	for _, rec := range recs {
		if rec.IsValid || !strings.Contains(rec.ErrorMessage, "date format error") {
			t.Fatalf("row %d: expected date format error, got %+v", rec.Row, rec)
		}
	}
}

func TestParseSheetValidationOrder(t *testing.T) {
	cases := []struct {
		name string
		row  []any
		want string
	}{
		{"bad number wins over missing content", []any{"XX-1", "Acme", "", "bad"}, "expected format RA-YYYY-NNNN (e.g. RA-2025-0001)"},
		{"wrong prefix", []any{"RB-2025-0001", "Acme", "x", "2025-12-05"}, "expected format RA-YYYY-NNNN"},
		{"missing content before date", []any{"RA-2025-0001", "Acme", "", "bad"}, "content is required"},
		{"missing primary date", []any{"RA-2025-0001", "Acme", "x", ""}, "registered date is required"},
		{"bad secondary date", []any{"RA-2025-0001", "Acme", "x", "2025-12-05", "yesterday"}, "date format error: visit date"},
		{"unknown status", []any{"RA-2025-0001", "Acme", "x", "2025-12-05", "", "lost"}, `unknown status "lost"`},
		{"relative link", []any{"RA-2025-0001", "Acme", "x", "2025-12-05", "", "", "/reviews/1"}, "must be an absolute URL"},
	}
	p := newParser()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := p.ParseSheet([][]any{reviewHeader, tc.row}, catalog.ReviewA)
			if err != nil {
				t.Fatalf("ParseSheet: %v", err)
			}
			if recs[0].IsValid {
				t.Fatalf("expected invalid record")
			}
			if !strings.Contains(recs[0].ErrorMessage, tc.want) {
				t.Fatalf("error %q does not contain %q", recs[0].ErrorMessage, tc.want)
			}
		})
	}
}

func TestParseSheetSkipsBlankRowsAndKeepsRowNumbers(t *testing.T) {
	rows := [][]any{
		{"submission", "company", "title", "published"},
		{"BL-2025-0001", "Acme", "Post one", "2025-12-05"},
		{"", "ignored", "ignored"},
		{},
		{"  ", "Acme"},
		{"BL-2025-0002", "Acme", "", "2025-12-06"},
	}
	recs, err := newParser().ParseSheet(rows, catalog.DistributionBlog)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Row != 2 || recs[1].Row != 6 {
		t.Fatalf("unexpected row numbers %d, %d", recs[0].Row, recs[1].Row)
	}
	if recs[1].IsValid || recs[1].ErrorMessage != "title is required" {
		t.Fatalf("expected missing title, got %+v", recs[1])
	}
	if pl := recs[0].Payload.(DistributionPayload); pl.Status != StatusPending {
		t.Fatalf("missing status should default to pending, got %q", pl.Status)
	}
}

func TestParseSheetDoesNotMutateInput(t *testing.T) {
	rows := [][]any{
		reviewHeader,
		{" RA-2025-0001 ", " Acme ", "text", float64(45996), nil, "승인"},
	}
	before := []any{" RA-2025-0001 ", " Acme ", "text", float64(45996), nil, "승인"}

	recs, err := newParser().ParseSheet(rows, catalog.ReviewA)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if !reflect.DeepEqual(rows[1], before) {
		t.Fatalf("input row mutated: %v", rows[1])
	}
	pl := recs[0].Payload.(ReviewPayload)
	if pl.RegisteredDate != "2025-12-05" || pl.Status != StatusApproved {
		t.Fatalf("unexpected payload %+v", pl)
	}
}

func TestParseSheetCountType(t *testing.T) {
	rows := [][]any{
		{"submission", "company", "date", "completed", "notes"},
		{"DC-2025-0001", "Acme", "2025-12-05", "3", "ok"},
		{"DC-2025-0001", "Acme", "2025-12-06", float64(-1)},
		{"DC-2025-0001", "Acme", "2025-12-07", "2.5"},
		{"DC-2025-0001", "Acme", "2025-12-08", float64(4)},
	}
	recs, err := newParser().ParseSheet(rows, catalog.DailyCount)
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if !recs[0].IsValid || recs[0].Payload.(CountPayload).CompletedCount != 3 {
		t.Fatalf("expected valid count 3, got %+v", recs[0])
	}
	for _, i := range []int{1, 2} {
		if recs[i].IsValid || !strings.Contains(recs[i].ErrorMessage, "non-negative integer") {
			t.Fatalf("row %d: expected count error, got %+v", recs[i].Row, recs[i])
		}
	}
	if !recs[3].IsValid || recs[3].Payload.(CountPayload).CompletedCount != 4 {
		t.Fatalf("expected float 4 accepted, got %+v", recs[3])
	}
}

func TestParseSheetUnknownType(t *testing.T) {
	if _, err := newParser().ParseSheet(nil, "bogus"); err == nil {
		t.Fatalf("expected error for unknown product type")
	}
}

func TestSheetCountInvariant(t *testing.T) {
	rows := [][]any{
		reviewHeader,
		{"RA-2025-0001", "Acme", "a", "2025-12-05"},
		{"RA-2025-0002", "Acme", "", "2025-12-05"},
		{"RA-2025-0003", "Acme", "c", "12/05/2025"},
	}
	sd, err := newParser().Sheet("ReviewTypeA", rows, catalog.ReviewA)
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	if sd.ValidCount+sd.InvalidCount != len(sd.Records) {
		t.Fatalf("count invariant broken: %d+%d != %d", sd.ValidCount, sd.InvalidCount, len(sd.Records))
	}
	if sd.ValidCount != 2 || sd.InvalidCount != 1 {
		t.Fatalf("unexpected counts %d/%d", sd.ValidCount, sd.InvalidCount)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"2025-12-05", "2025-12-05"},
		{" 2025/12/05 ", "2025-12-05"},
		{"2025.12.5", "2025-12-05"},
		{"20251205", "2025-12-05"},
		{"2025년 12월 5일", "2025-12-05"},
		{"45996", "2025-12-05"},
		{float64(45996), "2025-12-05"},
		{45996, "2025-12-05"},
		{time.Date(2025, 12, 5, 13, 0, 0, 0, time.UTC), "2025-12-05"},
		{"not-a-date", ""},
		{"2025-13-40", ""},
		{float64(0), ""},
		{float64(-3), ""},
		{"2025", ""},
		{"12", ""},
		{float64(2025), ""},
		{"25569", "1970-01-01"},
		{nil, ""},
		{true, ""},
	}
	for _, tc := range cases {
		if got := NormalizeDate(tc.in); got != tc.want {
			t.Fatalf("NormalizeDate(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsedRecordJSONKeepsPayloadKind(t *testing.T) {
	in := ParsedRecord{
		Row:              3,
		ProductType:      catalog.CommunityPost,
		SubmissionNumber: "CP-2025-0004",
		Payload:          CommunityPayload{Title: "t", PostedDate: "2025-12-05", Status: StatusPending},
		IsValid:          true,
		SubmissionID:     "sub-9",
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"payloadKind":"community"`) {
		t.Fatalf("expected payloadKind in %s", raw)
	}
	var out ParsedRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}
