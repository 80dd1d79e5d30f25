package records

import (
	"encoding/json"
	"fmt"

	"campaign-import/internal/catalog"
)

// Payload is the type-specific part of a parsed row. Exactly one concrete
// payload exists per catalog.Kind.
type Payload interface {
	Kind() catalog.Kind
	// PrimaryDate is the upsert date in YYYY-MM-DD form.
	PrimaryDate() string
}

// ReviewPayload carries review rows.
type ReviewPayload struct {
	Content        string `json:"content"`
	RegisteredDate string `json:"registeredDate"`
	VisitDate      string `json:"visitDate,omitempty"`
	Status         string `json:"status"`
	Link           string `json:"link,omitempty"`
	ExternalID     string `json:"externalId,omitempty"`
}

func (ReviewPayload) Kind() catalog.Kind    { return catalog.KindReview }
func (p ReviewPayload) PrimaryDate() string { return p.RegisteredDate }

// DistributionPayload carries blog, cafe and news distribution rows.
type DistributionPayload struct {
	Title         string `json:"title"`
	PublishedDate string `json:"publishedDate"`
	Status        string `json:"status"`
	Link          string `json:"link,omitempty"`
	ExternalID    string `json:"externalId,omitempty"`
}

func (DistributionPayload) Kind() catalog.Kind    { return catalog.KindDistribution }
func (p DistributionPayload) PrimaryDate() string { return p.PublishedDate }

// CommunityPayload carries community post rows.
type CommunityPayload struct {
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	PostedDate string `json:"postedDate"`
	Status     string `json:"status"`
	Link       string `json:"link,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

func (CommunityPayload) Kind() catalog.Kind    { return catalog.KindCommunity }
func (p CommunityPayload) PrimaryDate() string { return p.PostedDate }

// CountPayload carries legacy daily count rows.
type CountPayload struct {
	Date           string `json:"date"`
	CompletedCount int    `json:"completedCount"`
	Notes          string `json:"notes,omitempty"`
}

func (CountPayload) Kind() catalog.Kind    { return catalog.KindCount }
func (p CountPayload) PrimaryDate() string { return p.Date }

// ParsedRecord is one data row after parsing and, later, resolution.
type ParsedRecord struct {
	Row              int
	ProductType      catalog.ProductType
	SubmissionNumber string
	CompanyName      string
	Payload          Payload
	IsValid          bool
	ErrorMessage     string
	// SubmissionID is empty until the record is resolved.
	SubmissionID string
}

// Invalidate marks the record invalid with msg unless it already is.
func (r *ParsedRecord) Invalidate(msg string) {
	if !r.IsValid {
		return
	}
	r.IsValid = false
	r.ErrorMessage = msg
}

type recordJSON struct {
	Row              int                 `json:"row"`
	ProductType      catalog.ProductType `json:"productType"`
	SubmissionNumber string              `json:"submissionNumber"`
	CompanyName      string              `json:"companyName,omitempty"`
	PayloadKind      catalog.Kind        `json:"payloadKind,omitempty"`
	Payload          json.RawMessage     `json:"payload,omitempty"`
	IsValid          bool                `json:"isValid"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
	SubmissionID     string              `json:"submissionId,omitempty"`
}

// MarshalJSON tags the payload with its kind so it can be decoded again.
func (r ParsedRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Row:              r.Row,
		ProductType:      r.ProductType,
		SubmissionNumber: r.SubmissionNumber,
		CompanyName:      r.CompanyName,
		IsValid:          r.IsValid,
		ErrorMessage:     r.ErrorMessage,
		SubmissionID:     r.SubmissionID,
	}
	if r.Payload != nil {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		out.PayloadKind = r.Payload.Kind()
		out.Payload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the concrete payload from payloadKind.
func (r *ParsedRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = ParsedRecord{
		Row:              in.Row,
		ProductType:      in.ProductType,
		SubmissionNumber: in.SubmissionNumber,
		CompanyName:      in.CompanyName,
		IsValid:          in.IsValid,
		ErrorMessage:     in.ErrorMessage,
		SubmissionID:     in.SubmissionID,
	}
	if in.PayloadKind == "" {
		return nil
	}
	p, err := decodePayload(in.PayloadKind, in.Payload)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}

func decodePayload(kind catalog.Kind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case catalog.KindReview:
		var p ReviewPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case catalog.KindDistribution:
		var p DistributionPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case catalog.KindCommunity:
		var p CommunityPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case catalog.KindCount:
		var p CountPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
}

// SheetData is one sheet's parse result.
type SheetData struct {
	SheetName    string              `json:"sheetName"`
	ProductType  catalog.ProductType `json:"productType"`
	Records      []ParsedRecord      `json:"records"`
	ValidCount   int                 `json:"validCount"`
	InvalidCount int                 `json:"invalidCount"`
}

// Recount recomputes the valid and invalid counts from the records.
func (s *SheetData) Recount() {
	s.ValidCount, s.InvalidCount = 0, 0
	for i := range s.Records {
		if s.Records[i].IsValid {
			s.ValidCount++
		} else {
			s.InvalidCount++
		}
	}
}

// Clone returns a deep copy so later stages never mutate caller input.
func (s SheetData) Clone() SheetData {
	out := s
	out.Records = make([]ParsedRecord, len(s.Records))
	copy(out.Records, s.Records)
	return out
}

// RawSheet is one named sheet as read from a workbook, header row included.
type RawSheet struct {
	Name string  `json:"name"`
	Rows [][]any `json:"rows"`
}
