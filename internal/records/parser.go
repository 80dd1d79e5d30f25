package records

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"campaign-import/internal/catalog"
)

var submissionNumberPattern = regexp.MustCompile(`^([A-Z]{2})-(\d{4})-(\d{4})$`)

// rowDecoder turns one row into a payload and the first field error, if any.
type rowDecoder func(p *Parser, c cells) (Payload, string)

var decodersByKind = map[catalog.Kind]rowDecoder{
	catalog.KindReview:       decodeReview,
	catalog.KindDistribution: decodeDistribution,
	catalog.KindCommunity:    decodeCommunity,
	catalog.KindCount:        decodeCount,
}

// Parser validates raw sheet rows against the registry's schemas.
type Parser struct {
	Registry *catalog.Registry

	decoders map[catalog.ProductType]rowDecoder
	validate *validator.Validate
}

// NewParser builds the per-product-type dispatch table from reg.
func NewParser(reg *catalog.Registry) *Parser {
	p := &Parser{
		Registry: reg,
		decoders: make(map[catalog.ProductType]rowDecoder),
		validate: validator.New(),
	}
	for _, spec := range reg.Specs() {
		if dec, ok := decodersByKind[spec.Kind]; ok {
			p.decoders[spec.Type] = dec
		}
	}
	return p
}

// ParseSheet parses every data row of rawRows. Row 0 is the header. Rows
// whose first cell is empty are skipped; every other row yields exactly one
// record carrying the first validation error found.
func (p *Parser) ParseSheet(rawRows [][]any, pt catalog.ProductType) ([]ParsedRecord, error) {
	spec, ok := p.Registry.Spec(pt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownProductType, pt)
	}
	decode, ok := p.decoders[pt]
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %s", catalog.ErrUnknownProductType, pt)
	}

	out := make([]ParsedRecord, 0, len(rawRows))
	for i := 1; i < len(rawRows); i++ {
		c := cells{raw: rawRows[i], schema: spec.Schema}
		number := c.text(catalog.ColSubmissionNumber)
		if number == "" {
			continue
		}
		rec := ParsedRecord{
			Row:              i + 1,
			ProductType:      pt,
			SubmissionNumber: number,
			CompanyName:      c.text(catalog.ColCompanyName),
			IsValid:          true,
		}
		payload, msg := decode(p, c)
		rec.Payload = payload
		if m := checkSubmissionNumber(number, spec.Binding.BusinessKeyPrefix); m != "" {
			msg = m
		}
		if msg != "" {
			rec.IsValid = false
			rec.ErrorMessage = msg
		}
		out = append(out, rec)
	}
	return out, nil
}

// Sheet parses rawRows into a counted SheetData.
func (p *Parser) Sheet(name string, rawRows [][]any, pt catalog.ProductType) (SheetData, error) {
	recs, err := p.ParseSheet(rawRows, pt)
	if err != nil {
		return SheetData{}, err
	}
	sd := SheetData{SheetName: name, ProductType: pt, Records: recs}
	sd.Recount()
	return sd, nil
}

func checkSubmissionNumber(number, prefix string) string {
	m := submissionNumberPattern.FindStringSubmatch(number)
	if m == nil || m[1] != prefix {
		return fmt.Sprintf("invalid submission number %q: expected format %s-YYYY-NNNN (e.g. %s-2025-0001)", number, prefix, prefix)
	}
	return ""
}

func decodeReview(p *Parser, c cells) (Payload, string) {
	pl := ReviewPayload{
		Content:        c.text(catalog.ColContent),
		RegisteredDate: NormalizeDate(c.value(catalog.ColRegisteredDate)),
		VisitDate:      NormalizeDate(c.value(catalog.ColVisitDate)),
		Link:           c.text(catalog.ColLink),
		ExternalID:     c.text(catalog.ColExternalID),
	}
	status, statusOK := NormalizeStatus(c.text(catalog.ColStatus))
	pl.Status = status

	if pl.Content == "" {
		return pl, "content is required"
	}
	if msg := checkDate(c, catalog.ColRegisteredDate, pl.RegisteredDate, "registered date", true); msg != "" {
		return pl, msg
	}
	if msg := checkDate(c, catalog.ColVisitDate, pl.VisitDate, "visit date", false); msg != "" {
		return pl, msg
	}
	if !statusOK {
		return pl, unknownStatus(c)
	}
	return pl, p.checkLink(pl.Link)
}

func decodeDistribution(p *Parser, c cells) (Payload, string) {
	pl := DistributionPayload{
		Title:         c.text(catalog.ColTitle),
		PublishedDate: NormalizeDate(c.value(catalog.ColPublishedDate)),
		Link:          c.text(catalog.ColLink),
		ExternalID:    c.text(catalog.ColExternalID),
	}
	status, statusOK := NormalizeStatus(c.text(catalog.ColStatus))
	pl.Status = status

	if pl.Title == "" {
		return pl, "title is required"
	}
	if msg := checkDate(c, catalog.ColPublishedDate, pl.PublishedDate, "published date", true); msg != "" {
		return pl, msg
	}
	if !statusOK {
		return pl, unknownStatus(c)
	}
	return pl, p.checkLink(pl.Link)
}

func decodeCommunity(p *Parser, c cells) (Payload, string) {
	pl := CommunityPayload{
		Title:      c.text(catalog.ColTitle),
		Content:    c.text(catalog.ColContent),
		PostedDate: NormalizeDate(c.value(catalog.ColPostedDate)),
		Link:       c.text(catalog.ColLink),
		ExternalID: c.text(catalog.ColExternalID),
	}
	status, statusOK := NormalizeStatus(c.text(catalog.ColStatus))
	pl.Status = status

	if pl.Title == "" {
		return pl, "title is required"
	}
	if msg := checkDate(c, catalog.ColPostedDate, pl.PostedDate, "posted date", true); msg != "" {
		return pl, msg
	}
	if !statusOK {
		return pl, unknownStatus(c)
	}
	return pl, p.checkLink(pl.Link)
}

func decodeCount(_ *Parser, c cells) (Payload, string) {
	pl := CountPayload{
		Date:  NormalizeDate(c.value(catalog.ColDate)),
		Notes: c.text(catalog.ColNotes),
	}
	if msg := checkDate(c, catalog.ColDate, pl.Date, "date", true); msg != "" {
		return pl, msg
	}
	n, ok := nonNegativeInt(c.value(catalog.ColCompletedCount))
	if !ok {
		return pl, fmt.Sprintf("completed count must be a non-negative integer, got %q", c.text(catalog.ColCompletedCount))
	}
	pl.CompletedCount = n
	return pl, ""
}

// checkDate reports a missing required date or a value that did not
// normalize. Optional dates are only checked when the cell is non-empty.
func checkDate(c cells, role catalog.ColumnRole, normalized, label string, required bool) string {
	raw := c.text(role)
	if raw == "" {
		if required {
			return label + " is required"
		}
		return ""
	}
	if !IsISODate(normalized) {
		return fmt.Sprintf("date format error: %s %q must be YYYY-MM-DD", label, raw)
	}
	return ""
}

func unknownStatus(c cells) string {
	return fmt.Sprintf("unknown status %q", c.text(catalog.ColStatus))
}

func (p *Parser) checkLink(link string) string {
	if link == "" {
		return ""
	}
	if err := p.validate.Var(link, "required,url"); err != nil {
		return fmt.Sprintf("link %q must be an absolute URL", link)
	}
	return ""
}

func nonNegativeInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, t >= 0
	case int64:
		return int(t), t >= 0
	case float64:
		if t < 0 || t != math.Trunc(t) || t > math.MaxInt32 {
			return 0, false
		}
		return int(t), true
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, n >= 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return nonNegativeInt(f)
		}
	}
	return 0, false
}

// cells reads a row through its schema. Short rows read as empty cells.
type cells struct {
	raw    []any
	schema catalog.Schema
}

func (c cells) value(role catalog.ColumnRole) any {
	i := c.schema.Index(role)
	if i < 0 || i >= len(c.raw) {
		return nil
	}
	return c.raw[i]
}

func (c cells) text(role catalog.ColumnRole) string {
	return cellText(c.value(role))
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(dateLayout)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
