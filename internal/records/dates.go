package records

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	dateLayout = "2006-01-02"
	// minSerial is 1970-01-01. Smaller numbers are years or counts typed into a date column.
	minSerial = 25569
	// maxSerial is 9999-12-31 as a spreadsheet serial.
	maxSerial = 2958465
)

var (
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	serialInput = regexp.MustCompile(`^\d{1,7}(\.\d+)?$`)

	textLayouts = []string{
		dateLayout,
		"2006-1-2",
		"2006/01/02",
		"2006/1/2",
		"2006.01.02",
		"2006.1.2",
		"2006. 1. 2.",
		"2006. 1. 2",
		"20060102",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006년 1월 2일",
		"01/02/2006",
		"1/2/2006",
		"01-02-06",
	}
)

// NormalizeDate converts a cell value to YYYY-MM-DD. It accepts native
// time values, spreadsheet serials (numeric or numeric text) and common
// textual layouts. Anything else yields "".
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return NormalizeDate(*t)
	case float64:
		return fromSerial(t)
	case float32:
		return fromSerial(float64(t))
	case int:
		return fromSerial(float64(t))
	case int64:
		return fromSerial(float64(t))
	case string:
		return fromText(t)
	default:
		return ""
	}
}

// IsISODate reports whether s is already in YYYY-MM-DD form.
func IsISODate(s string) bool {
	if !isoDate.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func fromSerial(f float64) string {
	if math.IsNaN(f) || f < minSerial || f > maxSerial {
		return ""
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}

func fromText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if serialInput.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return fromSerial(f)
	}
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}
