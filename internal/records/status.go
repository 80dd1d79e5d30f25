package records

import "strings"

// Record statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPublished = "published"
	StatusCompleted = "completed"
)

var statusAliases = map[string]string{
	StatusPending:   StatusPending,
	StatusApproved:  StatusApproved,
	StatusRejected:  StatusRejected,
	StatusPublished: StatusPublished,
	StatusCompleted: StatusCompleted,
	"대기":            StatusPending,
	"검수중":           StatusPending,
	"승인":            StatusApproved,
	"반려":            StatusRejected,
	"게시":            StatusPublished,
	"발행":            StatusPublished,
	"완료":            StatusCompleted,
}

// NormalizeStatus maps a status cell to its canonical value. An empty cell
// is pending.
func NormalizeStatus(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusPending, true
	}
	s, ok := statusAliases[strings.ToLower(raw)]
	return s, ok
}
