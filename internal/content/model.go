package content

import "time"

// Record is one stored content row. Every content table shares this shape;
// (SubmissionID, ContentDate) is unique per table.
type Record struct {
	ID             string
	SubmissionID   string
	ContentDate    string
	Subtype        string
	Title          string
	Content        string
	SecondaryDate  string
	Status         string
	Link           string
	ExternalID     string
	CompletedCount int
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key returns the upsert key of r.
func (r Record) Key() string {
	return r.SubmissionID + "|" + r.ContentDate
}
