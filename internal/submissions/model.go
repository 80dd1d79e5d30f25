package submissions

import (
	"time"

	"campaign-import/internal/catalog"
)

// Submission is an authoritative campaign work order that imported content attaches to.
type Submission struct {
	ID               string              `json:"id"`
	SubmissionNumber string              `json:"submissionNumber"`
	CompanyName      string              `json:"companyName"`
	ProductType      catalog.ProductType `json:"productType"`
	TargetCount      int                 `json:"targetCount"`
	ContentCount     int                 `json:"contentCount"`
	ProgressPercent  int                 `json:"progressPercent"`
	Status           string              `json:"status"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// ProgressUpdate is the result of a progress recomputation.
type ProgressUpdate struct {
	SubmissionID    string
	ContentCount    int
	ProgressPercent int
	// Status is left unchanged when empty.
	Status string
}
