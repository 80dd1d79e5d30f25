package catalog

// ProductType identifies a campaign category. It governs the sheet schema,
// submission-number prefix and storage routing.
type ProductType string

const (
	ReviewA          ProductType = "review_a"
	ReviewB          ProductType = "review_b"
	DistributionBlog ProductType = "distribution_blog"
	DistributionCafe ProductType = "distribution_cafe"
	DistributionNews ProductType = "distribution_news"
	CommunityPost    ProductType = "community_post"
	DailyCount       ProductType = "daily_count"
)

// Kind groups product types that share a row shape.
type Kind string

const (
	KindReview       Kind = "review"
	KindDistribution Kind = "distribution"
	KindCommunity    Kind = "community"
	KindCount        Kind = "count"
)

// ColumnRole names what a sheet column holds.
type ColumnRole string

const (
	ColSubmissionNumber ColumnRole = "submission_number"
	ColCompanyName      ColumnRole = "company_name"
	ColContent          ColumnRole = "content"
	ColTitle            ColumnRole = "title"
	ColRegisteredDate   ColumnRole = "registered_date"
	ColVisitDate        ColumnRole = "visit_date"
	ColPublishedDate    ColumnRole = "published_date"
	ColPostedDate       ColumnRole = "posted_date"
	ColDate             ColumnRole = "date"
	ColStatus           ColumnRole = "status"
	ColLink             ColumnRole = "link"
	ColExternalID       ColumnRole = "external_id"
	ColCompletedCount   ColumnRole = "completed_count"
	ColNotes            ColumnRole = "notes"
)

// Schema is the ordered column layout of a sheet.
type Schema struct {
	Columns []ColumnRole
}

// Index returns the column position of role, or -1.
func (s Schema) Index(role ColumnRole) int {
	for i, c := range s.Columns {
		if c == role {
			return i
		}
	}
	return -1
}

// Binding routes a product type to storage.
type Binding struct {
	// StorageKey is the content table the type writes to.
	StorageKey string
	// BusinessKeyPrefix is the 2-letter code submission numbers start with.
	BusinessKeyPrefix string
	// Subtype tags rows in tables shared by several types.
	Subtype string
	// SumCompleted counts progress as the sum of completed counts rather than rows.
	SumCompleted bool
}

// StatusRule derives a submission status from a progress percentage.
// ok is false when the percentage does not imply a status change.
type StatusRule func(percent int) (status string, ok bool)

// Spec is everything the registry knows about one product type.
type Spec struct {
	Type        ProductType
	DisplayName string
	Kind        Kind
	Aliases     []string
	Schema      Schema
	Binding     Binding
	StatusRule  StatusRule
}
