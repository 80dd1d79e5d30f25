package catalog

import (
	"fmt"
	"strings"
)

// Registry maps sheet names to product types and product types to their
// schema and storage binding. It is immutable after construction.
type Registry struct {
	order   []ProductType
	specs   map[ProductType]Spec
	aliases map[string]ProductType
}

// New builds a registry from specs. Alias matching is exact and case-sensitive.
func New(specs []Spec) (*Registry, error) {
	r := &Registry{
		specs:   make(map[ProductType]Spec, len(specs)),
		aliases: make(map[string]ProductType),
	}
	for _, s := range specs {
		if s.Type == "" {
			return nil, fmt.Errorf("%w: empty product type", ErrInvalidRegistry)
		}
		if _, dup := r.specs[s.Type]; dup {
			return nil, fmt.Errorf("%w: duplicate product type %s", ErrInvalidRegistry, s.Type)
		}
		if len(s.Binding.BusinessKeyPrefix) != 2 {
			return nil, fmt.Errorf("%w: %s prefix must be 2 characters", ErrInvalidRegistry, s.Type)
		}
		if s.Binding.StorageKey == "" {
			return nil, fmt.Errorf("%w: %s has no storage key", ErrInvalidRegistry, s.Type)
		}
		if len(s.Schema.Columns) < 2 || s.Schema.Columns[0] != ColSubmissionNumber || s.Schema.Columns[1] != ColCompanyName {
			return nil, fmt.Errorf("%w: %s schema must start with submission number and company name", ErrInvalidRegistry, s.Type)
		}
		for _, a := range s.Aliases {
			if prev, taken := r.aliases[a]; taken {
				return nil, fmt.Errorf("%w: alias %q used by %s and %s", ErrInvalidRegistry, a, prev, s.Type)
			}
			r.aliases[a] = s.Type
		}
		r.specs[s.Type] = s
		r.order = append(r.order, s.Type)
	}
	return r, nil
}

// ResolveProductType maps a sheet name to its product type.
func (r *Registry) ResolveProductType(sheetName string) (ProductType, bool) {
	pt, ok := r.aliases[sheetName]
	return pt, ok
}

// Spec returns the full spec for pt.
func (r *Registry) Spec(pt ProductType) (Spec, bool) {
	s, ok := r.specs[pt]
	return s, ok
}

// SchemaFor returns the column layout for pt.
func (r *Registry) SchemaFor(pt ProductType) (Schema, bool) {
	s, ok := r.specs[pt]
	return s.Schema, ok
}

// BindingFor returns the storage binding for pt.
func (r *Registry) BindingFor(pt ProductType) (Binding, bool) {
	s, ok := r.specs[pt]
	return s.Binding, ok
}

// Types lists product types in registration order.
func (r *Registry) Types() []ProductType {
	out := make([]ProductType, len(r.order))
	copy(out, r.order)
	return out
}

// Specs lists specs in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, pt := range r.order {
		out = append(out, r.specs[pt])
	}
	return out
}

// ParseTypes turns user input (product type ids or sheet aliases) into an
// allowed set. Empty input yields nil, meaning every type is allowed.
func (r *Registry) ParseTypes(names []string) (map[ProductType]bool, error) {
	var allowed map[ProductType]bool
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			pt := ProductType(name)
			if _, ok := r.specs[pt]; !ok {
				var found bool
				if pt, found = r.aliases[name]; !found {
					return nil, fmt.Errorf("%w: %s", ErrUnknownProductType, name)
				}
			}
			if allowed == nil {
				allowed = make(map[ProductType]bool)
			}
			allowed[pt] = true
		}
	}
	return allowed, nil
}

var (
	reviewColumns = []ColumnRole{
		ColSubmissionNumber, ColCompanyName, ColContent, ColRegisteredDate, ColVisitDate,
		ColStatus, ColLink, ColExternalID,
	}
	distributionColumns = []ColumnRole{
		ColSubmissionNumber, ColCompanyName, ColTitle, ColPublishedDate,
		ColStatus, ColLink, ColExternalID,
	}
	communityColumns = []ColumnRole{
		ColSubmissionNumber, ColCompanyName, ColTitle, ColContent, ColPostedDate,
		ColStatus, ColLink, ColExternalID,
	}
	countColumns = []ColumnRole{
		ColSubmissionNumber, ColCompanyName, ColDate, ColCompletedCount, ColNotes,
	}
)

// FulfillmentRule marks a submission fulfilled at 100% and in progress above 0%.
func FulfillmentRule(percent int) (string, bool) {
	switch {
	case percent >= 100:
		return "fulfilled", true
	case percent > 0:
		return "in_progress", true
	default:
		return "", false
	}
}

// Default returns the production registry.
func Default() *Registry {
	r, err := New(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultSpecs returns the built-in product type table.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Type:        ReviewA,
			DisplayName: "Review A",
			Kind:        KindReview,
			Aliases:     []string{"ReviewTypeA", "review_a", "리뷰A", "영수증리뷰"},
			Schema:      Schema{Columns: reviewColumns},
			Binding:     Binding{StorageKey: "review_a_contents", BusinessKeyPrefix: "RA"},
			StatusRule:  FulfillmentRule,
		},
		{
			Type:        ReviewB,
			DisplayName: "Review B",
			Kind:        KindReview,
			Aliases:     []string{"ReviewTypeB", "review_b", "리뷰B", "예약자리뷰"},
			Schema:      Schema{Columns: reviewColumns},
			Binding:     Binding{StorageKey: "review_b_contents", BusinessKeyPrefix: "RB"},
			StatusRule:  FulfillmentRule,
		},
		{
			Type:        DistributionBlog,
			DisplayName: "Blog distribution",
			Kind:        KindDistribution,
			Aliases:     []string{"DistributionBlog", "distribution_blog", "블로그배포"},
			Schema:      Schema{Columns: distributionColumns},
			Binding:     Binding{StorageKey: "distribution_contents", BusinessKeyPrefix: "BL", Subtype: "blog"},
			StatusRule:  FulfillmentRule,
		},
		{
			Type:        DistributionCafe,
			DisplayName: "Cafe distribution",
			Kind:        KindDistribution,
			Aliases:     []string{"DistributionCafe", "distribution_cafe", "카페배포"},
			Schema:      Schema{Columns: distributionColumns},
			Binding:     Binding{StorageKey: "distribution_contents", BusinessKeyPrefix: "CF", Subtype: "cafe"},
			StatusRule:  FulfillmentRule,
		},
		{
			Type:        DistributionNews,
			DisplayName: "News distribution",
			Kind:        KindDistribution,
			Aliases:     []string{"DistributionNews", "distribution_news", "언론배포"},
			Schema:      Schema{Columns: distributionColumns},
			Binding:     Binding{StorageKey: "distribution_contents", BusinessKeyPrefix: "NW", Subtype: "news"},
			StatusRule:  FulfillmentRule,
		},
		{
			Type:        CommunityPost,
			DisplayName: "Community post",
			Kind:        KindCommunity,
			Aliases:     []string{"CommunityPost", "community_post", "커뮤니티"},
			Schema:      Schema{Columns: communityColumns},
			Binding:     Binding{StorageKey: "community_posts", BusinessKeyPrefix: "CP"},
		},
		{
			Type:        DailyCount,
			DisplayName: "Daily count",
			Kind:        KindCount,
			Aliases:     []string{"DailyCount", "daily_count", "일일건수"},
			Schema:      Schema{Columns: countColumns},
			Binding:     Binding{StorageKey: "daily_counts", BusinessKeyPrefix: "DC", SumCompleted: true},
		},
	}
}
