package impact

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/competitive-intel/internal/model"
)

// Filters are optional caller-supplied restrictions on the customer
// population. Zero values mean "no restriction".
type Filters struct {
	Segment  string       `json:"segment,omitempty"`
	Tiers    []model.Tier `json:"tiers,omitempty"`
	Industry string       `json:"industry,omitempty"`
}

// folder normalizes labels for comparison. A cases.Caser is stateful, so
// each Select call builds its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(strings.TrimSpace(s))
}

func (f *folder) set(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[f.fold(v)] = true
	}
	return out
}

// Select returns the customers in scope for a signal about competitor, in
// their original order. A customer is eligible when it has recorded
// exposure to the competitor, its industry and segment fall within the
// competitor's market, and it passes every supplied filter.
func Select(customers []model.Customer, competitor model.Competitor, filters Filters) []model.Customer {
	f := newFolder()
	industries := f.set(competitor.TargetIndustries)
	segments := f.set(competitor.TypicalCustomerSegments)

	var tiers map[model.Tier]bool
	if len(filters.Tiers) > 0 {
		tiers = make(map[model.Tier]bool, len(filters.Tiers))
		for _, t := range filters.Tiers {
			tiers[t] = true
		}
	}
	segmentFilter := f.fold(filters.Segment)
	industryFilter := f.fold(filters.Industry)

	var eligible []model.Customer
	for _, c := range customers {
		if c.ExposureTo(competitor.ID) == nil {
			continue
		}

		industry := f.fold(c.Industry)
		segment := f.fold(c.Segment)

		if !industries[industry] || !segments[segment] {
			continue
		}
		if segmentFilter != "" && segment != segmentFilter {
			continue
		}
		if industryFilter != "" && industry != industryFilter {
			continue
		}
		if tiers != nil && !tiers[c.Tier] {
			continue
		}

		eligible = append(eligible, c)
	}
	return eligible
}
