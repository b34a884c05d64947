package crm

import (
	"context"
	"sort"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/resilience"
	"github.com/sells-group/competitive-intel/internal/store"
	"github.com/sells-group/competitive-intel/pkg/notion"
)

// Competitor registry database properties.
const (
	propName       = "Name"
	propKey        = "Key"
	propIndustries = "Target Industries"
	propSegments   = "Customer Segments"
)

// NotionRegistry reads tracked competitors from a Notion database. A page's
// Key property is the competitor ID shared with signals and exposure
// records; pages without one fall back to the page ID.
type NotionRegistry struct {
	db    notion.Client
	guard *resilience.Guard
}

var _ store.CompetitorRepository = (*NotionRegistry)(nil)

// NewNotionRegistry creates a registry over the competitor database.
func NewNotionRegistry(db notion.Client, guard *resilience.Guard) *NotionRegistry {
	if guard == nil {
		guard = resilience.NewGuard("notion", resilience.DefaultPolicy(), nil)
	}
	return &NotionRegistry{db: db, guard: guard}
}

func (r *NotionRegistry) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	pages, err := resilience.Call(ctx, r.guard, "get competitor", func(ctx context.Context) ([]notionapi.Page, error) {
		return r.db.FindByText(ctx, propKey, id)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "crm: get competitor %s", id)
	}
	if len(pages) == 0 {
		return nil, store.ErrNotFound
	}
	if len(pages) > 1 {
		zap.L().Warn("crm: competitor key is not unique, using first page",
			zap.String("competitor_id", id),
			zap.Int("pages", len(pages)),
		)
	}
	c := pageToCompetitor(pages[0])
	return &c, nil
}

func (r *NotionRegistry) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	byName := notionapi.SortObject{Property: propName, Direction: notionapi.SortOrderASC}
	pages, err := resilience.Call(ctx, r.guard, "list competitors", func(ctx context.Context) ([]notionapi.Page, error) {
		return r.db.Pages(ctx, byName)
	})
	if err != nil {
		return nil, eris.Wrap(err, "crm: list competitors")
	}

	out := make([]model.Competitor, 0, len(pages))
	for _, p := range pages {
		if p.Archived {
			continue
		}
		out = append(out, pageToCompetitor(p))
	}
	// Notion sorts by its own collation; match the store ordering.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func pageToCompetitor(p notionapi.Page) model.Competitor {
	id := notion.PlainText(p.Properties, propKey)
	if id == "" {
		id = string(p.ID)
	}
	return model.Competitor{
		ID:                      id,
		Name:                    notion.PlainTitle(p.Properties, propName),
		TargetIndustries:        notion.MultiSelectNames(p.Properties, propIndustries),
		TypicalCustomerSegments: notion.MultiSelectNames(p.Properties, propSegments),
	}
}
