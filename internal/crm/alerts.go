package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/resilience"
	"github.com/sells-group/competitive-intel/pkg/notion"
)

// AlertPublisher writes one page per analysis into a Notion alert database
// so account teams can triage it.
type AlertPublisher struct {
	db    notion.Client
	guard *resilience.Guard
}

// NewAlertPublisher creates a publisher over the alert database.
func NewAlertPublisher(db notion.Client, guard *resilience.Guard) *AlertPublisher {
	if guard == nil {
		guard = resilience.NewGuard("notion", resilience.DefaultPolicy(), nil)
	}
	return &AlertPublisher{db: db, guard: guard}
}

// propSignalID holds the signal id on alert pages. Republishing a signal
// updates its existing page.
const propSignalID = "Signal ID"

// Publish writes the alert page for a and returns its page ID.
func (p *AlertPublisher) Publish(ctx context.Context, a *model.Analysis) (string, error) {
	props := alertProperties(a)

	existing, err := p.findPage(ctx, a)
	if err != nil {
		return "", eris.Wrapf(err, "crm: publish analysis %s", a.ID)
	}
	if existing != "" {
		_, err := resilience.Call(ctx, p.guard, "update alert", func(ctx context.Context) (*notionapi.Page, error) {
			return p.db.Update(ctx, existing, props)
		})
		if err != nil {
			return "", eris.Wrapf(err, "crm: publish analysis %s", a.ID)
		}
		return existing, nil
	}

	page, err := resilience.Call(ctx, p.guard, "create alert", func(ctx context.Context) (*notionapi.Page, error) {
		return p.db.Create(ctx, props)
	})
	if err != nil {
		return "", eris.Wrapf(err, "crm: publish analysis %s", a.ID)
	}
	return string(page.ID), nil
}

// findPage returns the page already published for a's signal, or "".
// Ad-hoc analyses have no signal and always get a new page.
func (p *AlertPublisher) findPage(ctx context.Context, a *model.Analysis) (string, error) {
	if a.Signal == nil || a.Signal.ID == "" {
		return "", nil
	}
	pages, err := resilience.Call(ctx, p.guard, "find alert", func(ctx context.Context) ([]notionapi.Page, error) {
		return p.db.FindByText(ctx, propSignalID, a.Signal.ID)
	})
	if err != nil || len(pages) == 0 {
		return "", err
	}
	return string(pages[0].ID), nil
}

// PublishDigest publishes every analysis in d that affects at least one
// customer and returns the number of pages written.
func (p *AlertPublisher) PublishDigest(ctx context.Context, d *impact.Digest) (int, error) {
	published := 0
	for i := range d.Analyses {
		a := &d.Analyses[i]
		if a.TotalAffected() == 0 {
			continue
		}
		pageID, err := p.Publish(ctx, a)
		if err != nil {
			return published, err
		}
		published++
		zap.L().Info("crm: published alert",
			zap.String("analysis_id", a.ID),
			zap.String("page_id", pageID),
			zap.Int("affected", a.TotalAffected()),
		)
	}
	return published, nil
}

func alertTitle(a *model.Analysis) string {
	if a.Signal != nil && a.Signal.Title != "" {
		return a.Signal.Title
	}
	return fmt.Sprintf("%s: %s", a.Competitor.Name, cases.Title(language.English).String(strings.ReplaceAll(string(a.SignalType), "_", " ")))
}

func alertProperties(a *model.Analysis) notionapi.Properties {
	props := notionapi.Properties{
		"Name":          notion.Title(alertTitle(a)),
		"Competitor":    notion.Text(a.Competitor.Name),
		"Signal Type":   notion.Select(string(a.SignalType)),
		"Affected":      notion.Number(float64(a.TotalAffected())),
		"Critical":      notion.Number(float64(a.Summary.CriticalRisk)),
		"High":          notion.Number(float64(a.Summary.HighRisk)),
		"Value At Risk": notion.Number(a.Summary.TotalAccountValueAtRisk),
		"Generated":     notion.Date(a.GeneratedAt),
		"Analysis ID":   notion.Text(a.ID),
	}
	if a.Signal != nil {
		props[propSignalID] = notion.Text(a.Signal.ID)
		if a.Signal.SourceURL != "" {
			props["Source"] = notion.URL(a.Signal.SourceURL)
		}
	}
	return props
}
