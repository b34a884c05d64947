// Package notion wraps the Notion API for the competitor registry database
// and the alert database that digests are published to.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client reads and writes the pages of one Notion database.
type Client interface {
	// Pages returns every page in the database in the given order.
	Pages(ctx context.Context, sorts ...notionapi.SortObject) ([]notionapi.Page, error)
	// FindByText returns the pages whose rich_text property equals value.
	FindByText(ctx context.Context, property, value string) ([]notionapi.Page, error)
	Create(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error)
	Update(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error)
}

// Option configures a database client.
type Option func(*database)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) Option {
	return func(d *database) {
		if rps > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			d.limiter = nil
		}
	}
}

// database implements Client over the SDK's database and page services.
type database struct {
	id      notionapi.DatabaseID
	dbs     notionapi.DatabaseService
	pages   notionapi.PageService
	limiter *rate.Limiter
}

// NewClient creates a Client for database dbID using the integration
// token. Calls are throttled to 3 req/s by default, Notion's published
// limit.
func NewClient(token, dbID string, opts ...Option) Client {
	api := notionapi.NewClient(notionapi.Token(token))
	return newDatabase(api.Database, api.Page, dbID, opts...)
}

func newDatabase(dbs notionapi.DatabaseService, pages notionapi.PageService, dbID string, opts ...Option) *database {
	d := &database{
		id:      notionapi.DatabaseID(dbID),
		dbs:     dbs,
		pages:   pages,
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *database) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return eris.Wrap(d.limiter.Wait(ctx), "notion: rate limit")
}

func (d *database) query(ctx context.Context, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := d.dbs.Query(ctx, d.id, req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", d.id)
	}
	return resp, nil
}

func (d *database) Create(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	page, err := d.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: d.id,
		},
		Properties: props,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: create page in %s", d.id)
	}
	return page, nil
}

func (d *database) Update(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	page, err := d.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: update page %s", pageID)
	}
	return page, nil
}
