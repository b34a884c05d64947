package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

func (d *database) Pages(ctx context.Context, sorts ...notionapi.SortObject) ([]notionapi.Page, error) {
	pages, err := d.queryAll(ctx, nil, sorts)
	if err != nil {
		return nil, eris.Wrap(err, "notion: list pages")
	}
	return pages, nil
}

func (d *database) FindByText(ctx context.Context, property, value string) ([]notionapi.Page, error) {
	filter := notionapi.PropertyFilter{
		Property: property,
		RichText: &notionapi.TextFilterCondition{Equals: value},
	}
	pages, err := d.queryAll(ctx, filter, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query %s = %q", property, value)
	}
	return pages, nil
}

type queryResult struct {
	resp *notionapi.DatabaseQueryResponse
	err  error
}

// queryAll follows the result cursor to the last page. Page N+1 is
// requested while page N is appended; the limiter still spaces the calls.
func (d *database) queryAll(ctx context.Context, filter notionapi.Filter, sorts []notionapi.SortObject) ([]notionapi.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	request := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		return &notionapi.DatabaseQueryRequest{Filter: filter, Sorts: sorts, StartCursor: cursor}
	}
	fetch := func(cursor notionapi.Cursor) <-chan queryResult {
		ch := make(chan queryResult, 1)
		go func() {
			resp, err := d.query(ctx, request(cursor))
			ch <- queryResult{resp: resp, err: err}
		}()
		return ch
	}

	var all []notionapi.Page
	next := fetch("")
	for next != nil {
		r := <-next
		if r.err != nil {
			return nil, r.err
		}
		next = nil
		if r.resp.HasMore {
			next = fetch(r.resp.NextCursor)
		}
		all = append(all, r.resp.Results...)
	}
	return all, nil
}
