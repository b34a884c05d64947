// Package salesforce provides JWT-authenticated, read-only REST API access to
// the Salesforce org that holds customer accounts and competitor exposure.
package salesforce

import (
	"context"
	"fmt"
	"net/http"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client reads the customer population and its competitor exposure.
type Client interface {
	CustomerAccounts(ctx context.Context) ([]Account, error)
	CompetitorExposures(ctx context.Context, competitorKey string) ([]CompetitorExposure, error)
	Describe(ctx context.Context, object string) (*SObjectDescription, error)
}

// transport is the part of *salesforce.Salesforce the client calls.
type transport interface {
	Query(soql string, out any) error
	DoRequest(method, uri string, body []byte, opts ...salesforce.RequestOption) (*http.Response, error)
}

// Option configures the org client.
type Option func(*orgClient)

// WithRateLimit sets a per-second rate limit for SF API calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *orgClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// orgClient builds SOQL for the customer objects and runs it through the
// transport. go-salesforce/v3 takes no context, so ctx only bounds the
// limiter wait and is checked before each request.
type orgClient struct {
	api     transport
	limiter *rate.Limiter
}

// NewClient creates a Client over an authenticated go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...Option) Client {
	var api transport
	if sf != nil {
		api = sf
	}
	return newOrgClient(api, opts...)
}

func newOrgClient(api transport, opts ...Option) *orgClient {
	c := &orgClient{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *orgClient) acquire(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
	}
	return eris.Wrap(ctx.Err(), "sf: rate limit")
}

func (c *orgClient) query(ctx context.Context, soql string, out any) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	return c.api.Query(soql, out)
}

// CustomerAccounts returns every Account with a customer tier set, ordered
// by Id.
func (c *orgClient) CustomerAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.query(ctx, customerAccountsSOQL(), &accounts); err != nil {
		return nil, eris.Wrap(err, "sf: list customer accounts")
	}
	return accounts, nil
}

// CompetitorExposures returns the exposure records for one competitor key,
// ordered by account.
func (c *orgClient) CompetitorExposures(ctx context.Context, competitorKey string) ([]CompetitorExposure, error) {
	var exposures []CompetitorExposure
	if err := c.query(ctx, competitorExposuresSOQL(competitorKey), &exposures); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: list exposures for %s", competitorKey))
	}
	return exposures, nil
}

// Describe fetches field metadata for one SObject.
func (c *orgClient) Describe(ctx context.Context, object string) (*SObjectDescription, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.DoRequest(http.MethodGet, "/sobjects/"+object+"/describe", nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: describe %s", object))
	}
	defer resp.Body.Close() //nolint:errcheck

	var desc SObjectDescription
	if err := decodeJSON(resp.Body, &desc); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: decode describe %s", object))
	}
	return &desc, nil
}
