package crm

import (
	"context"
	"sync"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/resilience"
	"github.com/sells-group/competitive-intel/pkg/salesforce"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fastGuard(service string) *resilience.Guard {
	return resilience.NewGuard(service, resilience.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, resilience.NewBreaker(10, time.Minute))
}

// fakeSalesforce serves canned org data. It is called from concurrent
// goroutines.
type fakeSalesforce struct {
	mu        sync.Mutex
	accounts  func() ([]salesforce.Account, error)
	exposures func(competitorKey string) ([]salesforce.CompetitorExposure, error)
	describe  func(name string) (*salesforce.SObjectDescription, error)
	calls     map[string]int
}

func (f *fakeSalesforce) count(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[key]++
}

func (f *fakeSalesforce) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSalesforce) CustomerAccounts(context.Context) ([]salesforce.Account, error) {
	f.count("accounts")
	return f.accounts()
}

func (f *fakeSalesforce) CompetitorExposures(_ context.Context, competitorKey string) ([]salesforce.CompetitorExposure, error) {
	f.count("exposures")
	return f.exposures(competitorKey)
}

func (f *fakeSalesforce) Describe(_ context.Context, name string) (*salesforce.SObjectDescription, error) {
	f.count("describe")
	return f.describe(name)
}

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) Pages(ctx context.Context, sorts ...notionapi.SortObject) ([]notionapi.Page, error) {
	args := m.Called(ctx, sorts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notionapi.Page), args.Error(1)
}

func (m *mockNotion) FindByText(ctx context.Context, property, value string) ([]notionapi.Page, error) {
	args := m.Called(ctx, property, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notionapi.Page), args.Error(1)
}

func (m *mockNotion) Create(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error) {
	args := m.Called(ctx, props)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotion) Update(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, props)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func competitorPage(pageID, key, name string, industries, segments []string) notionapi.Page {
	opts := func(names []string) []notionapi.Option {
		out := make([]notionapi.Option, 0, len(names))
		for _, n := range names {
			out = append(out, notionapi.Option{Name: n})
		}
		return out
	}
	props := notionapi.Properties{
		"Name":              &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: name}}},
		"Target Industries": &notionapi.MultiSelectProperty{MultiSelect: opts(industries)},
		"Customer Segments": &notionapi.MultiSelectProperty{MultiSelect: opts(segments)},
	}
	if key != "" {
		props["Key"] = &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: key}}}
	}
	return notionapi.Page{ID: notionapi.ObjectID(pageID), Properties: props}
}
