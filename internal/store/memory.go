package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/sells-group/competitive-intel/internal/model"
)

// MemoryStore is an in-process Store backed by a Fixture. It is used for
// local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	competitors []model.Competitor
	customers   []model.Customer
	signals     []model.Signal
}

// NewMemoryStore creates a MemoryStore seeded with f. f may be nil.
func NewMemoryStore(f *Fixture) *MemoryStore {
	s := &MemoryStore{}
	if f != nil {
		_ = s.Seed(context.Background(), f)
	}
	return s
}

// Seed upserts the fixture's records by id.
func (s *MemoryStore) Seed(_ context.Context, f *Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range f.Competitors {
		s.competitors = upsertByID(s.competitors, c, func(x model.Competitor) string { return x.ID })
	}
	for _, c := range f.Customers {
		s.customers = upsertByID(s.customers, c, func(x model.Customer) string { return x.ID })
	}
	for _, sig := range f.Signals {
		s.signals = upsertByID(s.signals, sig, func(x model.Signal) string { return x.ID })
	}
	return nil
}

func upsertByID[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func (s *MemoryStore) GetCompetitor(_ context.Context, id string) (*model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.competitors {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListCompetitors(_ context.Context) ([]model.Competitor, error) {
	s.mu.RLock()
	out := slices.Clone(s.competitors)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b model.Competitor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// ListCustomersWithExposure returns every customer in seed order. Only the
// exposure record for competitorID is retained.
func (s *MemoryStore) ListCustomersWithExposure(_ context.Context, competitorID string) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Customer, len(s.customers))
	for i, c := range s.customers {
		out[i] = c
		out[i].Exposure = nil
		if exp := c.ExposureTo(competitorID); exp != nil {
			e := *exp
			out[i].Exposure = map[string]*model.CustomerExposure{competitorID: &e}
		}
	}
	return out, nil
}

func (s *MemoryStore) GetSignal(_ context.Context, id string) (*model.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sig := range s.signals {
		if sig.ID == id {
			return &sig, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListSignals(_ context.Context, filter SignalFilter) ([]model.Signal, error) {
	s.mu.RLock()
	var out []model.Signal
	for _, sig := range s.signals {
		if matchesSignal(filter, sig) {
			out = append(out, sig)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b model.Signal) int {
		return cmp.Or(b.DetectedAt.Compare(a.DetectedAt), cmp.Compare(a.ID, b.ID))
	})
	if limit := signalLimit(filter); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func itoa(i int) string { return strconv.Itoa(i) }
