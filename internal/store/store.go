package store

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitive-intel/internal/model"
)

// ErrNotFound is returned when a competitor or signal does not exist.
var ErrNotFound = eris.New("store: not found")

// SignalFilter specifies criteria for listing signals.
type SignalFilter struct {
	CompetitorID string             `json:"competitor_id,omitempty"`
	Types        []model.SignalType `json:"types,omitempty"`
	Since        time.Time          `json:"since,omitempty"`
	Until        time.Time          `json:"until,omitempty"`
	Limit        int                `json:"limit,omitempty"`
}

// CompetitorRepository provides read access to tracked competitors.
type CompetitorRepository interface {
	GetCompetitor(ctx context.Context, id string) (*model.Competitor, error)
	ListCompetitors(ctx context.Context) ([]model.Competitor, error)
}

// CustomerRepository provides read access to the customer population.
type CustomerRepository interface {
	// ListCustomersWithExposure returns the customer population in a stable
	// order. Each customer's Exposure map carries the record for
	// competitorID when one exists.
	ListCustomersWithExposure(ctx context.Context, competitorID string) ([]model.Customer, error)
}

// SignalRepository provides the time-windowed signal feed.
type SignalRepository interface {
	GetSignal(ctx context.Context, id string) (*model.Signal, error)
	// ListSignals returns matching signals, newest first.
	ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error)
}

// Store bundles the repositories backed by a single database.
type Store interface {
	CompetitorRepository
	CustomerRepository
	SignalRepository

	// Seed upserts every record in f.
	Seed(ctx context.Context, f *Fixture) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Compile-time interface checks.
var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// defaultSignalLimit caps signal listings when no limit is given.
const defaultSignalLimit = 500

func signalLimit(f SignalFilter) int {
	if f.Limit <= 0 {
		return defaultSignalLimit
	}
	return f.Limit
}

func matchesSignal(f SignalFilter, sig model.Signal) bool {
	if f.CompetitorID != "" && sig.CompetitorID != f.CompetitorID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, sig.Type) {
		return false
	}
	if !f.Since.IsZero() && sig.DetectedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && sig.DetectedAt.After(f.Until) {
		return false
	}
	return true
}

func typeStrings(types []model.SignalType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
