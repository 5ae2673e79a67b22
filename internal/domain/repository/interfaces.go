package repository

import (
	"context"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

// SeriesSource produces a normalized TimeSeries for a known series id.
// Implementations isolate all upstream-format variability; on transport or
// decode failure they return the error, never a partially filled series. An
// empty upstream payload is an empty series, not a failure.
type SeriesSource interface {
	FetchSeries(ctx context.Context, id string, start, end time.Time) (*models.TimeSeries, error)
}

// Filter is one upstream query predicate.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Page bounds one response page.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// RecordSource produces a RecordSet for one query key and endpoint. Records
// are always tagged with the query key so downstream joins remain correct.
type RecordSource interface {
	FetchRecords(ctx context.Context, queryKey, endpoint string, filters []Filter, page Page) (*models.RecordSet, error)
}

// SnapshotSource loads the most recently modified snapshot file. An empty or
// absent snapshot directory yields an empty RecordSet, not an error.
type SnapshotSource interface {
	ReadSnapshot(ctx context.Context) (*models.RecordSet, error)
}

// SeriesStore persists normalized series and record sets. Rewrites per key
// must be idempotent: re-storing the same key never duplicates rows.
type SeriesStore interface {
	Init(ctx context.Context) error
	StoreSeries(ctx context.Context, s *models.TimeSeries, source string) error
	StoreRecords(ctx context.Context, rs *models.RecordSet, endpoint string) error
	Close() error
}

// Publisher emits normalized observations to a topic keyed by series id.
type Publisher interface {
	PublishSeries(ctx context.Context, s *models.TimeSeries, source string) error
	Close() error
}

// PortfolioStore owns the on-disk portfolio file. Writers serialize
// read-modify-write cycles so concurrent sessions never lose updates.
type PortfolioStore interface {
	Load(ctx context.Context) ([]models.PortfolioEntry, error)
	Add(ctx context.Context, e models.PortfolioEntry) error
	Remove(ctx context.Context, location string) (int, error)
}

// Metrics records operational counters for fetches and computations.
type Metrics interface {
	RecordFetch(source, status string)
	RecordError(kind string)
	RecordLastValue(series string, v float64)
	RecordLatency(op string, seconds float64)
	RecordCacheEvent(result string)
}
