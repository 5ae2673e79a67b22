package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	applogger "github.com/timur-ship-it/marketdata-dashboard/pkg/logger"
)

type fakeSeriesSource struct {
	series map[string]*models.TimeSeries
	err    map[string]error
	calls  []string
}

func (f *fakeSeriesSource) FetchSeries(ctx context.Context, id string, start, end time.Time) (*models.TimeSeries, error) {
	f.calls = append(f.calls, id)
	if err, ok := f.err[id]; ok {
		return nil, err
	}
	if s, ok := f.series[id]; ok {
		return s, nil
	}
	return models.NewTimeSeries(id, nil), nil
}

type fakeRecordSource struct {
	sets  map[string]*models.RecordSet
	err   error
	calls []string
}

func (f *fakeRecordSource) FetchRecords(ctx context.Context, queryKey, endpoint string, filters []drepo.Filter, page drepo.Page) (*models.RecordSet, error) {
	f.calls = append(f.calls, queryKey+"/"+endpoint)
	if f.err != nil {
		return nil, f.err
	}
	if rs, ok := f.sets[queryKey]; ok {
		return rs, nil
	}
	return models.NewRecordSet(queryKey, "isin", nil), nil
}

type fakeStore struct {
	inited  bool
	series  []string
	records []string
}

func (f *fakeStore) Init(ctx context.Context) error { f.inited = true; return nil }
func (f *fakeStore) StoreSeries(ctx context.Context, s *models.TimeSeries, source string) error {
	f.series = append(f.series, s.ID)
	return nil
}
func (f *fakeStore) StoreRecords(ctx context.Context, rs *models.RecordSet, endpoint string) error {
	f.records = append(f.records, rs.QueryKey+"/"+endpoint)
	return nil
}
func (f *fakeStore) Close() error { return nil }

type fakePublisher struct {
	series []string
}

func (f *fakePublisher) PublishSeries(ctx context.Context, s *models.TimeSeries, source string) error {
	f.series = append(f.series, s.ID)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordFetch(source, status string)    {}
func (noopMetrics) RecordError(kind string)              {}
func (noopMetrics) RecordLastValue(series string, v float64) {}
func (noopMetrics) RecordLatency(op string, seconds float64) {}
func (noopMetrics) RecordCacheEvent(result string)       {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func refreshConfig() RefreshConfig {
	return RefreshConfig{
		FredSeries:   []string{"DGS10", "DGS1MO"},
		YahooSymbols: map[string]string{"SP500": "^GSPC"},
		ISINs:        []string{"XS1"},
		Endpoints:    []string{"get_emissions"},
		Backend:      "csv",
		RateCapacity: 1000,
		RateRefill:   1000,
	}
}

func TestMarketRefreshRun(t *testing.T) {
	fred := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"DGS10":  series(t, "DGS10", map[string]float64{"2024-01-02": 4.0}),
		"DGS1MO": series(t, "DGS1MO", map[string]float64{"2024-01-02": 5.4}),
	}}
	yh := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"^GSPC": series(t, "^GSPC", map[string]float64{"2024-01-02": 4700}),
	}}
	bonds := &fakeRecordSource{sets: map[string]*models.RecordSet{
		"XS1": models.NewRecordSet("XS1", "isin", []models.Record{{"coupon": "5.5"}}),
	}}
	store := &fakeStore{}

	r := NewMarketRefresh(fred, yh, bonds, store, nil, noopMetrics{}, testLogger(t), refreshConfig())
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !store.inited {
		t.Fatal("store not initialized")
	}
	if res.Failed != 0 {
		t.Fatalf("failed = %d, want 0", res.Failed)
	}
	// 2 fred series + 1 yahoo + 1 bond page
	if res.Fetched != 4 {
		t.Fatalf("fetched = %d, want 4", res.Fetched)
	}
	if len(store.series) != 3 {
		t.Fatalf("stored series = %v", store.series)
	}
	if len(store.records) != 1 || store.records[0] != "XS1/get_emissions" {
		t.Fatalf("stored records = %v", store.records)
	}
}

func TestMarketRefreshKeyFailureDoesNotAbort(t *testing.T) {
	fred := &fakeSeriesSource{
		series: map[string]*models.TimeSeries{
			"DGS1MO": series(t, "DGS1MO", map[string]float64{"2024-01-02": 5.4}),
		},
		err: map[string]error{"DGS10": errors.New("boom")},
	}
	yh := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"^GSPC": series(t, "^GSPC", map[string]float64{"2024-01-02": 4700}),
	}}
	store := &fakeStore{}

	r := NewMarketRefresh(fred, yh, nil, store, nil, noopMetrics{}, testLogger(t), refreshConfig())
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("failed = %d, want 1", res.Failed)
	}
	if res.Fetched != 2 {
		t.Fatalf("fetched = %d, want 2 (remaining keys still processed)", res.Fetched)
	}
}

func TestMarketRefreshKafkaBackend(t *testing.T) {
	fred := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"DGS10": series(t, "DGS10", map[string]float64{"2024-01-02": 4.0}),
	}}
	pub := &fakePublisher{}

	cfg := refreshConfig()
	cfg.FredSeries = []string{"DGS10"}
	cfg.YahooSymbols = nil
	cfg.ISINs = nil
	cfg.Backend = "kafka"

	r := NewMarketRefresh(fred, &fakeSeriesSource{}, nil, nil, pub, noopMetrics{}, testLogger(t), cfg)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fetched != 1 || len(pub.series) != 1 || pub.series[0] != "DGS10" {
		t.Fatalf("published = %v, fetched = %d", pub.series, res.Fetched)
	}
}

func TestMarketRefreshDeterministicSymbolOrder(t *testing.T) {
	yh := &fakeSeriesSource{}
	cfg := refreshConfig()
	cfg.FredSeries = nil
	cfg.ISINs = nil
	cfg.YahooSymbols = map[string]string{
		"SP500":  "^GSPC",
		"DJIA":   "^DJI",
		"NASDAQ": "^IXIC",
	}

	r := NewMarketRefresh(&fakeSeriesSource{}, yh, nil, &fakeStore{}, nil, noopMetrics{}, testLogger(t), cfg)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Sorted by display name: DJIA, NASDAQ, SP500.
	want := []string{"^DJI", "^IXIC", "^GSPC"}
	if len(yh.calls) != len(want) {
		t.Fatalf("calls = %v", yh.calls)
	}
	for i, w := range want {
		if yh.calls[i] != w {
			t.Fatalf("calls = %v, want %v", yh.calls, want)
		}
	}
}
