package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	icache "github.com/timur-ship-it/marketdata-dashboard/internal/service/cache"
	pkgcache "github.com/timur-ship-it/marketdata-dashboard/pkg/cache"
)

type fakeSnapshot struct {
	rs    *models.RecordSet
	calls int
}

func (f *fakeSnapshot) ReadSnapshot(ctx context.Context) (*models.RecordSet, error) {
	f.calls++
	return f.rs, nil
}

type fakePortfolio struct {
	entries []models.PortfolioEntry
}

func (f *fakePortfolio) Load(ctx context.Context) ([]models.PortfolioEntry, error) {
	return f.entries, nil
}
func (f *fakePortfolio) Add(ctx context.Context, e models.PortfolioEntry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *fakePortfolio) Remove(ctx context.Context, location string) (int, error) {
	return 0, models.ErrNotFound
}

func newTestDashboard(t *testing.T, fred, yahoo *fakeSeriesSource, bonds *fakeRecordSource, snap *fakeSnapshot, pf *fakePortfolio) *Dashboard {
	t.Helper()
	if bonds == nil {
		bonds = &fakeRecordSource{}
	}
	if snap == nil {
		snap = &fakeSnapshot{rs: models.NewRecordSet("", "snapshot", nil)}
	}
	if pf == nil {
		pf = &fakePortfolio{}
	}
	return NewDashboard(
		fred, yahoo, bonds, snap, pf,
		icache.NewFetchCache(pkgcache.NewMemoryCache(), time.Hour),
		noopMetrics{}, testLogger(t),
		DashboardConfig{
			YahooSymbols: map[string]string{"SP500": "^GSPC"},
			ISINs:        []string{"XS1"},
			PageSize:     20,
			Years:        5,
			TTL:          TTLConfig{Series: time.Minute, Records: time.Minute, Snapshot: time.Minute},
		},
	)
}

func TestDashboardSpread(t *testing.T) {
	fred := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"DGS10": series(t, "DGS10", map[string]float64{
			"2024-01-02": 4.0, "2024-01-03": 4.1,
		}),
		"DGS1MO": series(t, "DGS1MO", map[string]float64{
			"2024-01-02": 5.4, "2024-01-03": 5.3,
		}),
	}}
	d := newTestDashboard(t, fred, &fakeSeriesSource{}, nil, nil, nil)

	view, err := d.Spread(context.Background(), "DGS10", "DGS1MO", 0)
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	if view.Spread.Len() != 2 {
		t.Fatalf("spread len = %d", view.Spread.Len())
	}
	if got := view.Spread.Points[0].Value; math.Abs(got-(4.0-5.4)) > 1e-9 {
		t.Fatalf("spread[0] = %v", got)
	}
}

func TestDashboardSpreadUsesCache(t *testing.T) {
	fred := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"DGS10":  series(t, "DGS10", map[string]float64{"2024-01-02": 4.0}),
		"DGS1MO": series(t, "DGS1MO", map[string]float64{"2024-01-02": 5.4}),
	}}
	d := newTestDashboard(t, fred, &fakeSeriesSource{}, nil, nil, nil)
	ctx := context.Background()

	if _, err := d.Spread(ctx, "DGS10", "DGS1MO", 0); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := d.Spread(ctx, "DGS10", "DGS1MO", 0); err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(fred.calls) != 2 {
		t.Fatalf("upstream calls = %v, want one per series", fred.calls)
	}
}

func TestDashboardIndicesSkipsUnavailable(t *testing.T) {
	yahoo := &fakeSeriesSource{series: map[string]*models.TimeSeries{
		"^GSPC": series(t, "^GSPC", map[string]float64{
			"2024-01-02": 100, "2024-01-03": 110,
		}),
	}}
	d := newTestDashboard(t, &fakeSeriesSource{}, yahoo, nil, nil, nil)
	d.cfg.YahooSymbols = map[string]string{"SP500": "^GSPC", "BROKEN": "^NOPE"}
	yahoo.err = map[string]error{"^NOPE": models.ErrTransport}

	quotes, err := d.Indices(context.Background())
	if err != nil {
		t.Fatalf("Indices: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %+v, want the healthy symbol only", quotes)
	}
	q := quotes[0]
	if q.Name != "SP500" || q.Close != 110 {
		t.Fatalf("quote = %+v", q)
	}
	if q.ChangePct == nil || math.Abs(*q.ChangePct-10.0) > 1e-9 {
		t.Fatalf("change = %v, want +10.0", q.ChangePct)
	}
}

func TestDashboardBonds(t *testing.T) {
	bonds := &fakeRecordSource{sets: map[string]*models.RecordSet{
		"XS1": models.NewRecordSet("XS1", "isin", []models.Record{{
			"issuer_name_eng": "Test Issuer",
			"coupon":          "5.5",
			"maturity_date":   "2030-01-01",
			"currency_code":   "USD",
		}}),
	}}
	d := newTestDashboard(t, &fakeSeriesSource{}, &fakeSeriesSource{}, bonds, nil, nil)

	rows, err := d.Bonds(context.Background(), "")
	if err != nil {
		t.Fatalf("Bonds: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Issuer != "Test Issuer" || rows[0].Currency != "USD" {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestDashboardPortfolio(t *testing.T) {
	snap := &fakeSnapshot{rs: models.NewRecordSet("run.csv", "snapshot", []models.Record{
		{"location": "Downtown", "price": "1200000", "area": "1000"},
		{"location": "Downtown", "price": "600000", "area": "500"},
	})}
	pf := &fakePortfolio{entries: []models.PortfolioEntry{
		{Location: "Dwntwn", Price: 1_000_000, Area: 1000},
	}}
	d := newTestDashboard(t, &fakeSeriesSource{}, &fakeSeriesSource{}, nil, snap, pf)

	view, err := d.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(view.Rows) != 1 {
		t.Fatalf("rows = %+v", view.Rows)
	}
	r := view.Rows[0]
	if r.Resolved != "Downtown" {
		t.Fatalf("resolved = %q", r.Resolved)
	}
	// Market ppsf is 1200, yours is 1000: +20%.
	if r.ChangePct == nil || math.Abs(*r.ChangePct-20.0) > 1e-9 {
		t.Fatalf("change = %v, want +20.0", r.ChangePct)
	}
	if view.AvgChange == nil || math.Abs(*view.AvgChange-20.0) > 1e-9 {
		t.Fatalf("avg = %v, want +20.0", view.AvgChange)
	}
}

func TestDashboardAddEntryValidates(t *testing.T) {
	pf := &fakePortfolio{}
	d := newTestDashboard(t, &fakeSeriesSource{}, &fakeSeriesSource{}, nil, nil, pf)
	ctx := context.Background()

	if err := d.AddEntry(ctx, models.PortfolioEntry{Location: "X", Price: -1, Area: 1}); err == nil {
		t.Fatal("invalid entry accepted")
	}
	if len(pf.entries) != 0 {
		t.Fatal("invalid entry stored")
	}
	if err := d.AddEntry(ctx, models.PortfolioEntry{Location: "X", Price: 1, Area: 1}); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}
	if len(pf.entries) != 1 {
		t.Fatal("valid entry not stored")
	}
}
