package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	icache "github.com/timur-ship-it/marketdata-dashboard/internal/service/cache"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/pulse"
	applogger "github.com/timur-ship-it/marketdata-dashboard/pkg/logger"
)

// TTLConfig carries the per-kind fetch cache lifetimes.
type TTLConfig struct {
	Series   time.Duration
	Records  time.Duration
	Snapshot time.Duration
}

// DashboardConfig describes the views the dashboard serves.
type DashboardConfig struct {
	YahooSymbols map[string]string // display name -> ticker
	ISINs        []string
	BondEndpoint string
	PageSize     int
	Years        int
	TTL          TTLConfig
}

// Dashboard assembles the derived comparison views from the source adapters
// through an explicit fetch cache. Adapters stay side-effect-free; all
// caching policy lives here.
type Dashboard struct {
	fred      drepo.SeriesSource
	yahoo     drepo.SeriesSource
	bonds     drepo.RecordSource
	snapshot  drepo.SnapshotSource
	portfolio drepo.PortfolioStore
	cache     *icache.FetchCache
	metrics   drepo.Metrics
	logger    *applogger.Logger
	cfg       DashboardConfig
}

// NewDashboard creates the dashboard use case.
func NewDashboard(
	fred, yahoo drepo.SeriesSource,
	bonds drepo.RecordSource,
	snapshot drepo.SnapshotSource,
	portfolio drepo.PortfolioStore,
	cache *icache.FetchCache,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg DashboardConfig,
) *Dashboard {
	if cfg.BondEndpoint == "" {
		cfg.BondEndpoint = "get_emissions"
	}
	return &Dashboard{
		fred:      fred,
		yahoo:     yahoo,
		bonds:     bonds,
		snapshot:  snapshot,
		portfolio: portfolio,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Spread returns the long/short yield series and their joined spread.
func (d *Dashboard) Spread(ctx context.Context, long, short string, years int) (*models.SpreadView, error) {
	if years <= 0 {
		years = d.cfg.Years
	}
	end := time.Now()
	start := end.AddDate(-years, 0, 0)

	a, err := d.cachedSeries(ctx, d.fred, "fred", long, start, end)
	if err != nil {
		return nil, err
	}
	b, err := d.cachedSeries(ctx, d.fred, "fred", short, start, end)
	if err != nil {
		return nil, err
	}
	return &models.SpreadView{Long: a, Short: b, Spread: JoinAndSpread(a, b)}, nil
}

// Indices returns the latest close and 1-lag change for every configured
// symbol. An unavailable symbol is skipped and logged, not fatal.
func (d *Dashboard) Indices(ctx context.Context) ([]models.IndexQuote, error) {
	names := make([]string, 0, len(d.cfg.YahooSymbols))
	for name := range d.cfg.YahooSymbols {
		names = append(names, name)
	}
	sort.Strings(names)

	quotes := make([]models.IndexQuote, 0, len(names))
	for _, name := range names {
		symbol := d.cfg.YahooSymbols[name]
		s, err := d.cachedSeries(ctx, d.yahoo, "yahoo", symbol, time.Time{}, time.Time{})
		if err != nil {
			d.logger.Warn("index unavailable",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			continue
		}
		latest, ok := s.Latest()
		if !ok {
			continue
		}
		q := models.IndexQuote{Name: name, Symbol: symbol, Close: latest.Value}
		if change, err := PctChange(s, 1); err == nil {
			q.ChangePct = &change
		} else if !errors.Is(err, models.ErrInsufficientData) && !errors.Is(err, models.ErrZeroBase) {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Bonds returns emission summaries for the configured ISINs (or one, when
// isin is set). Per-key failures become empty rows plus a warning; the demo
// sandbox frequently answers with nothing.
func (d *Dashboard) Bonds(ctx context.Context, isin string) ([]models.BondRow, error) {
	isins := d.cfg.ISINs
	if isin != "" {
		isins = []string{isin}
	}

	rows := make([]models.BondRow, 0, len(isins))
	for _, key := range isins {
		rs, err := d.cachedRecords(ctx, key, d.cfg.BondEndpoint)
		if err != nil {
			d.logger.Warn("bond fetch failed",
				applogger.String("isin", key),
				applogger.Error(err),
			)
			continue
		}
		if rs.Empty() {
			continue
		}
		rec := rs.Records[0]
		rows = append(rows, models.BondRow{
			ISIN:     key,
			Issuer:   rec.String("issuer_name_eng"),
			Coupon:   rec.String("coupon"),
			Maturity: rec.String("maturity_date"),
			Currency: rec.String("currency_code"),
		})
	}
	return rows, nil
}

// PropertyMarket returns mean price-per-sqft by location from the newest
// snapshot.
func (d *Dashboard) PropertyMarket(ctx context.Context) (models.AggregatedMetric, error) {
	rs, err := d.cachedSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return GroupMeanRatio(rs, pulse.FieldLocation, pulse.FieldPrice, pulse.FieldArea), nil
}

// Portfolio returns the comparison table for every stored entry plus the
// average over resolved rows.
func (d *Dashboard) Portfolio(ctx context.Context) (*models.PortfolioView, error) {
	entries, err := d.portfolio.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	means, err := d.PropertyMarket(ctx)
	if err != nil {
		return nil, err
	}

	rows := ComparePortfolio(entries, means, means.Keys())
	view := &models.PortfolioView{Rows: rows, MarketSize: len(means)}
	if avg, err := AverageChange(rows); err == nil {
		view.AvgChange = &avg
	}
	return view, nil
}

// AddEntry validates and stores one portfolio entry.
func (d *Dashboard) AddEntry(ctx context.Context, e models.PortfolioEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return d.portfolio.Add(ctx, e)
}

// RemoveEntry removes all entries for a location and reports how many went.
func (d *Dashboard) RemoveEntry(ctx context.Context, location string) (int, error) {
	return d.portfolio.Remove(ctx, location)
}

func (d *Dashboard) cachedSeries(ctx context.Context, src drepo.SeriesSource, source, id string, start, end time.Time) (*models.TimeSeries, error) {
	key := d.cache.Key(source, id)
	if s, ok := d.cache.GetSeries(ctx, key); ok {
		d.metrics.RecordCacheEvent("hit")
		return s, nil
	}
	d.metrics.RecordCacheEvent("miss")

	s, err := src.FetchSeries(ctx, id, start, end)
	if err != nil {
		d.metrics.RecordFetch(source, "error")
		return nil, err
	}
	d.metrics.RecordFetch(source, "ok")
	d.cache.SetSeries(ctx, key, s, d.cfg.TTL.Series)
	return s, nil
}

func (d *Dashboard) cachedRecords(ctx context.Context, queryKey, endpoint string) (*models.RecordSet, error) {
	key := d.cache.Key("cbonds", endpoint, queryKey)
	if rs, ok := d.cache.GetRecords(ctx, key); ok {
		d.metrics.RecordCacheEvent("hit")
		return rs, nil
	}
	d.metrics.RecordCacheEvent("miss")

	rs, err := d.bonds.FetchRecords(ctx, queryKey, endpoint, nil, drepo.Page{Limit: d.cfg.PageSize})
	if err != nil {
		d.metrics.RecordFetch("cbonds", "error")
		return nil, err
	}
	d.metrics.RecordFetch("cbonds", "ok")
	d.cache.SetRecords(ctx, key, rs, d.cfg.TTL.Records)
	return rs, nil
}

func (d *Dashboard) cachedSnapshot(ctx context.Context) (*models.RecordSet, error) {
	key := d.cache.Key("pulse", "latest")
	if rs, ok := d.cache.GetRecords(ctx, key); ok {
		d.metrics.RecordCacheEvent("hit")
		return rs, nil
	}
	d.metrics.RecordCacheEvent("miss")

	rs, err := d.snapshot.ReadSnapshot(ctx)
	if err != nil {
		d.metrics.RecordFetch("pulse", "error")
		return nil, err
	}
	d.metrics.RecordFetch("pulse", "ok")
	d.cache.SetRecords(ctx, key, rs, d.cfg.TTL.Snapshot)
	return rs, nil
}
