package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/ratelimit"
	applogger "github.com/timur-ship-it/marketdata-dashboard/pkg/logger"
)

// RefreshConfig describes one refresh batch.
type RefreshConfig struct {
	FredSeries   []string
	YahooSymbols map[string]string // display name -> ticker
	ISINs        []string
	Endpoints    []string
	PageSize     int
	Years        int
	Backend      string // csv, clickhouse or kafka
	RateCapacity float64
	RateRefill   float64
}

// RefreshResult totals one run.
type RefreshResult struct {
	Fetched int
	Failed  int
	Rows    int
}

// MarketRefresh pulls every configured series and record set and routes the
// normalized output to the configured backend. Keys are processed
// sequentially in config order, so the persisted output is deterministic. A
// failure on one key is logged and counted; it never aborts the batch.
type MarketRefresh struct {
	fred    drepo.SeriesSource
	yahoo   drepo.SeriesSource
	bonds   drepo.RecordSource
	store   drepo.SeriesStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	logger  *applogger.Logger
	limiter *ratelimit.Limiter
	cfg     RefreshConfig
}

// NewMarketRefresh creates the refresh use case.
func NewMarketRefresh(
	fred, yahoo drepo.SeriesSource,
	bonds drepo.RecordSource,
	store drepo.SeriesStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg RefreshConfig,
) *MarketRefresh {
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 5
	}
	if cfg.RateRefill <= 0 {
		cfg.RateRefill = 2
	}
	return &MarketRefresh{
		fred:    fred,
		yahoo:   yahoo,
		bonds:   bonds,
		store:   store,
		pub:     pub,
		metrics: metrics,
		logger:  logger,
		limiter: ratelimit.New(),
		cfg:     cfg,
	}
}

// Run executes one full refresh and reports per-key totals.
func (r *MarketRefresh) Run(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()
	res := &RefreshResult{}

	if r.store != nil {
		if err := r.store.Init(ctx); err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	end := time.Now()
	var seriesStart time.Time
	if r.cfg.Years > 0 {
		seriesStart = end.AddDate(-r.cfg.Years, 0, 0)
	}

	for _, id := range r.cfg.FredSeries {
		r.refreshSeries(ctx, r.fred, "fred", id, seriesStart, end, res)
	}
	// Symbols come from a map; sort so runs are deterministic.
	for _, symbol := range sortedValues(r.cfg.YahooSymbols) {
		r.refreshSeries(ctx, r.yahoo, "yahoo", symbol, seriesStart, end, res)
	}
	r.refreshBonds(ctx, res)

	r.metrics.RecordLatency("refresh", time.Since(start).Seconds())
	r.logger.Info("refresh complete",
		applogger.Int("fetched", res.Fetched),
		applogger.Int("failed", res.Failed),
		applogger.Int("rows", res.Rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

func (r *MarketRefresh) refreshSeries(ctx context.Context, src drepo.SeriesSource, source, id string, start, end time.Time, res *RefreshResult) {
	if err := r.limiter.Wait(ctx, source, r.cfg.RateCapacity, r.cfg.RateRefill); err != nil {
		res.Failed++
		return
	}

	s, err := src.FetchSeries(ctx, id, start, end)
	if err != nil {
		r.metrics.RecordFetch(source, "error")
		r.metrics.RecordError("fetch")
		r.logger.Warn("series fetch failed",
			applogger.String("source", source),
			applogger.String("series", id),
			applogger.Error(err),
		)
		res.Failed++
		return
	}
	r.metrics.RecordFetch(source, "ok")
	if latest, ok := s.Latest(); ok {
		r.metrics.RecordLastValue(id, latest.Value)
	}

	if err := r.persistSeries(ctx, s, source); err != nil {
		r.metrics.RecordError("persist")
		r.logger.Warn("series persist failed",
			applogger.String("series", id),
			applogger.Error(err),
		)
		res.Failed++
		return
	}
	res.Fetched++
	res.Rows += s.Len()
}

func (r *MarketRefresh) refreshBonds(ctx context.Context, res *RefreshResult) {
	if r.bonds == nil {
		return
	}
	page := drepo.Page{Limit: r.cfg.PageSize}
	for _, isin := range r.cfg.ISINs {
		for _, endpoint := range r.cfg.Endpoints {
			if err := r.limiter.Wait(ctx, "cbonds", r.cfg.RateCapacity, r.cfg.RateRefill); err != nil {
				res.Failed++
				continue
			}
			rs, err := r.bonds.FetchRecords(ctx, isin, endpoint, nil, page)
			if err != nil {
				r.metrics.RecordFetch("cbonds", "error")
				r.metrics.RecordError("fetch")
				r.logger.Warn("records fetch failed",
					applogger.String("isin", isin),
					applogger.String("endpoint", endpoint),
					applogger.Error(err),
				)
				res.Failed++
				continue
			}
			r.metrics.RecordFetch("cbonds", "ok")
			if r.store != nil {
				if err := r.store.StoreRecords(ctx, rs, endpoint); err != nil {
					r.metrics.RecordError("persist")
					r.logger.Warn("records persist failed",
						applogger.String("isin", isin),
						applogger.Error(err),
					)
					res.Failed++
					continue
				}
			}
			res.Fetched++
			res.Rows += rs.Len()
		}
	}
}

// persistSeries routes one series to the configured backend, the same
// switch the API-facing side never sees.
func (r *MarketRefresh) persistSeries(ctx context.Context, s *models.TimeSeries, source string) error {
	switch r.cfg.Backend {
	case "kafka":
		if r.pub == nil {
			return fmt.Errorf("kafka backend selected but no publisher wired")
		}
		return r.pub.PublishSeries(ctx, s, source)
	case "csv", "clickhouse":
		if r.store == nil {
			return fmt.Errorf("%s backend selected but no store wired", r.cfg.Backend)
		}
		return r.store.StoreSeries(ctx, s, source)
	default:
		return fmt.Errorf("unknown backend: %s", r.cfg.Backend)
	}
}

// sortedValues returns map values ordered by key.
func sortedValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Close releases backend resources.
func (r *MarketRefresh) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.pub != nil {
		_ = r.pub.Close()
	}
}
