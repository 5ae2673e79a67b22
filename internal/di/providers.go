package di

import (
	"fmt"
	"net"
	"strconv"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	"github.com/timur-ship-it/marketdata-dashboard/internal/handler/api"
	internalrepo "github.com/timur-ship-it/marketdata-dashboard/internal/repository"
	icache "github.com/timur-ship-it/marketdata-dashboard/internal/service/cache"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/cbonds"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/fred"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/pulse"
	"github.com/timur-ship-it/marketdata-dashboard/internal/service/yahoo"
	"github.com/timur-ship-it/marketdata-dashboard/internal/usecase"
	pkgcache "github.com/timur-ship-it/marketdata-dashboard/pkg/cache"
	pkgch "github.com/timur-ship-it/marketdata-dashboard/pkg/clickhouse"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/config"
	pkgkafka "github.com/timur-ship-it/marketdata-dashboard/pkg/kafka"
	applogger "github.com/timur-ship-it/marketdata-dashboard/pkg/logger"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/metrics"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/server"
)

// Sources bundles the upstream adapters so wire can carry them as one value.
type Sources struct {
	FRED     repository.SeriesSource
	Yahoo    repository.SeriesSource
	Bonds    repository.RecordSource
	Snapshot repository.SnapshotSource
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSources creates all upstream source adapters.
func ProvideSources(cfg *config.Config) *Sources {
	schema := pulse.DefaultSchema()
	if cfg.Pulse.Variant == "sqm" {
		schema = pulse.MetricSchema()
	}
	return &Sources{
		FRED:     fred.New(cfg.FRED.APIKey, cfg.FRED.BaseURL, cfg.FRED.Timeout),
		Yahoo:    yahoo.New(cfg.Yahoo.BaseURL, cfg.Yahoo.Range, cfg.Yahoo.Interval, cfg.Yahoo.Timeout),
		Bonds:    cbonds.New(cfg.Cbonds.BaseURL, cfg.Cbonds.Login, cfg.Cbonds.Password, cfg.Cbonds.Timeout),
		Snapshot: pulse.NewReader(cfg.Pulse.Dir, schema),
	}
}

// ProvideCacheService selects the cache backend: Redis when enabled, an
// in-process cache otherwise.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("cache.redis.addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("cache.redis.addr port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
}

// ProvideFetchCache wraps the cache service with fetch-result keying.
func ProvideFetchCache(svc pkgcache.Service) *icache.FetchCache {
	return icache.NewFetchCache(svc, 0)
}

// ProvidePortfolioStore creates the file-backed portfolio store.
func ProvidePortfolioStore(cfg *config.Config) repository.PortfolioStore {
	return internalrepo.NewCSVPortfolioStore(cfg.Portfolio.Path)
}

// ProvideDashboard creates the dashboard use case.
func ProvideDashboard(
	cfg *config.Config,
	src *Sources,
	portfolio repository.PortfolioStore,
	cache *icache.FetchCache,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.Dashboard {
	return usecase.NewDashboard(
		src.FRED, src.Yahoo,
		src.Bonds,
		src.Snapshot,
		portfolio,
		cache,
		m,
		logger,
		usecase.DashboardConfig{
			YahooSymbols: cfg.Yahoo.Symbols,
			ISINs:        cfg.Cbonds.ISINs,
			PageSize:     cfg.Cbonds.PageSize,
			Years:        cfg.FRED.Years,
			TTL: usecase.TTLConfig{
				Series:   cfg.Cache.TTL.Series,
				Records:  cfg.Cache.TTL.Records,
				Snapshot: cfg.Cache.TTL.Snapshot,
			},
		},
	)
}

// ProvideDashboardHandler creates the Echo handler.
func ProvideDashboardHandler(logger *applogger.Logger, dash *usecase.Dashboard, cfg *config.Config) *api.DashboardEchoHandler {
	return api.NewDashboardEchoHandler(logger, dash, cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, logger *applogger.Logger, handler *api.DashboardEchoHandler) *server.App {
	return server.New(cfg, logger, handler)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// InitializeRefresh hand-wires the one-shot refresh pipeline. Only the
// backend the config selects gets a live client; the others stay nil and the
// use case routes around them.
func InitializeRefresh(cfg *config.Config) (*usecase.MarketRefresh, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	src := ProvideSources(cfg)
	m := ProvideMetrics()

	var store repository.SeriesStore
	var pub repository.Publisher
	switch cfg.Backend.Type {
	case "csv":
		store = internalrepo.NewCSVStore(cfg.Backend.Dir)
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, err
		}
		store = internalrepo.NewClickHouseStore(client)
	case "kafka":
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			return nil, err
		}
		pub = internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend.Type)
	}

	return usecase.NewMarketRefresh(
		src.FRED, src.Yahoo,
		src.Bonds,
		store,
		pub,
		m,
		logger,
		usecase.RefreshConfig{
			FredSeries:   cfg.FRED.Series,
			YahooSymbols: cfg.Yahoo.Symbols,
			ISINs:        cfg.Cbonds.ISINs,
			Endpoints:    cfg.Cbonds.Endpoints,
			PageSize:     cfg.Cbonds.PageSize,
			Years:        cfg.FRED.Years,
			Backend:      cfg.Backend.Type,
			RateCapacity: cfg.RateLimit.Capacity,
			RateRefill:   cfg.RateLimit.RefillPerSec,
		},
	), nil
}
