package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/clickhouse"
)

const insertChunkSize = 1000

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS market_observations (
		series LowCardinality(String),
		d Date,
		value Float64,
		source LowCardinality(String),
		fetched_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(fetched_at)
	ORDER BY (series, d)`,
	`CREATE TABLE IF NOT EXISTS market_records (
		query_key LowCardinality(String),
		endpoint LowCardinality(String),
		idx UInt32,
		payload String,
		fetched_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(fetched_at)
	ORDER BY (query_key, endpoint, idx)`,
}

// ClickHouseStore implements SeriesStore on ClickHouse. Both tables use
// ReplacingMergeTree keyed on the natural identity of a row, so re-running a
// refresh over the same window converges to one row per key instead of
// duplicating.
type ClickHouseStore struct {
	client *clickhouse.Client
}

// NewClickHouseStore creates a ClickHouse-backed series store.
func NewClickHouseStore(client *clickhouse.Client) repository.SeriesStore {
	return &ClickHouseStore{client: client}
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, schemaStatements)
}

// StoreSeries batch-inserts the series points in date order.
func (s *ClickHouseStore) StoreSeries(ctx context.Context, series *models.TimeSeries, source string) error {
	for start := 0; start < len(series.Points); start += insertChunkSize {
		stop := start + insertChunkSize
		if stop > len(series.Points) {
			stop = len(series.Points)
		}
		chunk := series.Points[start:stop]

		var sb strings.Builder
		sb.WriteString("INSERT INTO market_observations (series, d, value, source) VALUES ")
		args := make([]any, 0, len(chunk)*4)
		for i, p := range chunk {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, series.ID, p.Date, p.Value, source)
		}

		if _, err := s.client.DB().ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert observations %s: %w", series.ID, err)
		}
	}
	return nil
}

// StoreRecords inserts each record as a JSON payload row keyed by position.
func (s *ClickHouseStore) StoreRecords(ctx context.Context, rs *models.RecordSet, endpoint string) error {
	if rs.Empty() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO market_records (query_key, endpoint, idx, payload) VALUES ")
	args := make([]any, 0, rs.Len()*4)
	for i, rec := range rs.Records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s[%d]: %w", rs.QueryKey, i, err)
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, rs.QueryKey, endpoint, uint32(i), string(payload))
	}

	if _, err := s.client.DB().ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert records %s: %w", rs.QueryKey, err)
	}
	return nil
}

func (s *ClickHouseStore) Close() error {
	return s.client.Close()
}
