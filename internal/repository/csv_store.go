package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/util"
)

// CSVStore implements SeriesStore over flat files: one CSV per series under
// dir, one JSON per record-set query key under dir/cbonds. Each store call
// rewrites its file whole, so a re-fetch of the same key never duplicates
// rows.
type CSVStore struct {
	dir string
}

// NewCSVStore creates a flat-file store rooted at dir.
func NewCSVStore(dir string) repository.SeriesStore {
	return &CSVStore{dir: dir}
}

func (s *CSVStore) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, "cbonds"), 0o755); err != nil {
		return fmt.Errorf("create cbonds dir: %w", err)
	}
	return nil
}

// StoreSeries writes date,value,series rows for one series.
func (s *CSVStore) StoreSeries(ctx context.Context, series *models.TimeSeries, source string) error {
	name := strings.ToLower(strings.TrimPrefix(series.ID, "^")) + ".csv"
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"date", "value", "series", "source"}); err != nil {
		tmp.Close()
		return err
	}
	for _, p := range series.Points {
		row := []string{
			util.FormatDay(p.Date),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			series.ID,
			source,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// Rename over the old file so readers never see a torn write.
	return os.Rename(tmp.Name(), path)
}

// StoreRecords writes one JSON document per (query key, endpoint).
func (s *CSVStore) StoreRecords(ctx context.Context, rs *models.RecordSet, endpoint string) error {
	b, err := json.MarshalIndent(map[string]any{
		"query_key": rs.QueryKey,
		"endpoint":  endpoint,
		"records":   rs.Records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", rs.QueryKey, endpoint)
	path := filepath.Join(s.dir, "cbonds", name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *CSVStore) Close() error { return nil }
