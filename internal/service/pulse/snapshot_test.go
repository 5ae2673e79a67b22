package pulse

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

func writeSnapshot(t *testing.T, dir, name, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func TestReadSnapshotNewestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSnapshot(t, dir, "run_old.csv",
		"area_name_en,actual_worth,procedure_area\nOld Town,1,1\n", base)
	writeSnapshot(t, dir, "run_new.csv",
		"area_name_en,actual_worth,procedure_area\nDowntown,1000000,1000\n", base.Add(time.Minute))

	rs, err := NewReader(dir, DefaultSchema()).ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if rs.QueryKey != "run_new.csv" {
		t.Fatalf("read %q, want the newest file", rs.QueryKey)
	}
	if rs.Len() != 1 {
		t.Fatalf("records = %d, want 1", rs.Len())
	}
	if got := rs.Records[0].String(FieldLocation); got != "Downtown" {
		t.Fatalf("location = %q", got)
	}
}

func TestReadSnapshotIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "run.csv",
		"area_name_en,actual_worth,procedure_area\nDowntown,100,10\nMarina,200,20\n",
		time.Now())

	r := NewReader(dir, DefaultSchema())
	first, err := r.ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := r.ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("re-read changed row count: %d vs %d", first.Len(), second.Len())
	}
}

func TestReadSnapshotAbsentDir(t *testing.T) {
	rs, err := NewReader(filepath.Join(t.TempDir(), "missing"), DefaultSchema()).ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("absent dir: %v", err)
	}
	if !rs.Empty() {
		t.Fatalf("absent dir produced %d records", rs.Len())
	}
}

func TestReadSnapshotColumnFallback(t *testing.T) {
	dir := t.TempDir()
	// No area_name_en; community_name_en is the next candidate. Same for the
	// price and area fallbacks.
	writeSnapshot(t, dir, "run.csv",
		"community_name_en,trans_value,actual_area\nBusiness Bay,500,50\n",
		time.Now())

	rs, err := NewReader(dir, DefaultSchema()).ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got := rs.Records[0].String(FieldLocation); got != "Business Bay" {
		t.Fatalf("location = %q", got)
	}
}

func TestReadSnapshotUnusableHeader(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "run.csv", "foo,bar\n1,2\n", time.Now())

	_, err := NewReader(dir, DefaultSchema()).ReadSnapshot(context.Background())
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestReadSnapshotMetricVariantConvertsArea(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "run.csv",
		"area_name_en,actual_worth,procedure_area\nDowntown,1000,100\n",
		time.Now())

	rs, err := NewReader(dir, MetricSchema()).ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	area, ok := rs.Records[0].Float(FieldArea)
	if !ok {
		t.Fatal("area missing")
	}
	if math.Abs(area-100*sqmToSqft) > 1e-6 {
		t.Fatalf("area = %v, want %v sqft", area, 100*sqmToSqft)
	}
}
