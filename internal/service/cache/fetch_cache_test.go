package cache

import (
	"context"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	pkgcache "github.com/timur-ship-it/marketdata-dashboard/pkg/cache"
)

func TestKeyIncludesTimeBucket(t *testing.T) {
	fc := NewFetchCache(pkgcache.NewMemoryCache(), time.Hour)

	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }
	k1 := fc.Key("fred", "DGS10")

	fc.now = func() time.Time { return now.Add(10 * time.Minute) }
	if k2 := fc.Key("fred", "DGS10"); k2 != k1 {
		t.Fatalf("same bucket produced different keys: %q vs %q", k1, k2)
	}

	fc.now = func() time.Time { return now.Add(time.Hour) }
	if k3 := fc.Key("fred", "DGS10"); k3 == k1 {
		t.Fatalf("next bucket reused key %q", k3)
	}
}

func TestKeySeparatesSourcesAndParams(t *testing.T) {
	fc := NewFetchCache(pkgcache.NewMemoryCache(), time.Hour)

	if fc.Key("fred", "DGS10") == fc.Key("yahoo", "DGS10") {
		t.Fatal("different sources share a key")
	}
	if fc.Key("fred", "DGS10") == fc.Key("fred", "DGS1MO") {
		t.Fatal("different params share a key")
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	fc := NewFetchCache(pkgcache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	s := models.NewTimeSeries("DGS10", []models.Point{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 4.0},
	})
	key := fc.Key("fred", "DGS10")

	if _, ok := fc.GetSeries(ctx, key); ok {
		t.Fatal("hit before set")
	}
	fc.SetSeries(ctx, key, s, time.Minute)

	got, ok := fc.GetSeries(ctx, key)
	if !ok {
		t.Fatal("miss after set")
	}
	if got.ID != "DGS10" || got.Len() != 1 || got.Points[0].Value != 4.0 {
		t.Fatalf("round trip mangled series: %+v", got)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	fc := NewFetchCache(pkgcache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	rs := models.NewRecordSet("XS1", "isin", []models.Record{{"coupon": "5.5"}})
	key := fc.Key("cbonds", "get_emissions", "XS1")

	fc.SetRecords(ctx, key, rs, time.Minute)
	got, ok := fc.GetRecords(ctx, key)
	if !ok {
		t.Fatal("miss after set")
	}
	if got.QueryKey != "XS1" || got.Len() != 1 {
		t.Fatalf("round trip mangled records: %+v", got)
	}
	if got.Records[0].String("coupon") != "5.5" {
		t.Fatalf("coupon = %q", got.Records[0].String("coupon"))
	}
}
