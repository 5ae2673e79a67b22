package cache

import (
	"context"
	"strings"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	pkgcache "github.com/timur-ship-it/marketdata-dashboard/pkg/cache"
)

// FetchCache caches normalized fetch results keyed by
// (source, query params..., time bucket). The bucket term makes entries from
// an earlier window unreachable, so invalidation is explicit rather than
// tied to process lifetime.
type FetchCache struct {
	svc    pkgcache.Service
	bucket time.Duration
	now    func() time.Time
}

// NewFetchCache creates a FetchCache over any cache Service. A zero bucket
// defaults to daily, matching the upstream data cadence.
func NewFetchCache(svc pkgcache.Service, bucket time.Duration) *FetchCache {
	if bucket <= 0 {
		bucket = 24 * time.Hour
	}
	return &FetchCache{svc: svc, bucket: bucket, now: time.Now}
}

// Key builds the cache key for a source and its query parameters.
func (f *FetchCache) Key(source string, params ...string) string {
	stamp := f.now().UTC().Truncate(f.bucket).Format("2006-01-02T15")
	parts := append([]string{"fetch", source}, params...)
	parts = append(parts, stamp)
	return strings.Join(parts, "|")
}

// GetSeries returns a cached series, or false on miss.
func (f *FetchCache) GetSeries(ctx context.Context, key string) (*models.TimeSeries, bool) {
	var s models.TimeSeries
	if err := f.svc.Get(ctx, key, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// SetSeries stores a series under key with the given TTL.
func (f *FetchCache) SetSeries(ctx context.Context, key string, s *models.TimeSeries, ttl time.Duration) {
	_ = f.svc.Set(ctx, key, s, ttl)
}

// GetRecords returns a cached record set, or false on miss.
func (f *FetchCache) GetRecords(ctx context.Context, key string) (*models.RecordSet, bool) {
	var rs models.RecordSet
	if err := f.svc.Get(ctx, key, &rs); err != nil {
		return nil, false
	}
	return &rs, true
}

// SetRecords stores a record set under key with the given TTL.
func (f *FetchCache) SetRecords(ctx context.Context, key string, rs *models.RecordSet, ttl time.Duration) {
	_ = f.svc.Set(ctx, key, rs, ttl)
}
