package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wealthcommand/wealth-command/internal/store"
)

// cacheEntry is the persisted analytics cache document.
type cacheEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	CacheKey  string          `json:"cacheKey"`
	Data      json.RawMessage `json:"data"`
	TTLMillis int64           `json:"ttl"`
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.Timestamp.Add(time.Duration(e.TTLMillis) * time.Millisecond))
}

// CacheAnalyticsData stores data under key with the given TTL, replacing
// any previous entry.
func (p *Facade) CacheAnalyticsData(ctx context.Context, key string, data any, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache data: %w", err)
	}

	entry := cacheEntry{
		CacheKey:  key,
		Data:      raw,
		Timestamp: p.now().UTC(),
		TTLMillis: ttl.Milliseconds(),
	}
	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	// Replace any prior entry under the same key.
	if err := p.primary.Delete(ctx, store.AnalyticsCache, key); err != nil {
		return err
	}
	return p.primary.Add(ctx, store.AnalyticsCache, store.Record{Key: key, Data: doc})
}

// GetCachedAnalyticsData returns the cached value for key, or false when
// absent or expired. Expired entries are evicted lazily on read.
func (p *Facade) GetCachedAnalyticsData(ctx context.Context, key string) (json.RawMessage, bool) {
	rec, err := p.primary.Get(ctx, store.AnalyticsCache, key)
	if err != nil || rec == nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(rec.Data, &entry); err != nil {
		_ = p.primary.Delete(ctx, store.AnalyticsCache, key)
		return nil, false
	}

	if entry.expired(p.now()) {
		_ = p.primary.Delete(ctx, store.AnalyticsCache, key)
		return nil, false
	}
	return entry.Data, true
}

// sweepExpiredCache removes every expired entry, returning the count.
func (p *Facade) sweepExpiredCache(ctx context.Context) (int, error) {
	records, err := p.primary.GetAll(ctx, store.AnalyticsCache, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to query analytics cache: %w", err)
	}

	swept := 0
	now := p.now()
	for _, rec := range records {
		var entry cacheEntry
		if err := json.Unmarshal(rec.Data, &entry); err != nil || entry.expired(now) {
			if err := p.primary.Delete(ctx, store.AnalyticsCache, rec.Key); err != nil {
				return swept, fmt.Errorf("failed to evict cache entry %s: %w", rec.Key, err)
			}
			swept++
		}
	}
	return swept, nil
}
