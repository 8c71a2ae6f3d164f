package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type memoryEntry struct {
	rate      model.CurrencyRate
	expiresAt time.Time
}

// MemoryRateCache is a process-local rate cache. Reads are lock free: writers
// copy the map and swap it in, which suits a read-heavy, write-rare table.
type MemoryRateCache struct {
	entries atomic.Pointer[map[string]memoryEntry]
	writeMu sync.Mutex
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRateCache creates a cache whose entries live for ttl; zero means
// entries never expire.
func NewMemoryRateCache(ttl time.Duration) *MemoryRateCache {
	c := &MemoryRateCache{ttl: ttl, now: time.Now}
	empty := map[string]memoryEntry{}
	c.entries.Store(&empty)
	return c
}

func (c *MemoryRateCache) Get(_ context.Context, from, to string) (*model.CurrencyRate, error) {
	entry, ok := (*c.entries.Load())[currency.CacheKey(from, to)]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		return nil, nil
	}
	rate := entry.rate
	return &rate, nil
}

func (c *MemoryRateCache) Set(_ context.Context, rate *model.CurrencyRate) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	current := *c.entries.Load()
	next := make(map[string]memoryEntry, len(current)+1)
	for k, v := range current {
		next[k] = v
	}

	entry := memoryEntry{rate: *rate}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	next[currency.CacheKey(rate.FromCurrency, rate.ToCurrency)] = entry
	c.entries.Store(&next)
	return nil
}
