package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRateCache(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	miss, err := c.Get(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, &model.CurrencyRate{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.9")}))

	hit, err := c.Get(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "0.9", hit.Rate.String())

	reverse, err := c.Get(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.Nil(t, reverse, "pairs are directional")

	now = now.Add(2 * time.Minute)
	expired, err := c.Get(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestMemoryRateCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRateCache(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, &model.CurrencyRate{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.NewFromInt(int64(i + 1))})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "USD", "EUR")
		}()
	}
	wg.Wait()

	got, err := c.Get(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Rate.IsPositive())
}

func TestRedisRateCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := NewRedisClient(addr, os.Getenv("REDIS_TEST_PASSWORD"), 0)
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	c := NewRedisRateCache(client, time.Minute)
	from, to := "TST", "XTS"
	t.Cleanup(func() { client.Del(ctx, redisKeyPrefix+from+":"+to) })

	miss, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, &model.CurrencyRate{ID: "r1", FromCurrency: from, ToCurrency: to, Rate: decimal.RequireFromString("1.2345")}))

	hit, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "r1", hit.ID)
	assert.True(t, hit.Rate.Equal(decimal.RequireFromString("1.2345")))
}
