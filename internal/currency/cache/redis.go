package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "currency:rate:"

// RedisRateCache shares cached rates across service instances.
type RedisRateCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

func NewRedisRateCache(client redis.UniversalClient, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{client: client, ttl: ttl}
}

func (c *RedisRateCache) Get(ctx context.Context, from, to string) (*model.CurrencyRate, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+currency.CacheKey(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get rate %s/%s: %w", from, to, err)
	}

	var rate model.CurrencyRate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return nil, fmt.Errorf("decode cached rate %s/%s: %w", from, to, err)
	}
	return &rate, nil
}

func (c *RedisRateCache) Set(ctx context.Context, rate *model.CurrencyRate) error {
	raw, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	key := redisKeyPrefix + currency.CacheKey(rate.FromCurrency, rate.ToCurrency)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rate %s: %w", key, err)
	}
	return nil
}
