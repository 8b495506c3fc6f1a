package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RateCache implements ports.RateCache using Redis. Rates are stored as
// decimal strings so no precision is lost in the round trip.
type RateCache struct {
	client *goredis.Client
	prefix string
}

// NewRateCache creates a new Redis-backed exchange rate cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{
		client: client,
		prefix: "rate:",
	}
}

func (c *RateCache) key(from, to string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, from, to)
}

// GetRate retrieves a cached unit rate for the pair.
// Returns ok=false when the pair is not cached.
func (c *RateCache) GetRate(ctx context.Context, from, to string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, c.key(from, to)).Result()
	if err != nil {
		if err == goredis.Nil {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis rate get: %w", err)
	}

	rate, err := decimal.NewFromString(val)
	if err != nil {
		// A corrupt entry reads as a miss; the caller refetches and overwrites.
		return decimal.Zero, false, fmt.Errorf("redis rate parse %q: %w", val, err)
	}
	return rate, true, nil
}

// SetRate stores a unit rate for the pair with TTL.
func (c *RateCache) SetRate(ctx context.Context, from, to string, rate decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(from, to), rate.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}
