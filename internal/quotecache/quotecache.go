// Package quotecache caches computed quotes in Redis so repeated portal
// requests with the same inputs skip rule evaluation.
package quotecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/pricing"
)

const keyPrefix = "quote:"

// Cache stores quote results keyed by their full calculation inputs. A nil
// *Cache is valid and disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. Returns nil when the
// cache is disabled in config.
func New(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if errPing := client.Ping(ctx).Err(); errPing != nil {
		_ = client.Close()
		return nil, fmt.Errorf("quotecache: ping: %w", errPing)
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key derives a stable cache key from the full set of calculation inputs.
// rulesVersion changes whenever the rule snapshot is rebuilt, which
// invalidates every earlier entry without an explicit flush.
func Key(service pricing.Service, pctx pricing.PricingContext, rulesVersion uint64) string {
	payload, _ := json.Marshal(struct {
		Service pricing.Service        `json:"service"`
		Context pricing.PricingContext `json:"context"`
		Version uint64                 `json:"version"`
	}{service, pctx, rulesVersion})
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for key, or ok=false on a miss. Redis
// errors degrade to a miss so the cache can never fail a quote.
func (c *Cache) Get(ctx context.Context, key string) (pricing.PricingResult, bool) {
	if c == nil || c.client == nil {
		return pricing.PricingResult{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return pricing.PricingResult{}, false
	}
	var result pricing.PricingResult
	if errDecode := json.Unmarshal(raw, &result); errDecode != nil {
		return pricing.PricingResult{}, false
	}
	return result, true
}

// Set stores a quote result under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, result pricing.PricingResult) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, errEncode := json.Marshal(result)
	if errEncode != nil {
		return fmt.Errorf("quotecache: encode: %w", errEncode)
	}
	if errSet := c.client.Set(ctx, key, raw, c.ttl).Err(); errSet != nil {
		if errors.Is(errSet, context.Canceled) {
			return errSet
		}
		return fmt.Errorf("quotecache: set: %w", errSet)
	}
	return nil
}
