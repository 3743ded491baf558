// Package rediscache layers a read-through Redis cache over a price
// provider. Prices move slowly relative to the fulfillment tick, so a
// short TTL takes most of the load off the feed.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/business/pricing/app"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

const keyPrefix = "price:"

// Cache implements app.PriceProvider by caching another provider.
type Cache struct {
	rdb  *redis.Client
	next app.PriceProvider
	ttl  time.Duration
	log  logger.LoggerInterface
}

func New(rdb *redis.Client, next app.PriceProvider, ttl time.Duration, log logger.LoggerInterface) *Cache {
	return &Cache{rdb: rdb, next: next, ttl: ttl, log: log}
}

// Price serves from Redis when fresh, otherwise asks the underlying
// provider and stores the answer. Cache errors degrade to a direct feed
// call rather than failing the lookup.
func (c *Cache) Price(ctx context.Context, marketHashName string) (decimal.Decimal, error) {
	key := keyPrefix + marketHashName

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		price, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return price, nil
		}
		c.log.Warn(ctx, "evicting malformed cached price", "key", key, "value", cached)
		c.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn(ctx, "price cache read failed", "key", key, "error", err)
	}

	price, err := c.next.Price(ctx, marketHashName)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.rdb.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "price cache write failed", "key", key, "error", err)
	}
	return price, nil
}
