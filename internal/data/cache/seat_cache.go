// Package cache holds the seat listing cache. Entries are whole inventories
// keyed by resource and are dropped after every committed mutation.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seat-booking/internal/data/entity"
	"seat-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "seat-booking"

type SeatCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, resource string) (seats []*entity.Seat, ok bool, err error)
	Set(ctx context.Context, resource string, seats []*entity.Seat) error
	Invalidate(ctx context.Context, resource string) error
}

type redisSeatCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisSeatCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) SeatCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisSeatCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With(zap.String("cache", "redis")),
	}
}

// NewRedisClient connects to Redis and pings it with a short timeout.
func NewRedisClient(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type cachedSeat struct {
	SeatNo   int  `json:"seatNo"`
	IsBooked bool `json:"isBooked"`
}

func (c *redisSeatCache) Get(ctx context.Context, resource string) ([]*entity.Seat, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(resource)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached seats: %w", err)
	}

	var cached []cachedSeat
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.log.Warn("Dropping undecodable cache entry", zap.String("resource", resource), zap.Error(err))
		_ = c.Invalidate(ctx, resource)
		return nil, false, nil
	}

	seats := make([]*entity.Seat, len(cached))
	for i, s := range cached {
		seats[i] = &entity.Seat{SeatNo: s.SeatNo, IsBooked: s.IsBooked}
	}
	return seats, true, nil
}

func (c *redisSeatCache) Set(ctx context.Context, resource string, seats []*entity.Seat) error {
	cached := make([]cachedSeat, len(seats))
	for i, s := range seats {
		cached[i] = cachedSeat{SeatNo: s.SeatNo, IsBooked: s.IsBooked}
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode seats: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(resource), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached seats: %w", err)
	}
	return nil
}

func (c *redisSeatCache) Invalidate(ctx context.Context, resource string) error {
	if err := c.rdb.Del(ctx, cacheKey(resource)).Err(); err != nil {
		return fmt.Errorf("invalidate cached seats: %w", err)
	}
	return nil
}

func cacheKey(resource string) string {
	return keyPrefix + ":" + resource + ":all"
}

type noopSeatCache struct{}

// NewNoopSeatCache is used when Redis is disabled; every Get misses.
func NewNoopSeatCache() SeatCache {
	return noopSeatCache{}
}

func (noopSeatCache) Get(context.Context, string) ([]*entity.Seat, bool, error) {
	return nil, false, nil
}

func (noopSeatCache) Set(context.Context, string, []*entity.Seat) error { return nil }

func (noopSeatCache) Invalidate(context.Context, string) error { return nil }
