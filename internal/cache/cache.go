package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	latestKey = "tours:latest"
	latestTTL = 60 * time.Second
)

// Cache guarda la respuesta ya serializada de /api/tours/latest. Un
// Redis caído degrada a la base de datos, nunca voltea el request.
type Cache struct {
	rdb *redis.Client
}

func New(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Cache{rdb: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) GetLatest(ctx context.Context) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, latestKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", latestKey, err)
		}
		return nil, false
	}
	return b, true
}

func (c *Cache) SetLatest(ctx context.Context, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, latestKey, payload, latestTTL).Err(); err != nil {
		log.Printf("cache: set %s: %v", latestKey, err)
	}
}

// InvalidateLatest se llama en cada mutación de tours o de media.
func (c *Cache) InvalidateLatest(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, latestKey).Err(); err != nil {
		log.Printf("cache: del %s: %v", latestKey, err)
	}
}
