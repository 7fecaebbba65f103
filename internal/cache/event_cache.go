package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/domain"
)

const (
	genKey    = "events:gen"
	keyPrefix = "events:v"
)

// EventCache is a read-through cache for the events collection. A nil client or zero TTL
// turns every call into a miss. Cache failures are logged and never returned to callers.
//
// Keys live under a generation counter. Invalidate bumps the counter, and fills are written
// under the generation the reader saw before it went to the database, so a fill that races a
// write lands in a namespace nobody reads. Orphaned entries expire with the TTL.
type EventCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// Generation is the cache namespace observed by a read. The zero value disables the fill.
type Generation struct {
	n     int64
	valid bool
}

// NewEventCache builds the cache.
func NewEventCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *EventCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventCache{client: client, ttl: ttl, logger: logger}
}

func (c *EventCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func listKey(g Generation) string {
	return keyPrefix + strconv.FormatInt(g.n, 10) + ":list"
}

func itemKey(g Generation, id int64) string {
	return keyPrefix + strconv.FormatInt(g.n, 10) + ":item:" + strconv.FormatInt(id, 10)
}

func (c *EventCache) generation(ctx context.Context) Generation {
	if !c.enabled() {
		return Generation{}
	}
	n, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("event cache generation read failed", zap.Error(err))
		return Generation{}
	}
	return Generation{n: n, valid: true}
}

// GetList returns the cached collection and the generation to pass to SetList on a miss.
func (c *EventCache) GetList(ctx context.Context) ([]domain.Event, Generation, bool) {
	gen := c.generation(ctx)
	if !gen.valid {
		return nil, gen, false
	}
	var events []domain.Event
	if !c.get(ctx, listKey(gen), &events) {
		return nil, gen, false
	}
	return events, gen, true
}

// SetList stores the collection under gen.
func (c *EventCache) SetList(ctx context.Context, gen Generation, events []domain.Event) {
	if !gen.valid {
		return
	}
	c.set(ctx, listKey(gen), events)
}

// GetEvent returns a cached event and the generation to pass to SetEvent on a miss.
func (c *EventCache) GetEvent(ctx context.Context, id int64) (*domain.Event, Generation, bool) {
	gen := c.generation(ctx)
	if !gen.valid {
		return nil, gen, false
	}
	var event domain.Event
	if !c.get(ctx, itemKey(gen, id), &event) {
		return nil, gen, false
	}
	return &event, gen, true
}

// SetEvent stores a single event under gen.
func (c *EventCache) SetEvent(ctx context.Context, gen Generation, event *domain.Event) {
	if !gen.valid || event == nil {
		return
	}
	c.set(ctx, itemKey(gen, event.ID), event)
}

// Invalidate retires every cached list and event by moving to the next generation.
func (c *EventCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		c.logger.Warn("event cache invalidate failed", zap.Error(err))
	}
}

func (c *EventCache) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("event cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("event cache entry corrupt", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *EventCache) set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("event cache encode failed", zap.String("key", key), zap.Error(fmt.Errorf("marshal: %w", err)))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("event cache write failed", zap.String("key", key), zap.Error(err))
	}
}
