// Package cache keeps resolved slot lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookly/backend/internal/domain"
)

const keyPrefix = "bookly:slots"

// SlotCache stores resolver output per provider and date. Entries are keyed by
// a provider version and a date version; invalidation bumps a version instead
// of deleting, so a resolution that raced with a write lands under a key no
// reader will ask for again.
type SlotCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SlotCache{redis: client, ttl: ttl}
}

// SlotLookup is the result of Lookup. On a miss it remembers the versions that
// were current when the lookup ran, for a later Store.
type SlotLookup struct {
	Slots []string
	Hit   bool
	key   string
}

func providerVersionKey(providerID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, providerID)
}

func dateVersionKey(providerID uuid.UUID, date domain.Date) string {
	return fmt.Sprintf("%s:%s:%s:version", keyPrefix, providerID, date)
}

func (c *SlotCache) Lookup(ctx context.Context, providerID uuid.UUID, date domain.Date) (SlotLookup, error) {
	versions, err := c.redis.MGet(ctx, providerVersionKey(providerID), dateVersionKey(providerID, date)).Result()
	if err != nil {
		return SlotLookup{}, err
	}

	key := fmt.Sprintf("%s:%s:%s:p%s:d%s", keyPrefix, providerID, date, versionString(versions[0]), versionString(versions[1]))
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return SlotLookup{key: key}, nil
	}
	if err != nil {
		return SlotLookup{}, err
	}

	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return SlotLookup{key: key}, nil
	}
	return SlotLookup{Slots: slots, Hit: true, key: key}, nil
}

func versionString(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "0"
}

func (c *SlotCache) Store(ctx context.Context, lookup SlotLookup, slots []string) error {
	if lookup.key == "" {
		return nil
	}
	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, lookup.key, data, c.ttl).Err()
}

// InvalidateDate drops cached slots for one provider date.
func (c *SlotCache) InvalidateDate(ctx context.Context, providerID uuid.UUID, date domain.Date) error {
	return c.bump(ctx, dateVersionKey(providerID, date))
}

// InvalidateProvider drops every cached date for the provider.
func (c *SlotCache) InvalidateProvider(ctx context.Context, providerID uuid.UUID) error {
	return c.bump(ctx, providerVersionKey(providerID))
}

func (c *SlotCache) bump(ctx context.Context, key string) error {
	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 24*time.Hour+c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *SlotCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}
