package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache caches contact reads and per-owner lists in Redis. The cache is
// advisory: callers treat every miss and error as "go to the database".
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache returns a new RedisCache.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func contactKey(id int64) string {
	return fmt.Sprintf("contact:%d", id)
}

func listKey(userID int64) string {
	return fmt.Sprintf("contacts:user:%d", userID)
}

// cachedContact carries the owner explicitly: Contact.UserID is hidden from
// API JSON, but the ownership check must survive a cache round trip.
type cachedContact struct {
	UserID  int64    `json:"userId"`
	Contact *Contact `json:"contact"`
}

// GetContact returns the cached aggregate or nil on miss.
func (c *RedisCache) GetContact(ctx context.Context, id int64) (*Contact, error) {
	b, err := c.rdb.Get(ctx, contactKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cached cachedContact
	if err := json.Unmarshal(b, &cached); err != nil {
		return nil, err
	}
	cached.Contact.UserID = cached.UserID
	return cached.Contact, nil
}

// SetContact stores the aggregate.
func (c *RedisCache) SetContact(ctx context.Context, contact *Contact) error {
	b, err := json.Marshal(cachedContact{UserID: contact.UserID, Contact: contact})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, contactKey(contact.ID), b, c.ttl).Err()
}

// GetList returns the cached owner list or nil on miss.
func (c *RedisCache) GetList(ctx context.Context, userID int64) ([]*Contact, error) {
	b, err := c.rdb.Get(ctx, listKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []*Contact
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the owner list.
func (c *RedisCache) SetList(ctx context.Context, userID int64, list []*Contact) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(userID), b, c.ttl).Err()
}

// Invalidate drops the cached aggregate and the owner's list after a write.
func (c *RedisCache) Invalidate(ctx context.Context, userID, contactID int64) error {
	return c.rdb.Del(ctx, contactKey(contactID), listKey(userID)).Err()
}
