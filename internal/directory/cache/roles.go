// Package cache keeps resolved roles in Redis so the admin guard does not hit
// the users table on every request.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const roleKeyPrefix = "profast:role:"

const defaultTTL = 5 * time.Minute

// RoleCache is a read-through cache of role by email. A nil client disables
// it: lookups always miss and writes are dropped.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*RoleCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RoleCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRoleCache(client *redis.Client, opts ...Option) *RoleCache {
	c := &RoleCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached role and whether it was present.
func (c *RoleCache) Get(ctx context.Context, email string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	role, err := c.client.Get(ctx, roleKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func (c *RoleCache) Set(ctx context.Context, email, role string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, roleKeyPrefix+email, role, c.ttl).Err()
}

// Invalidate drops the cached roles of every given email in one round trip.
func (c *RoleCache) Invalidate(ctx context.Context, emails ...string) error {
	if c == nil || c.client == nil || len(emails) == 0 {
		return nil
	}
	keys := make([]string, 0, len(emails))
	for _, email := range emails {
		if email != "" {
			keys = append(keys, roleKeyPrefix+email)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
