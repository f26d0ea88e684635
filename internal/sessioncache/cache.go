// Package sessioncache is the remote ephemeral session cache: a TTL-bound
// Redis payload addressed by the opaque session key. Entries are derived and
// advisory; consumers must re-validate against the session ledger and treat
// entries as possibly stale or already evicted.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	credentialdomain "session-authority/internal/credential/domain"
	sessiondomain "session-authority/internal/session/domain"
)

// Payload is the request-visible identity stored per session key. CachedRole
// is advisory; the request gate resyncs it whenever the freshly resolved role
// drifts.
type Payload struct {
	CredentialID string                    `json:"credential_id"`
	DeviceClass  sessiondomain.DeviceClass `json:"device_class"`
	CachedRole   credentialdomain.Role     `json:"cached_role"`
}

// Cache is the ephemeral session store interface. Destroy is best-effort at
// call sites: callers swallow its error and must never let it mask a primary
// verdict.
type Cache interface {
	// Get returns the payload for key, or nil if the entry is absent or expired.
	Get(ctx context.Context, key string) (*Payload, error)
	// Save writes the payload under key with the configured TTL.
	Save(ctx context.Context, key string, p *Payload) error
	// Destroy removes the entry for key. Removing an absent key is not an error.
	Destroy(ctx context.Context, key string) error
}

// RedisCache implements Cache on a Redis client.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a Cache backed by client. prefix namespaces the keys;
// ttl is the session lifetime applied on every Save.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "sa"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(sessionKey string) string {
	return c.prefix + ":session:" + sessionKey
}

// Get returns the payload for key, or nil when the entry is gone.
func (c *RedisCache) Get(ctx context.Context, sessionKey string) (*Payload, error) {
	raw, err := c.client.Get(ctx, c.key(sessionKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("sessioncache: get: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("sessioncache: corrupt payload: %w", err)
	}
	return &p, nil
}

// Save writes the payload under key with the cache TTL.
func (c *RedisCache) Save(ctx context.Context, sessionKey string, p *Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(sessionKey), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("sessioncache: save: %w", err)
	}
	return nil
}

// Destroy removes the entry for key. Absent keys are a no-op.
func (c *RedisCache) Destroy(ctx context.Context, sessionKey string) error {
	if err := c.client.Del(ctx, c.key(sessionKey)).Err(); err != nil {
		return fmt.Errorf("sessioncache: destroy: %w", err)
	}
	return nil
}
