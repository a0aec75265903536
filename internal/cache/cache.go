package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache namespaces, one per entity kind.
const (
	NamespaceUsers = "users"
	NamespaceCards = "cards"
)

// Store is a best-effort cache-aside accelerator keyed by (namespace, id).
// The persistence store stays authoritative: callers overwrite entries after
// every successful write and evict after deletes. Implementations never
// return errors; a failed cache operation degrades to a miss.
type Store interface {
	// Get unmarshals the cached entry into dest, reporting a hit.
	Get(ctx context.Context, namespace string, id int64, dest any) bool
	// Set stores the value under (namespace, id). Nil values are never cached.
	Set(ctx context.Context, namespace string, id int64, value any)
	// Delete evicts the entry for (namespace, id).
	Delete(ctx context.Context, namespace string, id int64)
}

// Redis is a Store backed by a Redis server. Entries expire after a fixed
// TTL independent of explicit eviction.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedis initializes a Redis-backed store
func NewRedis(client *redis.Client, ttl time.Duration, log *logrus.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, log: log}
}

func key(namespace string, id int64) string {
	return fmt.Sprintf("%s:%d", namespace, id)
}

func (r *Redis) Get(ctx context.Context, namespace string, id int64, dest any) bool {
	b, err := r.client.Get(ctx, key(namespace, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.log.Debugf("Cache get %s failed: %v", key(namespace, id), err)
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		r.log.Warnf("Cache entry %s is corrupt: %v", key(namespace, id), err)
		return false
	}
	return true
}

func (r *Redis) Set(ctx context.Context, namespace string, id int64, value any) {
	if value == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		r.log.Warnf("Cache marshal %s failed: %v", key(namespace, id), err)
		return
	}
	if err := r.client.Set(ctx, key(namespace, id), b, r.ttl).Err(); err != nil {
		r.log.Debugf("Cache set %s failed: %v", key(namespace, id), err)
	}
}

func (r *Redis) Delete(ctx context.Context, namespace string, id int64) {
	if err := r.client.Del(ctx, key(namespace, id)).Err(); err != nil {
		r.log.Debugf("Cache delete %s failed: %v", key(namespace, id), err)
	}
}

// Noop is a Store that caches nothing. Used when no Redis address is
// configured and in tests.
type Noop struct{}

func (Noop) Get(context.Context, string, int64, any) bool { return false }
func (Noop) Set(context.Context, string, int64, any)      {}
func (Noop) Delete(context.Context, string, int64)        {}
