package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores serialized read models. Keys are namespaced per domain
// ("categories:all") so a whole namespace can be dropped after a write.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key joins a namespace and a name into a cache key.
func Key(namespace, name string) string {
	return namespace + ":" + name
}

// GetJSON reads and decodes a cached value. A corrupt entry counts as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var out T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, nil
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// NoopCache is used when no Redis is configured; every read misses.
type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (NoopCache) DeletePrefix(ctx context.Context, prefix string) error {
	return nil
}
