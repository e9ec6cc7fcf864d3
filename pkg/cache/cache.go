// Package cache stores computed layouts and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, used by the CLI
//   - [RedisCache]: shared cache for `lineagraph serve` replicas
//   - [MemoryCache]: process-local, used by tests and single-node servers
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so that every component derives the same key from
// the same inputs. Wrap a backend with [Instrument] to report hits, misses and
// writes to the registered [observability.CacheHooks].
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/lineagraph/pkg/observability"
)

// Cache is a byte store with per-entry expiry. Implementations must be safe
// for concurrent use. A miss is reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes. A zero TTL never expires.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLSession  = 24 * time.Hour
)

// Key types reported to the cache hooks.
const (
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
	KeyTypeSession  = "session"
	KeyTypeOther    = "other"
)

// KeyType classifies a key produced by a [Keyer], ignoring any scope prefix.
func KeyType(key string) string {
	for _, t := range []string{KeyTypeLayout, KeyTypeArtifact, KeyTypeSession} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	return KeyTypeOther
}

// Instrument wraps c so that every lookup and write is reported to
// observability.Cache().
func Instrument(c Cache) Cache {
	if c == nil {
		return nil
	}
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{c}
}

type instrumented struct{ Cache }

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, ok, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}
