// Package cache stores serialized export payloads and rendered diagrams.
//
// Call graphs themselves are never cached: a payload is keyed by the hash of
// the raw profile bytes plus every option that affects it (see [Keyer]), so
// an entry can only ever be reused for identical input.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled (the default)
//   - [FileCache]: JSON entries on local disk, for the CLI
//   - [RedisCache]: shared entries for several viewer instances
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque byte values by key.
//
// Implementations must be safe for concurrent use. A miss is reported as
// (nil, false, nil); errors are reserved for backend failures, and callers
// treat them as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default TTLs per entry kind.
const (
	// TTLExport bounds how long an export payload is reused. Keys include the
	// content hash of the profile, so a stale entry can only be served for
	// identical input.
	TTLExport = 24 * time.Hour

	// TTLRender applies to rendered SVG diagrams.
	TTLRender = 24 * time.Hour
)

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend   string // none, file or redis
	Dir       string // file backend directory
	RedisAddr string // redis backend address, host:port
	RedisDB   int
	Prefix    string // key namespace for the redis backend
}

// Open constructs the cache selected by opts.Backend. An empty backend is
// the same as "none".
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("%w: file backend needs a directory", ErrConfig)
		}
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis backend needs an address", ErrConfig)
		}
		c, err := NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB, Prefix: opts.Prefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfig, opts.Backend)
	}
}
