package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	versionKey  = "pos:cache:version"
	minCounters = 1000
)

// Observer receives cache hit and miss notifications.
type Observer interface {
	CacheResult(layer string, hit bool)
}

// Layered is a read-through JSON cache: in-process ristretto first, Redis second,
// loader last. Keys carry a version so Bump invalidates every entry at once.
type Layered struct {
	local    *ristretto.Cache[string, []byte]
	remote   *redis.Client
	ttl      time.Duration
	group    singleflight.Group
	observer Observer
	version  atomic.Int64
}

// NewLayered builds the cache. remote may be nil, in which case only the local layer is used.
func NewLayered(remote *redis.Client, ttl time.Duration, maxCost int64, observer Observer) (*Layered, error) {
	if maxCost <= 0 {
		maxCost = 16 << 20
	}
	local, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCost/10, minCounters),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("platform/cache: local: %w", err)
	}
	c := &Layered{local: local, remote: remote, ttl: ttl, observer: observer}
	c.version.Store(1)
	return c, nil
}

// Version returns the current cache generation, initialising it in Redis when missing.
func (c *Layered) Version(ctx context.Context) (int64, error) {
	if c.remote == nil {
		return c.version.Load(), nil
	}
	ver, err := c.remote.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.remote.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey joins parts and appends the current version.
func (c *Layered) BuildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", strings.Join(parts, ":"), ver), nil
}

// FetchJSON loads key into dest, calling loader once per key across concurrent callers on a miss.
func (c *Layered) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if raw, ok := c.local.Get(key); ok {
		c.observe("local", true)
		return json.Unmarshal(raw, dest)
	}
	c.observe("local", false)

	res, err, _ := c.group.Do(key, func() (any, error) {
		if c.remote != nil {
			payload, err := c.remote.Get(ctx, key).Bytes()
			if err == nil {
				c.observe("redis", true)
				c.storeLocal(key, payload)
				return payload, nil
			}
			if !errors.Is(err, redis.Nil) {
				return nil, err
			}
			c.observe("redis", false)
		}
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if c.remote != nil {
			if err := c.remote.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				return nil, err
			}
		}
		c.storeLocal(key, raw)
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(res.([]byte), dest)
}

// Bump invalidates all entries by moving to the next version.
func (c *Layered) Bump(ctx context.Context) error {
	c.local.Clear()
	c.version.Add(1)
	if c.remote == nil {
		return nil
	}
	return c.remote.Incr(ctx, versionKey).Err()
}

// Close releases the local cache.
func (c *Layered) Close() {
	c.local.Close()
}

func (c *Layered) storeLocal(key string, raw []byte) {
	c.local.SetWithTTL(key, raw, int64(len(raw)), c.ttl)
	c.local.Wait()
}

func (c *Layered) observe(layer string, hit bool) {
	if c.observer != nil {
		c.observer.CacheResult(layer, hit)
	}
}
