package oracle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/observability"
)

// Cached memoizes layouts of an inner oracle. Requests are keyed by the
// hash of their JSON encoding plus the engine name.
type Cached struct {
	inner  Oracle
	engine string
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
}

// NewCached wraps inner. A nil cache disables caching; a nil keyer uses the
// default keyer; ttl <= 0 selects cache.TTLLayout.
func NewCached(inner Oracle, engine string, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLLayout
	}
	return &Cached{inner: inner, engine: engine, cache: c, keyer: keyer, ttl: ttl}
}

// Layout returns the cached result for req or computes and stores it.
// Cache failures never fail the layout.
func (c *Cached) Layout(ctx context.Context, req *Request) (*Node, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return c.inner.Layout(ctx, req)
	}
	key := c.keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{Engine: c.engine})

	if raw, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		var cached Node
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return &cached, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	result, err := c.inner.Layout(ctx, req)
	if err != nil {
		return nil, err
	}
	if out, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, out, c.ttl); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(out))
		}
	}
	return result, nil
}

var _ Oracle = (*Cached)(nil)
