package mapper

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

const cacheLogPrefix = "mapper:cache"

// ResolvedFunc observes a strategy stored after a cache miss.
type ResolvedFunc func(key TypePairKey, strategy *Strategy)

// Cache memoizes strategies by type pair. Reads are lock-free; concurrent
// misses for one pair may each build a strategy, the last store wins and
// every caller gets an equivalent strategy. Entries are never evicted.
type Cache struct {
	entries    sync.Map // TypePairKey -> *Strategy
	onResolved ResolvedFunc
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithOnResolved registers fn to run after each miss that stores a strategy.
func WithOnResolved(fn ResolvedFunc) CacheOption {
	return func(c *Cache) { c.onResolved = fn }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the strategy for (sourceType, destinationType), building
// and storing it on first use. A failed build is not stored.
func (c *Cache) Resolve(sourceType, destinationType reflect.Type) (*Strategy, error) {
	key, err := NewTypePairKey(sourceType, destinationType)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.entries.Load(key); ok {
		return cached.(*Strategy), nil
	}

	strategy, err := buildStrategy(key)
	if err != nil {
		return nil, err
	}
	c.entries.Store(key, strategy)
	slog.Debug(fmt.Sprintf("%s - built strategy for %s", cacheLogPrefix, key))

	if c.onResolved != nil {
		c.onResolved(key, strategy)
	}
	return strategy, nil
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Keys returns a snapshot of the cached pairs ordered by their string form.
func (c *Cache) Keys() []TypePairKey {
	var keys []TypePairKey
	c.entries.Range(func(k, _ any) bool {
		keys = append(keys, k.(TypePairKey))
		return true
	})
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
