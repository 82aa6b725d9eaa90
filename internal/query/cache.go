// Package query caches list and detail reads by key and drops them when a
// mutation touches that key.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mikelcalvo/erp-console/internal/logger"
)

// Key names a family of cached reads, usually one backend collection.
type Key string

type entry struct {
	key       Key
	value     interface{}
	fetchedAt time.Time
	stale     bool
	epoch     uint64
}

// Cache holds fetched results until they go stale or their key is invalidated.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	epoch     map[Key]uint64
	staleTime time.Duration
	now       func() time.Time
	group     singleflight.Group
	subs      map[int]func([]Key)
	nextSub   int
	log       *logger.Logger
}

// NewCache creates a cache whose entries stay fresh for staleTime.
func NewCache(staleTime time.Duration, log *logger.Logger) *Cache {
	if staleTime <= 0 {
		staleTime = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		entries:   map[string]*entry{},
		epoch:     map[Key]uint64{},
		staleTime: staleTime,
		now:       time.Now,
		subs:      map[int]func([]Key){},
		log:       log.Named("query"),
	}
}

// SetClock replaces the time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Query describes one cached read.
type Query[T any] struct {
	Key    Key
	Params interface{}
	Fetch  func(ctx context.Context) (T, error)
}

// Fetch serves a fresh cached value or runs q.Fetch. Identical concurrent
// fetches share one call. Failed fetches are not cached.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	fp, err := fingerprint(q.Key, q.Params)
	if err != nil {
		var zero T
		return zero, err
	}

	if v, ok := c.lookup(fp); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	// A flight started before an invalidation must not serve callers that came after it.
	epoch := c.epochOf(q.Key)
	v, err, shared := c.group.Do(fp+"#"+strconv.FormatUint(epoch, 10), func() (interface{}, error) {
		v, err := q.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(fp, q.Key, v, epoch)
		return v, nil
	})
	if shared {
		c.log.Trace().Str("key", string(q.Key)).Msg("coalesced fetch")
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) lookup(fp string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[fp]
	if !ok || e.stale || c.now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.value, true
}

// store keeps v. A result whose key was invalidated while it was in flight is
// kept stale, and never replaces an entry fetched after that invalidation.
func (c *Cache) store(fp string, key Key, v interface{}, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[fp]; ok && prev.epoch > epoch {
		return
	}
	c.entries[fp] = &entry{
		epoch:     epoch,
		key:       key,
		value:     v,
		fetchedAt: c.now(),
		stale:     c.epoch[key] != epoch,
	}
}

func (c *Cache) epochOf(key Key) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch[key]
}

// Invalidate marks every entry under keys stale and notifies subscribers.
func (c *Cache) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	want := make(map[Key]bool, len(keys))
	c.mu.Lock()
	for _, k := range keys {
		want[k] = true
		c.epoch[k]++
	}
	for _, e := range c.entries {
		if want[e.key] {
			e.stale = true
		}
	}
	c.mu.Unlock()

	c.log.Debug().Interface("keys", keys).Msg("invalidated")
	c.notify(keys)
}

// InvalidateAll marks every entry stale. Used on company switch and logout.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	seen := map[Key]bool{}
	var keys []Key
	for _, e := range c.entries {
		e.stale = true
		if !seen[e.key] {
			seen[e.key] = true
			keys = append(keys, e.key)
		}
	}
	for k := range c.epoch {
		c.epoch[k]++
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	c.mu.Unlock()

	c.log.Debug().Int("keys", len(keys)).Msg("invalidated all")
	c.notify(keys)
}

// Fresh reports whether a fresh entry exists for key and params.
func (c *Cache) Fresh(key Key, params interface{}) bool {
	fp, err := fingerprint(key, params)
	if err != nil {
		return false
	}
	_, ok := c.lookup(fp)
	return ok
}

// Subscribe registers fn to receive invalidated keys. The returned func unregisters it.
func (c *Cache) Subscribe(fn func(keys []Key)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(keys []Key) {
	c.mu.RLock()
	subs := make([]func([]Key), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()
	for _, fn := range subs {
		fn(keys)
	}
}

func fingerprint(key Key, params interface{}) (string, error) {
	if params == nil {
		return string(key), nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cannot fingerprint %s params: %w", key, err)
	}
	return string(key) + "|" + string(b), nil
}
