// Package treecache is the application's query cache: keyed snapshots that
// are fetched on first read, kept until invalidated, and refetched on the next
// read after invalidation.
//
// The cache is created once by the application root and passed to whoever
// needs it. There is no package-level instance.
package treecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeyEmployeeTree is the key for the full org chart snapshot.
const KeyEmployeeTree = "employee_tree"

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("treecache: closed")

// Fetcher loads a fresh value for one key.
type Fetcher[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	fresh     bool
	gen       uint64
	fetchedAt time.Time
}

// Cache holds one entry per registered key.
type Cache[V any] struct {
	mu       sync.Mutex
	fetchers map[string]Fetcher[V]
	entries  map[string]*entry[V]
	closed   bool

	group  singleflight.Group
	maxAge time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxAge time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// WithMaxAge makes entries stale once they are older than d. Zero (the
// default) keeps entries fresh until they are invalidated.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) { o.maxAge = d }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for fetch and invalidation events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a cache serving the given keys.
func New[V any](fetchers map[string]Fetcher[V], opts ...Option) *Cache[V] {
	o := options{now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache[V]{
		fetchers: map[string]Fetcher[V]{},
		entries:  map[string]*entry[V]{},
		maxAge:   o.maxAge,
		now:      o.now,
		log:      o.log,
	}
	for k, f := range fetchers {
		c.fetchers[k] = f
		c.entries[k] = &entry[V]{}
	}
	return c
}

// Get returns the cached value for key, fetching it when the entry is absent
// or stale. Concurrent Gets for the same stale entry share one fetch.
//
// A failed fetch is not cached, and Get never hands back an older value in
// place of a failed fetch.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	fetch, ok := c.fetchers[key]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("treecache: unknown key %q", key)
	}
	e := c.entries[key]
	if c.isFresh(e) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	gen := e.gen
	c.mu.Unlock()

	// Keying the flight by generation keeps a fetch that started before an
	// invalidation from satisfying reads made after it.
	flight := key + "@" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flight, func() (any, error) {
		start := c.now()
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			c.log.Warn("cache fetch failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur := c.entries[key]; !c.closed && cur != nil && cur.gen == gen {
			cur.value = v
			cur.fresh = true
			cur.fetchedAt = c.now()
		}
		c.log.Debug("cache fetched",
			zap.String("key", key),
			zap.Uint64("generation", gen),
			zap.Duration("took", c.now().Sub(start)))
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek returns the last fetched value without fetching. fresh is false when
// the entry has been invalidated or has never been fetched.
func (c *Cache[V]) Peek(key string) (v V, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.closed {
		return v, false
	}
	return e.value, c.isFresh(e)
}

// Invalidate marks key stale. The next Get refetches.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.closed {
		return
	}
	e.fresh = false
	e.gen++
	c.log.Debug("cache invalidated", zap.String("key", key), zap.Uint64("generation", e.gen))
}

// Close drops all entries. Later Gets fail with ErrClosed.
func (c *Cache[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = map[string]*entry[V]{}
	return nil
}

func (c *Cache[V]) isFresh(e *entry[V]) bool {
	if e == nil || !e.fresh {
		return false
	}
	if c.maxAge > 0 && c.now().Sub(e.fetchedAt) > c.maxAge {
		return false
	}
	return true
}
