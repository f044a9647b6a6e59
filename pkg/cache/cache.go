// package cache fronts the resolver with a TTL-bounded, size-bounded
// cache of resolved domain state. Concurrent misses for one name share
// a single resolution; failed resolutions never displace previously
// cached state.
package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"antns.org/antns-go/internal/metrics"
	"antns.org/antns-go/pkg/resolver"
)

const (
	DefaultNegativeTTL = 60 * time.Second
	DefaultMaxEntries  = 1024
)

// Backend resolves a domain from the network; *resolver.Resolver is
// the production implementation.
type Backend interface {
	Resolve(ctx context.Context, domain string) (resolver.Resolved, error)
}

type Config struct {
	// TTL for cached state. Zero disables caching entirely: every
	// lookup resolves.
	TTL time.Duration
	// NegativeTTL bounds caching of NotRegistered outcomes; it is
	// clamped to TTL and to DefaultNegativeTTL.
	NegativeTTL time.Duration
	// MaxEntries bounds the cache; least recently used entries are
	// evicted. DefaultMaxEntries if zero.
	MaxEntries int
}

func (c Config) withDefaults() Config {
	if c.NegativeTTL == 0 {
		c.NegativeTTL = DefaultNegativeTTL
	}
	if c.NegativeTTL > DefaultNegativeTTL {
		c.NegativeTTL = DefaultNegativeTTL
	}
	if c.TTL > 0 && c.NegativeTTL > c.TTL {
		c.NegativeTTL = c.TTL
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	return c
}

type entry struct {
	domain    string
	resolved  resolver.Resolved
	negative  bool
	fetchedAt time.Time
	elem      *list.Element
}

type Cache struct {
	backend Backend
	config  Config

	group singleflight.Group

	// mu guards entries and lru. Entries are immutable once stored;
	// a refresh replaces the entry rather than mutating it.
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front is most recently used; values are *entry

	// now is replaceable in tests.
	now func() time.Time
}

func New(backend Backend, config Config) *Cache {
	return &Cache{
		backend: backend,
		config:  config.withDefaults(),
		entries: make(map[string]*entry),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Lookup returns the domain's resolved state, from cache when fresh.
// Expired or missing entries trigger one shared resolution; waiters
// that lose their context stop waiting, but the in-flight resolution
// continues and populates the cache for future callers.
func (c *Cache) Lookup(ctx context.Context, domain string) (resolver.Resolved, error) {
	if c.config.TTL == 0 {
		res, err := c.resolveWithMetrics(ctx, domain)
		if err != nil {
			return resolver.Resolved{}, err
		}
		return res, nil
	}

	c.mu.Lock()
	if e, ok := c.entries[domain]; ok {
		age := c.now().Sub(e.fetchedAt)
		if e.negative && age < c.config.NegativeTTL {
			c.mu.Unlock()
			metrics.CacheEvents.WithLabelValues("negative_hit").Inc()
			return resolver.Resolved{}, fmt.Errorf("%w: %q (cached)", resolver.ErrNotRegistered, domain)
		}
		if !e.negative && age < c.config.TTL {
			c.lru.MoveToFront(e.elem)
			c.mu.Unlock()
			metrics.CacheEvents.WithLabelValues("hit").Inc()
			return e.resolved, nil
		}
	}
	c.mu.Unlock()
	metrics.CacheEvents.WithLabelValues("miss").Inc()

	// The leader resolves on a detached context so that cancelled
	// waiters don't abort it; the resolver enforces its own network
	// deadlines.
	ch := c.group.DoChan(domain, func() (interface{}, error) {
		res, err := c.resolveWithMetrics(context.Background(), domain)
		c.store(domain, res, err)
		return res, err
	})
	select {
	case <-ctx.Done():
		return resolver.Resolved{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return resolver.Resolved{}, r.Err
		}
		return r.Val.(resolver.Resolved), nil
	}
}

func (c *Cache) resolveWithMetrics(ctx context.Context, domain string) (resolver.Resolved, error) {
	start := time.Now()
	res, err := c.backend.Resolve(ctx, domain)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	metrics.Resolutions.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		metrics.EntriesInspected.Observe(float64(res.EntriesInspected))
	}
	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resolver.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, resolver.ErrCorrupt):
		return "corrupt"
	default:
		return "unavailable"
	}
}

// store updates cache state after a resolution. Successful outcomes
// replace the entry; NotRegistered stores a short-lived negative
// entry; any other failure leaves existing state untouched.
func (c *Cache) store(domain string, res resolver.Resolved, err error) {
	negative := false
	if err != nil {
		if !errors.Is(err, resolver.ErrNotRegistered) {
			return
		}
		negative = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[domain]; ok {
		c.lru.Remove(old.elem)
	}
	e := &entry{domain: domain, resolved: res, negative: negative, fetchedAt: c.now()}
	e.elem = c.lru.PushFront(e)
	c.entries[domain] = e
	for len(c.entries) > c.config.MaxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*entry)
		c.lru.Remove(oldest)
		delete(c.entries, evicted.domain)
		metrics.CacheEvents.WithLabelValues("evict").Inc()
	}
}

// Flush drops all cached state.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
}

// Len returns the number of cached entries, for status reporting.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
