package lang

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/keycalc/log"
)

// Entry is a cached compiled expression.
type Entry struct {
	callable Callable
	expr     Expr
	created  time.Time
	lastUsed atomic.Int64 // unix nanoseconds
	hits     atomic.Uint64
}

// Callable returns the compiled program.
func (e *Entry) Callable() Callable { return e.callable }

// Expr returns the expression the entry was compiled from.
func (e *Entry) Expr() Expr { return e.expr }

// Created returns the time the entry was inserted.
func (e *Entry) Created() time.Time { return e.created }

// LastUsed returns the time of the most recent insert or lookup.
func (e *Entry) LastUsed() time.Time { return time.Unix(0, e.lastUsed.Load()) }

// Hits returns the number of lookups that returned e.
func (e *Entry) Hits() uint64 { return e.hits.Load() }

func (e *Entry) touch(now time.Time) { e.lastUsed.Store(now.UnixNano()) }

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Size      int    `json:"size"      yaml:"size"`
	Hits      uint64 `json:"hits"      yaml:"hits"`
	Misses    uint64 `json:"misses"    yaml:"misses"`
	Evictions uint64 `json:"evictions" yaml:"evictions"`
	Sweeps    uint64 `json:"sweeps"    yaml:"sweeps"`
}

// Cache maps structural expression hashes to compiled entries. Entries
// unused for the retention window are removed by a background sweeper
// that runs until [Cache.Close].
type Cache struct {
	entries    sync.Map // uint64 -> *Entry
	size       atomic.Int64
	retention  time.Duration
	interval   time.Duration
	maxEntries int
	clock      func() time.Time
	onEvict    func(*Entry)
	logger     log.Logger

	signal chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	sweeps    atomic.Uint64
}

// NewCache returns a cache configured by opts and starts its sweeper.
func NewCache(ctx context.Context, opts ...Option) (*Cache, error) {
	cfg, err := makeConfig(opts...)
	if err != nil {
		return nil, err
	}

	return newCache(ctx, cfg, nil), nil
}

func newCache(ctx context.Context, cfg config, onEvict func(*Entry)) *Cache {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c := &Cache{
		retention:  cfg.retention,
		interval:   cfg.sweepInterval,
		maxEntries: cfg.maxEntries,
		clock:      cfg.clock,
		onEvict:    onEvict,
		logger:     cfg.logger,
		signal:     make(chan struct{}, 1),
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go c.run(ctx)

	return c
}

// Lookup returns the entry for key and marks it used.
func (c *Cache) Lookup(key uint64) (*Entry, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	e := v.(*Entry)
	e.touch(c.clock())
	e.hits.Add(1)
	c.hits.Add(1)

	return e, true
}

// Insert stores fn compiled from expr under key and wakes the sweeper. If
// key is already present the existing entry is kept and returned.
func (c *Cache) Insert(key uint64, fn Callable, expr Expr) *Entry {
	now := c.clock()

	e := &Entry{callable: fn, expr: expr, created: now}
	e.touch(now)

	if v, loaded := c.entries.LoadOrStore(key, e); loaded {
		return v.(*Entry)
	}

	c.size.Add(1)
	c.notify()

	return e
}

// notify wakes the sweeper without blocking. Signals that arrive while one
// is pending are coalesced.
func (c *Cache) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int { return int(c.size.Load()) }

// Retention returns the idle time after which entries are evicted.
func (c *Cache) Retention() time.Duration { return c.retention }

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Size:      c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Sweeps:    c.sweeps.Load(),
	}
}

// Sweep evicts every entry last used more than the retention window before
// now, then the least recently used entries beyond the size bound. It
// returns the number of entries evicted.
func (c *Cache) Sweep(now time.Time) int {
	c.sweeps.Add(1)

	cutoff := now.Add(-c.retention).UnixNano()
	evicted := 0

	type aged struct {
		key  uint64
		e    *Entry
		used int64
	}

	var live []aged

	c.entries.Range(func(k, v any) bool {
		e := v.(*Entry)
		used := e.lastUsed.Load()

		if used < cutoff {
			if c.evict(k.(uint64), e) {
				evicted++
			}

			return true
		}

		if c.maxEntries > 0 {
			live = append(live, aged{key: k.(uint64), e: e, used: used})
		}

		return true
	})

	if c.maxEntries > 0 && len(live) > c.maxEntries {
		slices.SortFunc(live, func(a, b aged) int {
			switch {
			case a.used < b.used:
				return -1
			case a.used > b.used:
				return 1
			default:
				return 0
			}
		})

		for _, a := range live[:len(live)-c.maxEntries] {
			if c.evict(a.key, a.e) {
				evicted++
			}
		}
	}

	return evicted
}

// evict removes key only if it still maps to e.
func (c *Cache) evict(key uint64, e *Entry) bool {
	if !c.entries.CompareAndDelete(key, e) {
		return false
	}

	c.size.Add(-1)
	c.evictions.Add(1)

	if c.onEvict != nil {
		c.onEvict(e)
	}

	return true
}

// Close stops the sweeper and waits for it to exit. Entries remain
// readable.
func (c *Cache) Close() {
	c.once.Do(func() {
		c.cancel()
		<-c.done
	})
}

func (c *Cache) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.signal:
		}

		start := time.Now()

		if n := c.Sweep(c.clock()); n > 0 {
			c.logger.DebugContext(ctx, "cache sweep",
				slog.Int("evicted", n),
				slog.Int("size", c.Len()),
				slog.Duration("elapsed", time.Since(start)),
			)
		}
	}
}
