package lang

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ardnew/keycalc/lang/syntax"
	"github.com/ardnew/keycalc/log"
)

// Engine owns the state shared by every [Calculator] it creates: the code
// module, the generator, and the compilation cache. It is safe for
// concurrent use.
type Engine struct {
	config config
	parser *syntax.Parser
	module *Module
	gen    *Generator
	cache  *Cache
	flight singleflight.Group
	logger log.Logger

	sessions   atomic.Uint64
	collisions atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

// Stats is a snapshot of engine counters.
type Stats struct {
	CacheStats `yaml:",inline"`

	Compiles   uint64 `json:"compiles"   yaml:"compiles"`
	Symbols    int    `json:"symbols"    yaml:"symbols"`
	Sessions   uint64 `json:"sessions"   yaml:"sessions"`
	Collisions uint64 `json:"collisions" yaml:"collisions"`
}

// NewEngine validates opts, starts the cache sweeper, and verifies that the
// code generator backend works by compiling a probe expression. Any failure
// is a [KindSystem] [Diagnostic].
func NewEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg, err := makeConfig(opts...)
	if err != nil {
		return nil, &Diagnostic{Kind: KindSystem, Detail: "invalid engine options", Cause: err}
	}

	module := NewModule()

	e := &Engine{
		config: cfg,
		parser: cfg.parser(),
		module: module,
		gen:    NewGenerator(module, cfg.logger, cfg.optimize),
		logger: cfg.logger,
	}

	e.cache = newCache(ctx, cfg, func(entry *Entry) {
		module.Release(entry.callable.Symbol())
	})

	if err := e.probe(ctx); err != nil {
		e.cache.Close()

		return nil, &Diagnostic{Kind: KindSystem, Detail: "code generator unavailable", Cause: err}
	}

	e.logger.DebugContext(ctx, "engine started",
		slog.Duration("retention", cfg.retention),
		slog.Duration("sweep_interval", cfg.sweepInterval),
		slog.Int("max_entries", cfg.maxEntries),
	)

	return e, nil
}

// probe compiles and runs 1 + 1 outside the cache.
func (e *Engine) probe(ctx context.Context) error {
	fn, err := e.gen.Compile(ctx, NewBinary(NewInteger(1), OpAdd, NewInteger(1)))
	if err != nil {
		return err
	}

	defer e.module.Release(fn.Symbol())

	v, err := fn.Call(ctx)
	if err != nil {
		return err
	}

	if !v.Equal(Integer(2)) {
		return ErrUnexpectedResult.With(slog.String("got", v.String()))
	}

	return nil
}

// Calculator returns a new editing session bound to e. Closing the
// calculator does not close e.
func (e *Engine) Calculator() *Calculator {
	id := e.sessions.Add(1)

	return &Calculator{
		engine: e,
		stage:  newParseStage(e.parser),
		id:     id,
		logger: e.logger.With(slog.Uint64("session", id)),
	}
}

// Cache returns the compilation cache.
func (e *Engine) Cache() *Cache { return e.cache }

// Module returns the code module holding compiled symbols.
func (e *Engine) Module() *Module { return e.module }

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		CacheStats: e.cache.Stats(),
		Compiles:   e.gen.Compiles(),
		Symbols:    e.module.Len(),
		Sessions:   e.sessions.Load(),
		Collisions: e.collisions.Load(),
	}
}

// Close stops the cache sweeper. Calculators bound to e fail with
// [ErrEngineClosed] afterward.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.cache.Close()
	})

	return nil
}

// evaluate runs the compiled program for expr, compiling and caching it on
// a miss. Concurrent misses for one key share a single compilation.
func (e *Engine) evaluate(ctx context.Context, key uint64, expr Expr) (Value, error) {
	if e.closed.Load() {
		return Value{}, ErrEngineClosed
	}

	if entry, ok := e.cache.Lookup(key); ok {
		if Equal(entry.expr, expr) {
			e.logger.TraceContext(ctx, "cache hit",
				slog.String("key", strconv.FormatUint(key, 16)),
				slog.String("symbol", entry.callable.Symbol()),
			)

			return entry.callable.Call(ctx)
		}

		e.collisions.Add(1)
		e.logger.WarnContext(ctx, "hash collision",
			slog.String("key", strconv.FormatUint(key, 16)),
			slog.String("cached", entry.expr.String()),
			slog.String("expr", expr.String()),
		)

		return e.compileOnce(ctx, expr)
	}

	type result struct {
		entry *Entry
		value Value
	}

	v, err, shared := e.flight.Do(strconv.FormatUint(key, 16), func() (any, error) {
		fn, err := e.gen.Compile(ctx, expr)
		if err != nil {
			e.logger.WarnContext(ctx, "compile failed",
				slog.String("expr", expr.String()),
				slog.Any("error", err),
			)

			return nil, err
		}

		value, err := fn.Call(ctx)
		if err != nil {
			e.module.Release(fn.Symbol())

			return nil, err
		}

		entry := e.cache.Insert(key, fn, expr)
		if entry.callable != fn {
			e.module.Release(fn.Symbol())
		}

		return result{entry: entry, value: value}, nil
	})
	if err != nil {
		return Value{}, err
	}

	r := v.(result)

	if !shared || Equal(r.entry.expr, expr) {
		e.logger.DebugContext(ctx, "cache miss",
			slog.String("key", strconv.FormatUint(key, 16)),
			slog.String("symbol", r.entry.callable.Symbol()),
			slog.Bool("shared", shared),
		)

		return r.value, nil
	}

	e.collisions.Add(1)

	return e.compileOnce(ctx, expr)
}

// compileOnce compiles and runs expr without caching it.
func (e *Engine) compileOnce(ctx context.Context, expr Expr) (Value, error) {
	fn, err := e.gen.Compile(ctx, expr)
	if err != nil {
		return Value{}, err
	}

	defer e.module.Release(fn.Symbol())

	return fn.Call(ctx)
}
