package lang

import (
	"log/slog"
	"time"

	"github.com/ardnew/keycalc/lang/syntax"
	"github.com/ardnew/keycalc/log"
)

const (
	// DefaultRetention is how long an unused compiled expression stays
	// cached.
	DefaultRetention = 300 * time.Second
	// DefaultSweepInterval is the period of the background cache sweep.
	DefaultSweepInterval = 30 * time.Second
	// DefaultMaxInput is the default maximum expression length in bytes.
	DefaultMaxInput = syntax.DefaultMaxInput
	// DefaultMaxDepth is the default maximum parenthesis nesting depth.
	DefaultMaxDepth = syntax.DefaultMaxDepth
)

type config struct {
	logger        log.Logger
	clock         func() time.Time
	retention     time.Duration
	sweepInterval time.Duration
	maxEntries    int
	maxInput      int
	maxDepth      int
	optimize      bool
}

// Option configures an [Engine], [Calculator], or [Cache].
type Option func(*config)

// WithLogger sets the structured logger. If not provided, the logger is
// zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRetention sets how long a compiled expression may go unused before
// the sweeper evicts it.
func WithRetention(d time.Duration) Option {
	return func(c *config) {
		c.retention = d
	}
}

// WithSweepInterval sets the period of the background cache sweep.
// Sweeps also run shortly after each insert.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) {
		c.sweepInterval = d
	}
}

// WithMaxEntries bounds the number of cached expressions. Zero means
// unbounded.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}

// WithMaxInput sets the maximum expression length in bytes.
func WithMaxInput(n int) Option {
	return func(c *config) {
		c.maxInput = n
	}
}

// WithMaxDepth sets the maximum parenthesis nesting depth.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithClock sets the time source used for cache timestamps and sweeps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.clock = now
	}
}

// WithOptimize enables constant folding in the code generator backend.
func WithOptimize(enable bool) Option {
	return func(c *config) {
		c.optimize = enable
	}
}

func defaultConfig() config {
	return config{
		clock:         time.Now,
		retention:     DefaultRetention,
		sweepInterval: DefaultSweepInterval,
		maxInput:      DefaultMaxInput,
		maxDepth:      DefaultMaxDepth,
		optimize:      true,
	}
}

// makeConfig applies opts over the defaults and validates the result.
func makeConfig(opts ...Option) (config, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	invalid := func(name string, value any) error {
		return ErrInvalidOption.With(slog.Any(name, value))
	}

	switch {
	case cfg.retention <= 0:
		return cfg, invalid("retention", cfg.retention)
	case cfg.sweepInterval <= 0:
		return cfg, invalid("sweep_interval", cfg.sweepInterval)
	case cfg.maxEntries < 0:
		return cfg, invalid("max_entries", cfg.maxEntries)
	case cfg.maxInput <= 0:
		return cfg, invalid("max_input", cfg.maxInput)
	case cfg.maxDepth <= 0:
		return cfg, invalid("max_depth", cfg.maxDepth)
	case cfg.clock == nil:
		return cfg, invalid("clock", nil)
	}

	return cfg, nil
}

func (c config) parser() *syntax.Parser {
	return syntax.NewParser(
		syntax.WithMaxInput(c.maxInput),
		syntax.WithMaxDepth(c.maxDepth),
	)
}
