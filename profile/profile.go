package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the sorted names of the supported profiling modes.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(modes))
	},
)

// Valid reports whether mode names a supported profiling mode.
func Valid(mode string) bool {
	_, ok := modes[mode]

	return ok
}

// Stopper ends a running profile and flushes it to disk.
type Stopper interface{ Stop() }

// Profiler describes one profile to record. The zero Profiler records
// nothing.
type Profiler struct {
	mode  string
	path  string
	quiet bool
}

// Option configures a [Profiler].
type Option func(Profiler) Profiler

// New returns a profiler configured by opts.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		if opt != nil {
			p = opt(p)
		}
	}

	return p
}

// WithMode selects the profiling mode. Unknown modes disable profiling.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.mode = mode

		return p
	}
}

// WithPath sets the directory profiles are written to.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.path = path

		return p
	}
}

// WithQuiet suppresses the start and stop messages printed by the profiler.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.quiet = quiet

		return p
	}
}

// Mode returns the configured mode.
func (p Profiler) Mode() string { return p.mode }

// Enabled reports whether Start would record a profile.
func (p Profiler) Enabled() bool { return Valid(p.mode) }

// Start begins recording and returns the handle that ends it. If p is not
// enabled the returned Stopper does nothing. Only one profile may run per
// process.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	opts := []func(*profile.Profile){modes[p.mode], profile.NoShutdownHook}

	if p.path != "" {
		opts = append(opts, profile.ProfilePath(p.path))
	}

	if p.quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}

type ignore struct{}

func (ignore) Stop() {}
