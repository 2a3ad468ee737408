// Package profile wraps [github.com/pkg/profile] so the keycalc command can
// record a runtime profile selected by name.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// Use [Modes] to retrieve the list programmatically.
//
// # Usage
//
//	p := profile.New(profile.WithMode("cpu"), profile.WithPath(dir))
//	defer p.Start().Stop()
//
// The profile is written to dir with a name matching the mode (cpu.pprof,
// mem.pprof, ...) and can be analyzed with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/keycalc/pprof/cpu.pprof
//
// The stress command is the usual workload to profile:
//
//	keycalc --pprof-mode=cpu stress --count 5000
package profile

// Tag names the profiling flag group and the cache subdirectory profiles are
// written to.
const Tag = `pprof`
