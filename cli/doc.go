// Package cli contains the command line interface for keycalc.
//
// # Usage
//
// Without a command, keycalc starts the interactive evaluator, which shows
// the result of the expression being typed after every keystroke:
//
//	keycalc
//
// Other commands evaluate expressions non-interactively:
//
//	keycalc eval '1 + 2 * 3' '(1 + 2) * 3'
//	keycalc eval -s exprs.txt -o json
//	keycalc stress -n 10000 -j 4
//	keycalc init
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory. Nested YAML mappings are flattened with hyphens, so the
// following sets --log-level and --retention:
//
//	log:
//	  level: debug
//	retention: 10m
//
// The init command writes the effective flag values to that file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Engine Options
//
//   - --retention: Evict compiled expressions unused for this long
//   - --sweep-interval: Period of the background cache sweep
//   - --max-entries: Bound the number of cached expressions
//   - --max-input, --max-depth: Limit expression size and nesting
//   - --[no-]optimize: Fold constants before code generation
//
// # Profiling Options
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/keycalc/pprof)
//
// # Examples
//
//	# Debug logging with CPU profiling of a stress run
//	keycalc --log-level=debug --pprof-mode=cpu stress
//
//	# Keep compiled expressions for an hour
//	keycalc --retention=1h
package cli
