// Package cmd implements the keycalc subcommands: the interactive repl, batch
// eval, the incremental stress test, and init for the configuration file.
//
// Commands receive a [context.Context] carrying the parsed [kong.Context]
// ([WithContext]) and the engine options assembled from global flags
// ([WithEngineOptions]).
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
