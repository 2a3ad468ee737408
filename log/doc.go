// Package log is the structured logger shared by the evaluator engine and
// the command line front end. It wraps [log/slog] with a fixed set of
// functional options applied when a [Logger] is created.
//
// # Usage
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	logger.Info("engine started", slog.Duration("retention", 5*time.Minute))
//
// Attributes bound with [Logger.With] are included in every record:
//
//	session := logger.With(slog.Uint64("session", 7))
//	session.DebugContext(ctx, "cache hit", slog.Uint64("key", key))
//
// The zero [Logger] discards everything, so components may hold one
// without checking whether logging was configured.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-keystroke
// pipeline detail. Levels and formats implement [encoding.TextUnmarshaler]
// so they can be bound directly to command line flags.
//
// # Formats
//
// [FormatJSON] writes one JSON object per record. [FormatText] writes
// key=value pairs, colorized when pretty output is enabled.
package log
