package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/keycalc/cli/cmd/repl"
	"github.com/ardnew/keycalc/log"
)

// Repl runs the interactive live evaluator.
type Repl struct{}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	cacheDir := kongVar(ctx, CacheIdentifier)

	log.DebugContext(ctx, "repl",
		slog.String("cache_dir", cacheDir),
	)

	return repl.Run(ctx, engine, cacheDir, log.Default())
}
