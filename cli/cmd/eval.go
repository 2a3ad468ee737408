package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/keycalc/lang"
	"github.com/ardnew/keycalc/log"
)

// Eval evaluates expressions given as arguments, or one per line from source
// files or stdin.
type Eval struct {
	Expr   []string `arg:"" help:"Expressions to evaluate. Without arguments or --source, lines are read from stdin." name:"expr" optional:""`
	Source []string `       help:"Read expressions from file(s), or '-' for stdin."                                                      short:"s"`
	Format string   `       help:"Output format."                                                 default:"text" enum:"text,json,yaml" short:"o"`
	Indent int      `       help:"Indent width for json and yaml output (0 for compact)."        default:"2"`
	AST    bool     `       help:"Include the parsed expression and its structural hash."`

	stdin  io.Reader
	stdout io.Writer
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	calc := engine.Calculator()

	report := make(lang.Report, 0, len(e.Expr))

	for _, text := range e.Expr {
		report = append(report, calc.Result(ctx, text, e.AST))
	}

	paths := e.Source
	if len(paths) == 0 && len(e.Expr) == 0 {
		paths = []string{stdinSource}
	}

	srcs, err := openSources(paths, e.in())
	if err != nil {
		return err
	}
	defer srcs.Close()

	for _, src := range srcs {
		stream := lang.NewStream(calc, src.r).Named(src.name).WithExpr(e.AST)

		for res := range stream.Results(ctx) {
			report = append(report, res)
		}

		if err := stream.Err(); err != nil {
			return err
		}
	}

	if err := e.write(ctx, report); err != nil {
		return err
	}

	stats := engine.Stats()

	log.DebugContext(ctx, "eval complete",
		slog.Int("expressions", len(report)),
		slog.Int("failed", report.Failed()),
		slog.Uint64("cache_hits", stats.Hits),
		slog.Uint64("compiles", stats.Compiles),
	)

	if n := report.Failed(); n > 0 {
		return ErrEvalFailed.With(
			slog.Int("failed", n),
			slog.Int("total", len(report)),
		)
	}

	return nil
}

func (e *Eval) write(ctx context.Context, report lang.Report) error {
	out := e.out()

	switch e.Format {
	case "json":
		return report.FormatJSON(ctx, out, e.Indent)
	case "yaml":
		if err := report.FormatYAML(ctx, out, e.Indent); err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		return nil
	default:
		return report.Format(ctx, out)
	}
}

func (e *Eval) in() io.Reader {
	if e.stdin != nil {
		return e.stdin
	}

	return os.Stdin
}

func (e *Eval) out() io.Writer {
	if e.stdout != nil {
		return e.stdout
	}

	return os.Stdout
}
