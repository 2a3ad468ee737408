package lang

import (
	"bufio"
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"
)

// ErrReadInput is returned by [Stream.Err] when the source cannot be read.
var ErrReadInput = NewError("failed to read input")

// Stream evaluates one expression per line of a reader. Blank lines and
// lines starting with '#' are skipped.
type Stream struct {
	reader  io.Reader
	calc    *Calculator
	name    string
	withAST bool
	err     error
}

// NewStream returns a stream evaluating the lines of r with calc. The
// reader is not consumed until [Stream.Results] is iterated.
func NewStream(calc *Calculator, r io.Reader) *Stream {
	return &Stream{reader: r, calc: calc}
}

// Named sets the source name reported in read errors.
func (s *Stream) Named(name string) *Stream {
	s.name = name

	return s
}

// WithExpr includes the built expression in each successful result.
func (s *Stream) WithExpr(enable bool) *Stream {
	s.withAST = enable

	return s
}

// Err returns the read error that ended iteration, if any.
func (s *Stream) Err() error { return s.err }

// Results returns an iterator over the evaluation of each line.
// Iteration stops early if ctx is cancelled or the reader fails.
func (s *Stream) Results(ctx context.Context) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		// Wrap reader with async read-ahead so input is fetched while
		// previous lines are evaluated.
		ra := readahead.NewReader(s.reader)
		defer ra.Close()

		scan := bufio.NewScanner(ra)
		scan.Buffer(make([]byte, 0, 4096), DefaultMaxInput+1)

		line := 0

		for scan.Scan() {
			line++

			text := strings.TrimRight(scan.Text(), "\r")
			if t := strings.TrimSpace(text); t == "" || strings.HasPrefix(t, "#") {
				continue
			}

			if ctx.Err() != nil {
				s.err = ctx.Err()

				return
			}

			if !yield(s.calc.Result(ctx, text, s.withAST)) {
				return
			}
		}

		if err := scan.Err(); err != nil {
			s.err = ErrReadInput.Wrap(err).With(
				slog.String("source", s.name),
				slog.Int("line", line),
			)
		}
	}
}

// Result evaluates text as a full replacement and packages the outcome.
// If withExpr is set, the built expression is included.
func (c *Calculator) Result(ctx context.Context, text string, withExpr bool) Result {
	v, err := c.Eval(ctx, text)

	r := Result{Input: text, Value: v, Err: err}
	if withExpr && err == nil {
		r.Expr = c.Expr()
	}

	return r
}
