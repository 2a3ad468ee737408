package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/keycalc/lang"
	"github.com/ardnew/keycalc/log"
)

// Stress types random expressions one keystroke at a time and checks that
// every incremental result agrees with a full evaluation.
type Stress struct {
	Count    int     `help:"Number of expressions to type."                       default:"1000" short:"n"`
	Depth    int     `help:"Maximum parenthesis nesting of generated expressions." default:"3"`
	Terms    int     `help:"Maximum operands per (sub)expression."                 default:"5"`
	Sessions int     `help:"Concurrent sessions sharing one engine."               default:"1"    short:"j"`
	Typos    float64 `help:"Probability of a mistyped character followed by a backspace." default:"0.1"`
	Seed     uint64  `help:"Random seed (0 picks one)."                            default:"0"`

	stdout io.Writer
}

// stressRun accumulates the outcome of one session.
type stressRun struct {
	keystrokes []time.Duration
	failures   int
}

// Run executes the stress command.
func (s *Stress) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	// The reference engine has its own cache and module so full
	// evaluations never reuse programs compiled for incremental edits.
	reference, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer reference.Close()

	sessions := max(s.Sessions, 1)
	runs := make([]stressRun, sessions)

	begin := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	for i := range sessions {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			gen := exprGen{rng: rng, depth: s.Depth, terms: max(s.Terms, 1)}
			calc := engine.Calculator()
			check := reference.Calculator()

			for n := i; n < s.Count; n += sessions {
				text := gen.expression(s.Depth)

				lat, got, gotErr := s.typeOut(gctx, calc, rng, text)
				runs[i].keystrokes = append(runs[i].keystrokes, lat...)

				want, wantErr := check.Eval(gctx, text)

				if gctx.Err() != nil {
					return gctx.Err()
				}

				if agree(got, gotErr, want, wantErr) {
					continue
				}

				runs[i].failures++

				log.WarnContext(gctx, "stress mismatch",
					slog.String("expr", text),
					slog.String("incremental", outcome(got, gotErr)),
					slog.String("full", outcome(want, wantErr)),
				)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(begin)

	var (
		all      []time.Duration
		failures int
	)

	for _, r := range runs {
		all = append(all, r.keystrokes...)
		failures += r.failures
	}

	s.report(all, failures, elapsed, seed, engine.Stats())

	if failures > 0 {
		return ErrStress.With(
			slog.Int("failures", failures),
			slog.Uint64("seed", seed),
		)
	}

	return nil
}

// typeOut enters text into calc one character at a time, occasionally
// inserting a wrong character and deleting it again. It returns the latency
// of every keystroke and the final outcome.
func (s *Stress) typeOut(
	ctx context.Context,
	calc *lang.Calculator,
	rng *rand.Rand,
	text string,
) ([]time.Duration, lang.Value, error) {
	lat := make([]time.Duration, 0, len(text)*2)
	prev := ""

	var (
		v   lang.Value
		err error
	)

	key := func(next string) {
		start := time.Now()
		v, err = calc.Apply(ctx, next, lang.Diff(prev, next))
		lat = append(lat, time.Since(start))
		prev = next
	}

	// Clear whatever the session held from the last expression.
	if calc.Text() != "" {
		prev = calc.Text()
		key("")
	}

	for i := 1; i <= len(text); i++ {
		if s.Typos > 0 && rng.Float64() < s.Typos {
			typo := prev + string("0123456789+-*/()."[rng.IntN(17)])
			key(typo)
			key(typo[:len(typo)-1])
		}

		key(text[:i])
	}

	return lat, v, err
}

// agree reports whether an incremental outcome matches a full evaluation:
// equal values, or failures of the same kind.
func agree(got lang.Value, gotErr error, want lang.Value, wantErr error) bool {
	if gotErr != nil || wantErr != nil {
		return gotErr != nil && wantErr != nil && lang.KindOf(gotErr) == lang.KindOf(wantErr)
	}

	return got.Equal(want)
}

func outcome(v lang.Value, err error) string {
	if err != nil {
		return err.Error()
	}

	return v.String()
}

var (
	stressHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	stressCell   = lipgloss.NewStyle().Padding(0, 1)
	stressBad    = stressCell.Foreground(lipgloss.Color("1"))
)

func (s *Stress) report(
	lat []time.Duration,
	failures int,
	elapsed time.Duration,
	seed uint64,
	stats lang.Stats,
) {
	slices.Sort(lat)

	rate := 0.0
	if elapsed > 0 {
		rate = float64(len(lat)) / elapsed.Seconds()
	}

	rows := [][]string{
		{"expressions", strconv.Itoa(s.Count)},
		{"sessions", strconv.Itoa(max(s.Sessions, 1))},
		{"seed", strconv.FormatUint(seed, 10)},
		{"keystrokes", strconv.Itoa(len(lat))},
		{"elapsed", elapsed.Round(time.Millisecond).String()},
		{"keystrokes/s", strconv.FormatFloat(rate, 'f', 0, 64)},
		{"latency p50", percentile(lat, 50).String()},
		{"latency p90", percentile(lat, 90).String()},
		{"latency p99", percentile(lat, 99).String()},
		{"latency max", percentile(lat, 100).String()},
		{"cache hits", strconv.FormatUint(stats.Hits, 10)},
		{"cache misses", strconv.FormatUint(stats.Misses, 10)},
		{"compiles", strconv.FormatUint(stats.Compiles, 10)},
		{"evictions", strconv.FormatUint(stats.Evictions, 10)},
		{"cached", strconv.Itoa(stats.Size)},
		{"mismatches", strconv.Itoa(failures)},
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("metric", "value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return stressHeader
			case row == len(rows)-1 && failures > 0:
				return stressBad
			default:
				return stressCell
			}
		})

	fmt.Fprintln(s.out(), t.Render())
}

// percentile returns the p-th percentile of sorted by nearest rank.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	rank := (p*len(sorted) + 99) / 100

	return sorted[min(max(rank, 1), len(sorted))-1]
}

func (s *Stress) out() io.Writer {
	if s.stdout != nil {
		return s.stdout
	}

	return os.Stdout
}

// exprGen produces random well-formed expressions.
type exprGen struct {
	rng   *rand.Rand
	depth int
	terms int
}

var genOps = [...]string{"+", "-", "*", "/"}

// expression returns a chain of operands joined by random operators. Up to
// depth levels of parenthesized subexpressions may appear as operands.
func (g exprGen) expression(depth int) string {
	var sb strings.Builder

	n := 1 + g.rng.IntN(g.terms)

	for i := range n {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(genOps[g.rng.IntN(len(genOps))])
			sb.WriteByte(' ')
		}

		if depth > 0 && g.rng.IntN(4) == 0 {
			sb.WriteByte('(')
			sb.WriteString(g.expression(depth - 1))
			sb.WriteByte(')')

			continue
		}

		sb.WriteString(g.literal())
	}

	return sb.String()
}

func (g exprGen) literal() string {
	n := g.rng.IntN(200) - 99

	if g.rng.IntN(3) == 0 {
		return strconv.FormatFloat(float64(n)+float64(g.rng.IntN(100))/100, 'f', -1, 64)
	}

	return strconv.Itoa(n)
}
