package lang

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ardnew/keycalc/lang/syntax"
	"github.com/ardnew/keycalc/log"
)

// Calculator is one live editing session. Each call to [Calculator.Update]
// applies an edit to the session text, reparses only what changed, and
// evaluates the result through the shared [Engine]. Calls are serialized.
type Calculator struct {
	mu     sync.Mutex
	engine *Engine
	owned  bool
	buf    Buffer
	stage  *parseStage
	expr   Expr
	id     uint64
	logger log.Logger
}

// New returns a calculator backed by a private engine that is closed with
// the calculator.
func New(ctx context.Context, opts ...Option) (*Calculator, error) {
	e, err := NewEngine(ctx, opts...)
	if err != nil {
		return nil, err
	}

	c := e.Calculator()
	c.owned = true

	return c, nil
}

// Engine returns the engine c evaluates through.
func (c *Calculator) Engine() *Engine { return c.engine }

// Update replaces the session text with text, where the bytes
// [start, oldEnd) of the previous text became [start, newEnd) of text, and
// evaluates it. Offsets that do not describe such an edit are clamped or
// treated as a full replacement. Every error is a *[Diagnostic].
func (c *Calculator) Update(ctx context.Context, text string, start, oldEnd, newEnd int) (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.update(ctx, text, Edit{Start: start, OldEnd: oldEnd, NewEnd: newEnd})
}

// Apply is [Calculator.Update] with the offsets given as an [Edit].
func (c *Calculator) Apply(ctx context.Context, text string, e Edit) (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.update(ctx, text, e)
}

// Eval replaces the whole session text with text and evaluates it.
func (c *Calculator) Eval(ctx context.Context, text string) (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.update(ctx, text, Replace(c.buf.Len(), len(text)))
}

func (c *Calculator) update(ctx context.Context, text string, e Edit) (Value, error) {
	begin := time.Now()
	next := []byte(text)

	if err := ctx.Err(); err != nil {
		return Value{}, c.system(next, "update cancelled", err)
	}

	e = normalize(e, c.buf.Bytes(), next)
	c.buf.Update(next, e.Start, e.OldEnd, e.NewEnd)
	src := c.buf.Bytes()

	c.expr = nil

	tree, err := c.stage.parse(src, e)
	if err != nil {
		d := diagnose(KindParse, src, 0, len(src), "failed to parse input")
		d.Cause = err

		if errors.Is(err, syntax.ErrInputTooLarge) {
			d.Hint = "expressions are limited to " +
				strconv.Itoa(c.engine.config.maxInput) + " bytes"
		}

		return Value{}, d
	}

	parsed := time.Now()

	if err := Validate(tree.Root(), src); err != nil {
		return Value{}, err
	}

	expr, err := Build(tree.Root(), src)
	if err != nil {
		return Value{}, err
	}

	built := time.Now()

	if err := ctx.Err(); err != nil {
		return Value{}, c.system(src, "update cancelled", err)
	}

	c.expr = expr
	key := Hash(expr)

	v, err := c.engine.evaluate(ctx, key, expr)
	if err != nil {
		return Value{}, c.evalError(src, expr, err)
	}

	c.logger.TraceContext(ctx, "update",
		slog.Int("start", e.Start),
		slog.Int("old_end", e.OldEnd),
		slog.Int("new_end", e.NewEnd),
		slog.Int("reused", tree.Reused()),
		slog.Duration("parse", parsed.Sub(begin)),
		slog.Duration("build", built.Sub(parsed)),
		slog.Duration("eval", time.Since(built)),
		slog.String("value", v.String()),
	)

	return v, nil
}

// evalError wraps a code generation or execution failure in a Diagnostic
// spanning expr.
func (c *Calculator) evalError(src []byte, expr Expr, err error) *Diagnostic {
	kind := KindOf(err)

	detail := "evaluation failed"

	switch kind {
	case KindCompilation:
		detail = "failed to compile expression"
	case KindTypeMismatch:
		detail = "result type disagrees with code generator"
	case KindJIT:
		detail = "failed to run compiled expression"
	case KindSystem:
		if errors.Is(err, ErrEngineClosed) {
			detail = "engine closed"
		}
	}

	sp := expr.Span()
	d := diagnose(kind, src, sp.Offset, sp.End(), detail)
	d.Cause = err

	return d
}

func (c *Calculator) system(src []byte, detail string, err error) *Diagnostic {
	d := diagnose(KindSystem, src, 0, len(src), detail)
	d.Cause = err

	return d
}

// Text returns the current session text.
func (c *Calculator) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buf.String()
}

// Tree returns the syntax tree of the current text, or nil before the first
// update. The tree is retained for incremental parsing and is only valid
// until the next call to Update, Apply, Eval, or Reset. Use [Calculator.Syntax]
// for a snapshot that outlives the next edit.
func (c *Calculator) Tree() *syntax.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stage.tree
}

// Syntax returns the S-expression of the current syntax tree and the number
// of subtrees its parse reused. The S-expression is empty before the first
// update.
func (c *Calculator) Syntax() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage.tree == nil {
		return "", 0
	}

	return c.stage.tree.Root().String(), c.stage.tree.Reused()
}

// Expr returns the expression built by the last successful parse, or nil if
// the current text does not form one.
func (c *Calculator) Expr() Expr {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expr
}

// Reset clears the session text and drops the retained syntax tree.
func (c *Calculator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Reset(nil)
	c.stage.reset()
	c.expr = nil
}

// Close releases the session. A calculator created by [New] also closes
// its engine.
func (c *Calculator) Close() error {
	if c.owned {
		return c.engine.Close()
	}

	return nil
}
