package lang

import (
	"context"
	"log/slog"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/checker"
	"github.com/expr-lang/expr/compiler"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/optimizer"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/keycalc/log"
)

// symbolState is the lifecycle stage of a symbol in a [Module].
type symbolState uint8

const (
	symbolDeclared symbolState = iota
	symbolDefined
	symbolFinalized
)

func (s symbolState) String() string {
	switch s {
	case symbolDeclared:
		return "declared"
	case symbolDefined:
		return "defined"
	case symbolFinalized:
		return "finalized"
	default:
		return "symbolState(" + strconv.Itoa(int(s)) + ")"
	}
}

type symbol struct {
	program *vm.Program
	typ     Type
	state   symbolState
}

// Module holds compiled programs under unique symbol names. A symbol is
// declared with its result type, defined with a program, then finalized;
// only finalized symbols can be called. Module is safe for concurrent use.
type Module struct {
	mu      sync.RWMutex
	symbols map[string]*symbol
	next    atomic.Uint64
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{symbols: make(map[string]*symbol)}
}

// Declare reserves a new process-unique symbol of the given result type.
func (m *Module) Declare(typ Type) (string, error) {
	name := "calc_" + strconv.FormatUint(m.next.Add(1), 10)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.symbols[name]; ok {
		return "", ErrSymbolState.With(slog.String("symbol", name))
	}

	m.symbols[name] = &symbol{typ: typ, state: symbolDeclared}

	return name, nil
}

// Define attaches program to a declared symbol.
func (m *Module) Define(name string, program *vm.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sym, err := m.expect(name, symbolDeclared)
	if err != nil {
		return err
	}

	if program == nil {
		return ErrSymbolState.With(slog.String("symbol", name),
			slog.String("reason", "nil program"))
	}

	sym.program = program
	sym.state = symbolDefined

	return nil
}

// Finalize seals a defined symbol and returns a callable bound to it.
func (m *Module) Finalize(name string) (Callable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sym, err := m.expect(name, symbolDefined)
	if err != nil {
		return nil, err
	}

	sym.state = symbolFinalized

	return newCallable(name, sym.typ, sym.program), nil
}

// Lookup returns a callable for a finalized symbol.
func (m *Module) Lookup(name string) (Callable, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sym, ok := m.symbols[name]
	if !ok || sym.state != symbolFinalized {
		return nil, false
	}

	return newCallable(name, sym.typ, sym.program), true
}

// Release removes a symbol in any state. Callables already obtained for it
// remain usable.
func (m *Module) Release(name string) {
	m.mu.Lock()
	delete(m.symbols, name)
	m.mu.Unlock()
}

// Len returns the number of symbols in any state.
func (m *Module) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.symbols)
}

// expect returns the named symbol if it is in state want. The caller holds
// the write lock.
func (m *Module) expect(name string, want symbolState) (*symbol, error) {
	sym, ok := m.symbols[name]
	if !ok {
		return nil, ErrUnknownSymbol.With(slog.String("symbol", name))
	}

	if sym.state != want {
		return nil, ErrSymbolState.With(
			slog.String("symbol", name),
			slog.String("state", sym.state.String()),
			slog.String("want", want.String()),
		)
	}

	return sym, nil
}

// Callable runs one compiled expression. The concrete types are
// [IntegerCallable] and [FloatCallable]; both are safe for concurrent use.
type Callable interface {
	// Type returns the result domain fixed when the symbol was declared.
	Type() Type
	// Symbol returns the module symbol name.
	Symbol() string
	// Disassemble returns a listing of the compiled program.
	Disassemble() string
	// Call runs the program.
	Call(ctx context.Context) (Value, error)
	callable()
}

// machines pools virtual machines across all callables. A VM resets its
// state at the start of each run.
var machines = sync.Pool{New: func() any { return new(vm.VM) }}

type program struct {
	prog *vm.Program
	name string
}

func (p program) Symbol() string      { return p.name }
func (p program) Disassemble() string { return p.prog.Disassemble() }
func (program) callable()             {}

func (p program) run(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := machines.Get().(*vm.VM)
	defer machines.Put(m)

	out, err := m.Run(p.prog, nil)
	if err != nil {
		return nil, ErrJIT.Wrap(err).With(slog.String("symbol", p.name))
	}

	return out, nil
}

// IntegerCallable is a compiled expression returning an integer.
type IntegerCallable struct{ program }

// FloatCallable is a compiled expression returning a float.
type FloatCallable struct{ program }

func (IntegerCallable) Type() Type { return TypeInteger }
func (FloatCallable) Type() Type   { return TypeFloat }

func (c IntegerCallable) Call(ctx context.Context) (Value, error) {
	out, err := c.run(ctx)
	if err != nil {
		return Value{}, err
	}

	switch v := out.(type) {
	case int:
		return Integer(int64(v)), nil
	case int64:
		return Integer(v), nil
	default:
		return Value{}, ErrUnexpectedResult.With(
			slog.String("symbol", c.name),
			slog.String("got", resultTypeName(out)),
		)
	}
}

func (c FloatCallable) Call(ctx context.Context) (Value, error) {
	out, err := c.run(ctx)
	if err != nil {
		return Value{}, err
	}

	v, ok := out.(float64)
	if !ok {
		return Value{}, ErrUnexpectedResult.With(
			slog.String("symbol", c.name),
			slog.String("got", resultTypeName(out)),
		)
	}

	return Float(v), nil
}

func newCallable(name string, typ Type, prog *vm.Program) Callable {
	p := program{prog: prog, name: name}

	if typ == TypeFloat {
		return FloatCallable{p}
	}

	return IntegerCallable{p}
}

func resultTypeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}

// Generator compiles expressions into finalized [Module] symbols. It is
// safe for concurrent use; type checking is serialized.
type Generator struct {
	module   *Module
	logger   log.Logger
	mu       sync.Mutex // serializes type checking
	optimize bool
	compiles atomic.Uint64
}

// NewGenerator returns a generator defining symbols in m.
func NewGenerator(m *Module, logger log.Logger, optimize bool) *Generator {
	return &Generator{module: m, logger: logger, optimize: optimize}
}

// Module returns the module the generator defines symbols in.
func (g *Generator) Module() *Module { return g.module }

// Compiles returns the number of successful compilations.
func (g *Generator) Compiles() uint64 { return g.compiles.Load() }

// Compile lowers e to a program whose result type is [Resolve](e) and
// returns it as a finalized callable.
func (g *Generator) Compile(ctx context.Context, e Expr) (Callable, error) {
	if e == nil {
		return nil, ErrCompilation.With(slog.String("reason", "nil expression"))
	}

	typ := Resolve(e)

	node, err := lower(e)
	if err != nil {
		return nil, err
	}

	source := e.String()
	tree := &parser.Tree{Node: node, Source: file.NewSource(source)}

	config := conf.CreateNew()
	config.Expect = typ.reflectKind()
	config.Optimize = g.optimize

	g.mu.Lock()
	checked, err := checker.Check(tree, config)
	g.mu.Unlock()

	if err != nil {
		return nil, ErrCompilation.Wrap(err).With(slog.String("expr", source))
	}

	if got, ok := typeOfKind(checked); !ok || got != typ {
		return nil, ErrTypeMismatch.With(
			slog.String("expr", source),
			slog.String("resolved", typ.String()),
			slog.Any("checked", checked),
		)
	}

	if g.optimize {
		if err := optimizer.Optimize(&tree.Node, config); err != nil {
			return nil, ErrCompilation.Wrap(err).With(slog.String("expr", source))
		}
	}

	prog, err := compiler.Compile(tree, config)
	if err != nil {
		return nil, ErrCompilation.Wrap(err).With(slog.String("expr", source))
	}

	fn, err := g.install(typ, prog)
	if err != nil {
		return nil, err
	}

	g.compiles.Add(1)

	g.logger.DebugContext(ctx, "compiled expression",
		slog.String("symbol", fn.Symbol()),
		slog.String("type", typ.String()),
		slog.String("expr", source),
	)

	return fn, nil
}

// install declares, defines, and finalizes prog, releasing the symbol if
// any step fails.
func (g *Generator) install(typ Type, prog *vm.Program) (Callable, error) {
	name, err := g.module.Declare(typ)
	if err != nil {
		return nil, ErrJIT.Wrap(err)
	}

	if err := g.module.Define(name, prog); err != nil {
		g.module.Release(name)

		return nil, ErrJIT.Wrap(err)
	}

	fn, err := g.module.Finalize(name)
	if err != nil {
		g.module.Release(name)

		return nil, ErrJIT.Wrap(err)
	}

	return fn, nil
}

// typeOfKind maps a checker result type onto a [Type].
func typeOfKind(t reflect.Type) (Type, bool) {
	if t == nil {
		return 0, false
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return TypeInteger, true
	case reflect.Float64:
		return TypeFloat, true
	default:
		return 0, false
	}
}

// lower converts e into an expr-lang syntax tree. Operands of a float
// operation that resolve to integer are wrapped in a float conversion so
// every operation runs in a single domain.
func lower(e Expr) (ast.Node, error) {
	switch e := e.(type) {
	case *IntegerExpr:
		return &ast.IntegerNode{Value: int(e.Value)}, nil

	case *FloatExpr:
		return &ast.FloatNode{Value: e.Value}, nil

	case *ParenExpr:
		return lower(e.Inner)

	case *BinaryExpr:
		if !e.Op.Valid() {
			return nil, ErrCompilation.With(slog.String("op", e.Op.String()))
		}

		left, err := lower(e.Left)
		if err != nil {
			return nil, err
		}

		right, err := lower(e.Right)
		if err != nil {
			return nil, err
		}

		lt, rt := Resolve(e.Left), Resolve(e.Right)

		if promote(e.Op, lt, rt) == TypeFloat && e.Op != OpDivide {
			if lt == TypeInteger {
				left = toFloat(left)
			}

			if rt == TypeInteger {
				right = toFloat(right)
			}
		}

		return &ast.BinaryNode{Operator: e.Op.String(), Left: left, Right: right}, nil

	default:
		return nil, ErrCompilation.With(slog.String("reason", "unknown expression"))
	}
}

func toFloat(n ast.Node) ast.Node {
	return &ast.BuiltinNode{Name: "float", Arguments: []ast.Node{n}}
}
