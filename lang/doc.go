// Package lang evaluates arithmetic expressions incrementally as they are
// edited.
//
// A [Calculator] is one editing session. Each call to [Calculator.Update]
// supplies the full new text plus the byte range that changed:
//
//	calc, _ := lang.New(ctx)
//	defer calc.Close()
//
//	calc.Update(ctx, "1", 0, 0, 1)          // Integer(1)
//	calc.Update(ctx, "1+", 1, 1, 2)         // *Diagnostic: missing number
//	calc.Update(ctx, "1+2.5", 2, 2, 5)      // Float(3.5)
//
// # Pipeline
//
// Every update runs the same stages:
//
//  1. The [Buffer] applies the edit to the session text.
//  2. The retained syntax tree is edited and reparsed, reusing subtrees the
//     edit did not touch (see package syntax).
//  3. [Validate] reports the first ERROR or MISSING node.
//  4. [Build] lowers the syntax tree to an immutable [Expr].
//  5. [Hash] keys the expression by structure, so whitespace and literal
//     spelling do not matter.
//  6. On a cache hit the compiled [Callable] runs directly. On a miss the
//     [Generator] compiles it, the result is cached, and the background
//     sweeper is signaled.
//
// Any failure is returned as a [*Diagnostic] carrying the source, the byte
// span at fault, an [ErrorKind], and often a hint.
//
// # Types
//
// There are two result types. Integer literals are 64-bit signed integers
// with wrapping arithmetic; float literals are IEEE-754 doubles. An
// operation is float if either operand is float, and division is always
// float, so 7 / 2 is 3.5 and 1 / 0 is +Inf.
//
// # Sharing
//
// An [Engine] owns the compiled code and the cache. Calculators from one
// engine share compiled expressions, and concurrent compiles of the same
// expression are collapsed into one.
package lang
