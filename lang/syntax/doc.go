// Package syntax is an incremental parser for calculator expressions.
//
// It produces concrete syntax trees whose shape mirrors a generated
// incremental grammar:
//
//	source
//	└── expression
//	    └── binary_expression
//	        ├── left: expression ── number
//	        ├── operator: "+"
//	        └── right: expression ── parenthesized_expression
//	            ├── "("
//	            ├── inner: expression ── float
//	            └── ")"
//
// Malformed input never fails to parse. Unexpected text is wrapped in
// ERROR nodes, and tokens the grammar requires but the input lacks are
// represented by zero-width MISSING nodes. Use [Node.HasError] to detect
// either.
//
// # Incremental reparsing
//
// A retained [Tree] is updated with [Tree.Edit] to describe a change to the
// source, then passed back to [Parser.Parse]. Operand subtrees that the edit
// did not touch are reused in the new tree:
//
//	tree, _ := p.Parse(src, nil)
//	tree.Edit(syntax.InputEdit{StartByte: 4, OldEndByte: 4, NewEndByte: 5})
//	tree, _ = p.Parse(next, tree)
//
// An edit that touches a node, including one that ends exactly at the
// node's start or begins exactly at its end, marks the node changed.
//
// # Grammar
//
// Integers are [0-9]+ and floats are [0-9]*\.[0-9]+, both optionally
// prefixed by '-' when they appear where an operand is expected. The binary
// operators are + and - (lowest), then * / and %, then ^ (right
// associative, highest). Whitespace may appear between any two tokens.
package syntax
