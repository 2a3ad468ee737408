package lang

import (
	"strings"

	"github.com/ardnew/keycalc/lang/syntax"
)

const hintGrammar = "only numbers, + - * /, and parentheses are allowed"

// ErrorNodes returns the ERROR and MISSING nodes under root in depth-first
// pre-order. Children of an ERROR node are not visited.
func ErrorNodes(root *syntax.Node) []*syntax.Node {
	var found []*syntax.Node

	var walk func(n *syntax.Node)

	walk = func(n *syntax.Node) {
		if !n.HasError() {
			return
		}

		if n.IsError() || n.IsMissing() {
			found = append(found, n)

			return
		}

		for c := range n.Children() {
			walk(c)
		}
	}

	walk(root)

	return found
}

// Validate reports the first syntax error in the tree rooted at root as a
// [KindParse] [Diagnostic], or nil if the tree is error-free.
func Validate(root *syntax.Node, src []byte) error {
	if root == nil {
		return diagnose(KindParse, src, 0, len(src), "no syntax tree")
	}

	if !root.HasError() {
		return nil
	}

	nodes := ErrorNodes(root)
	if len(nodes) == 0 {
		return diagnose(KindParse, src, 0, len(src), "syntax error")
	}

	n := nodes[0]

	if n.IsMissing() {
		d := diagnose(KindParse, src, n.StartByte(), n.EndByte(),
			"missing "+missingName(n))
		d.Hint = missingHint(n)

		return d
	}

	text := n.Content(src)

	d := diagnose(KindParse, src, n.StartByte(), n.EndByte(),
		"syntax error near '"+text+"'")
	d.Hint = errorHint(text)

	return d
}

func missingName(n *syntax.Node) string {
	if n.Kind() == syntax.KindPunctuation {
		return "'" + n.Type() + "'"
	}

	return n.Type()
}

func missingHint(n *syntax.Node) string {
	if n.Type() == ")" {
		return "unclosed parenthesis"
	}

	return "expected a number or '(' here"
}

func errorHint(text string) string {
	compact := strings.Join(strings.Fields(text), "")

	switch {
	case compact == "()":
		return "empty parentheses"
	case strings.HasPrefix(compact, ")"):
		return "unmatched closing parenthesis"
	default:
		return hintGrammar
	}
}
