package syntax

// InputEdit describes a change to source text in byte offsets: the bytes
// [StartByte, OldEndByte) of the old text were replaced by the bytes
// [StartByte, NewEndByte) of the new text.
type InputEdit struct {
	StartByte  int
	OldEndByte int
	NewEndByte int
}

// Valid reports whether the offsets are ordered and non-negative.
func (e InputEdit) Valid() bool {
	return e.StartByte >= 0 && e.OldEndByte >= e.StartByte &&
		e.NewEndByte >= e.StartByte
}

// Tree is the result of a parse. It is not safe for concurrent use.
type Tree struct {
	root    *Node
	length  int
	reused  int
	changed int
}

// NewTree wraps an existing root node spanning length bytes.
func NewTree(root *Node, length int) *Tree {
	return &Tree{root: root, length: length}
}

// Root returns the root node, always of kind [KindSource] for parsed trees.
func (t *Tree) Root() *Node {
	if t == nil {
		return nil
	}

	return t.root
}

// Len returns the length in bytes of the text the tree describes,
// including edits applied since it was parsed.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}

	return t.length
}

// Reused returns the number of operand subtrees carried over from the
// previous tree when t was parsed.
func (t *Tree) Reused() int {
	if t == nil {
		return 0
	}

	return t.reused
}

// Changed returns the number of nodes marked changed by edits since t was
// parsed.
func (t *Tree) Changed() int {
	if t == nil {
		return 0
	}

	return t.changed
}

// Edit adjusts the tree in place to account for a change to its source.
// Nodes after the edit are shifted, nodes touching it are marked changed.
// Invalid edits are ignored.
func (t *Tree) Edit(e InputEdit) {
	if t == nil || t.root == nil || !e.Valid() {
		return
	}

	t.changed += t.root.edit(e)
	t.length = max(t.length+e.NewEndByte-e.OldEndByte, 0)
}

// reusable collects unchanged, error-free operand subtrees keyed by their
// start offset.
func (t *Tree) reusable() map[int]*Node {
	if t == nil || t.root == nil {
		return nil
	}

	index := make(map[int]*Node)

	var walk func(n *Node)

	walk = func(n *Node) {
		if n.changed {
			for _, c := range n.children {
				walk(c)
			}

			return
		}

		if n.operand() {
			index[n.start] = n

			return
		}

		for _, c := range n.children {
			walk(c)
		}
	}

	walk(t.root)

	return index
}

// operand reports whether n is an error-free literal or parenthesized
// expression, the units [Parser.Parse] can reuse.
func (n *Node) operand() bool {
	if n.kind != KindExpression || n.digest == 0 || n.hasError || len(n.children) == 0 {
		return false
	}

	k := n.children[0].kind

	return k == KindNumber || k == KindFloat || k == KindParenthesized
}
