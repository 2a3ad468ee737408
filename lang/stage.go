package lang

import (
	"github.com/ardnew/keycalc/lang/syntax"
)

// parseStage owns the retained syntax tree of a [Calculator] and reparses
// its buffer incrementally after each edit.
type parseStage struct {
	parser *syntax.Parser
	tree   *syntax.Tree
}

func newParseStage(p *syntax.Parser) *parseStage {
	return &parseStage{parser: p}
}

// parse applies e to the retained tree, if any, and reparses src. On error
// the edited tree is kept so the next edit still describes it.
func (s *parseStage) parse(src []byte, e Edit) (*syntax.Tree, error) {
	if s.tree != nil {
		s.tree.Edit(e.InputEdit())
	}

	tree, err := s.parser.Parse(src, s.tree)
	if err != nil {
		return nil, err
	}

	s.tree = tree

	return tree, nil
}

func (s *parseStage) reset() { s.tree = nil }
