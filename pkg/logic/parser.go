package logic

import "fmt"

// node is either a leaf (index > 0) or a binary AND/OR.
type node struct {
	op          tokenKind
	index       int
	left, right *node
}

func (n *node) eval(result func(i int) bool) bool {
	switch {
	case n.index > 0:
		return result(n.index)
	case n.op == tokenAnd:
		return n.left.eval(result) && n.right.eval(result)
	default:
		return n.left.eval(result) || n.right.eval(result)
	}
}

func (n *node) indexes(out []int) []int {
	if n.index > 0 {
		return append(out, n.index)
	}

	return n.right.indexes(n.left.indexes(out))
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (*node, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("expression is empty")
	}

	p := &parser{tokens: tokens}

	root, err := p.expr()
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		if t.kind == tokenRParen {
			return nil, fmt.Errorf("unbalanced parentheses: unexpected ) at position %d", t.pos+1)
		}

		return nil, fmt.Errorf("unexpected %s at position %d", t.kind, t.pos+1)
	}

	return root, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}

	return p.tokens[p.pos], true
}

// expr := term (OR term)*
func (p *parser) expr() (*node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}

	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOr {
			return left, nil
		}

		p.pos++

		right, err := p.term()
		if err != nil {
			return nil, err
		}

		left = &node{op: tokenOr, left: left, right: right}
	}
}

// term := factor (AND factor)*
func (p *parser) term() (*node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}

	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenAnd {
			return left, nil
		}

		p.pos++

		right, err := p.factor()
		if err != nil {
			return nil, err
		}

		left = &node{op: tokenAnd, left: left, right: right}
	}
}

// factor := INT | '(' expr ')'
func (p *parser) factor() (*node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expression ends with an operator")
	}

	switch t.kind {
	case tokenIndex:
		p.pos++

		if t.index == 0 {
			return nil, fmt.Errorf("condition numbers start at 1 (position %d)", t.pos+1)
		}

		return &node{index: t.index}, nil
	case tokenLParen:
		p.pos++

		inner, err := p.expr()
		if err != nil {
			return nil, err
		}

		closing, ok := p.peek()
		if !ok || closing.kind != tokenRParen {
			return nil, fmt.Errorf("unbalanced parentheses: missing ) for ( at position %d", t.pos+1)
		}

		p.pos++

		return inner, nil
	default:
		return nil, fmt.Errorf("expected a condition number at position %d, found %s", t.pos+1, t.kind)
	}
}
