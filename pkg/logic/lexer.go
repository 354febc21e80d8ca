package logic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenIndex tokenKind = iota
	tokenAnd
	tokenOr
	tokenLParen
	tokenRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokenIndex:
		return "condition number"
	case tokenAnd:
		return "AND"
	case tokenOr:
		return "OR"
	case tokenLParen:
		return "("
	default:
		return ")"
	}
}

type token struct {
	kind  tokenKind
	index int
	pos   int
}

// tokenize splits an expression into indexes, AND, OR and parentheses.
// Keywords are case-insensitive.
func tokenize(expression string) ([]token, error) {
	var tokens []token

	runes := []rune(expression)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, pos: i})
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}

			n, err := strconv.Atoi(string(runes[start:i]))
			if err != nil {
				return nil, fmt.Errorf("invalid condition number at position %d", start+1)
			}

			tokens = append(tokens, token{kind: tokenIndex, index: n, pos: start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}

			switch word := strings.ToUpper(string(runes[start:i])); word {
			case "AND":
				tokens = append(tokens, token{kind: tokenAnd, pos: start})
			case "OR":
				tokens = append(tokens, token{kind: tokenOr, pos: start})
			default:
				return nil, fmt.Errorf("unexpected word %q at position %d, only AND and OR are allowed", word, start+1)
			}
		default:
			return nil, fmt.Errorf("invalid character %q at position %d", r, i+1)
		}
	}

	return tokens, nil
}
