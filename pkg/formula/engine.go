// Package formula evaluates calculation expressions over form values using
// a restricted expr-lang environment: builtins are disabled and only the
// functions registered here are callable.
package formula

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// placeholder matches {Field Name} references, which may contain spaces.
var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewEngine() *Engine {
	return &Engine{cache: make(map[string]*vm.Program)}
}

// Evaluate runs expression against values. Bare identifiers and {Field Name}
// placeholders both resolve to entries of values.
func (e *Engine) Evaluate(expression string, values map[string]any) (any, error) {
	rewritten, env := bindPlaceholders(expression, values)

	program, err := e.program(rewritten)
	if err != nil {
		return nil, err
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expression, err)
	}

	return out, nil
}

// Validate compiles expression without running it.
func (e *Engine) Validate(expression string) error {
	rewritten, _ := bindPlaceholders(expression, nil)
	_, err := e.program(rewritten)

	return err
}

func (e *Engine) program(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()

	if ok {
		return program, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	options := append([]expr.Option{
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.DisableAllBuiltins(),
	}, functionOptions()...)

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", expression, err)
	}

	e.cache[expression] = program

	return program, nil
}

// bindPlaceholders rewrites {Field Name} into generated identifiers and
// returns an env holding values plus those identifiers.
func bindPlaceholders(expression string, values map[string]any) (string, map[string]any) {
	env := make(map[string]any, len(values))
	for k, v := range values {
		env[k] = v
	}

	names := map[string]string{}
	rewritten := placeholder.ReplaceAllStringFunc(expression, func(match string) string {
		field := strings.TrimSpace(match[1 : len(match)-1])

		ident, ok := names[field]
		if !ok {
			ident = fmt.Sprintf("__field%d", len(names))
			names[field] = ident
		}

		env[ident] = values[field]

		return ident
	})

	return rewritten, env
}
