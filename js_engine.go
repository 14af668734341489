//go:build js_eval

package settings

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEngine compiles rule expressions using goja.
type jsEngine struct {
	cache ProgramCache
}

// NewJSEngine constructs a RuleEngine backed by goja.
func NewJSEngine(opts ...JSEngineOption) RuleEngine {
	cfg := applyJSEngineOptions(opts)
	return &jsEngine{cache: cfg.cache}
}

func (e *jsEngine) Name() string {
	return "js"
}

func (e *jsEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, errEmptyExpression
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsRule{program: program}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapJSExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsRule struct {
	program *goja.Program
}

// Evaluate runs the program in a fresh runtime so compiled rules stay safe
// for concurrent use.
func (r *jsRule) Evaluate(value any) (any, error) {
	vm := goja.New()
	vm.Set("value", value)
	out, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, err
	}
	return out.Export(), nil
}

func jsEngineAvailable() bool {
	return true
}
