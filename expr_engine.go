package settings

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEngineOption configures an expr engine instance.
type ExprEngineOption func(*exprEngine)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprEngineOption {
	return func(e *exprEngine) {
		e.cache = cache
	}
}

// exprEngine compiles rule expressions using github.com/expr-lang/expr.
type exprEngine struct {
	cache ProgramCache
}

// NewExprEngine constructs a RuleEngine backed by expr-lang/expr.
func NewExprEngine(opts ...ExprEngineOption) RuleEngine {
	e := &exprEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEngine) Name() string {
	return "expr"
}

// Compile returns a compiled rule evaluating expression against the
// submitted value bound as "value".
func (e *exprEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, errEmptyExpression
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprRule{program: program}, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprRule struct {
	program *exprvm.Program
}

func (r *exprRule) Evaluate(value any) (any, error) {
	return exprlang.Run(r.program, map[string]any{"value": value})
}
