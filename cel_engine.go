package settings

import (
	"errors"

	celgo "github.com/google/cel-go/cel"
)

var errEmptyExpression = errors.New("settings: expression must not be empty")

// CELEngineOption configures the CEL engine.
type CELEngineOption func(*celEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELEngineOption {
	return func(e *celEngine) {
		e.cache = cache
	}
}

// celEngine compiles rule expressions using cel-go.
type celEngine struct {
	cache ProgramCache
}

// NewCELEngine constructs a RuleEngine backed by cel-go.
func NewCELEngine(opts ...CELEngineOption) RuleEngine {
	e := &celEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEngine) Name() string {
	return "cel"
}

func (e *celEngine) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, errEmptyExpression
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celRule{program: program}, nil
}

func (e *celEngine) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := celgo.NewEnv(celgo.Variable("value", celgo.DynType))
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type celRule struct {
	program celgo.Program
}

func (r *celRule) Evaluate(value any) (any, error) {
	out, _, err := r.program.Eval(map[string]any{"value": value})
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}
