package settings

import (
	"fmt"
	"strings"
)

// rulePrefix marks callable names backed by a compiled expression rather
// than a registered Go function. The expression follows the prefix verbatim
// so exported schemas re-import through a registry with a rule engine
// attached.
const rulePrefix = "rule:"

// RuleEngine compiles expressions used as schema callables.
type RuleEngine interface {
	Name() string
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program evaluated against one
// submitted value bound as "value".
type CompiledRule interface {
	Evaluate(value any) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// RuleValidator compiles expression on engine and wraps it as a named
// validator. The expression must yield a boolean; message is the warning
// emitted on rejection, with a generated fallback when empty. A runtime
// evaluation error or non-boolean result is a programming error in the
// supplied expression and panics, matching the pipeline's contract for
// caller-supplied code.
func RuleValidator(engine RuleEngine, expression, message string) (Validator, error) {
	if engine == nil {
		return Validator{}, fmt.Errorf("settings: rule engine is required")
	}
	rule, err := engine.Compile(expression)
	if err != nil {
		return Validator{}, fmt.Errorf("settings: %s rule %q: %w", engine.Name(), expression, err)
	}
	if message == "" {
		message = fmt.Sprintf("value rejected by rule %q", expression)
	}
	fn := func(value any, warn func(string)) bool {
		out, err := rule.Evaluate(value)
		if err != nil {
			panic(fmt.Errorf("settings: %s rule %q: %w", engine.Name(), expression, err))
		}
		ok, isBool := out.(bool)
		if !isBool {
			panic(fmt.Errorf("settings: %s rule %q returned %T, want bool", engine.Name(), expression, out))
		}
		if !ok {
			warn(message)
		}
		return ok
	}
	return Validator{name: rulePrefix + expression, fn: fn}, nil
}

// RuleSanitizer compiles expression on engine and wraps it as a named
// sanitizer whose result replaces the running value.
func RuleSanitizer(engine RuleEngine, expression string) (Sanitizer, error) {
	if engine == nil {
		return Sanitizer{}, fmt.Errorf("settings: rule engine is required")
	}
	rule, err := engine.Compile(expression)
	if err != nil {
		return Sanitizer{}, fmt.Errorf("settings: %s rule %q: %w", engine.Name(), expression, err)
	}
	fn := func(value any, _ func(string)) any {
		out, err := rule.Evaluate(value)
		if err != nil {
			panic(fmt.Errorf("settings: %s rule %q: %w", engine.Name(), expression, err))
		}
		return out
	}
	return Sanitizer{name: rulePrefix + expression, fn: fn}, nil
}

func ruleExpression(name string) (string, bool) {
	if !strings.HasPrefix(name, rulePrefix) {
		return "", false
	}
	expression := strings.TrimPrefix(name, rulePrefix)
	return expression, expression != ""
}
