//go:build js_eval

package settings

import "testing"

func TestJSRuleValidator(t *testing.T) {
	if !jsEngineAvailable() {
		t.Fatalf("js engine must be available under the js_eval tag")
	}
	v, err := RuleValidator(NewJSEngine(), `typeof value === "string" && value.length > 0`, "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	warn := func(string) {}
	if !v.fn("hello", warn) {
		t.Fatalf("expected non-empty string accepted")
	}
	if v.fn("", warn) {
		t.Fatalf("expected empty string rejected")
	}
}

func TestJSRuleSanitizer(t *testing.T) {
	s, err := RuleSanitizer(NewJSEngine(), `String(value).trim().toLowerCase()`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := s.fn("  HELLO  ", nil); got != "hello" {
		t.Fatalf("expected lowercased trim, got %v", got)
	}
}

func TestJSEngineUsesProgramCache(t *testing.T) {
	cache := newMapCache()
	engine := NewJSEngine(JSWithProgramCache(cache))
	if _, err := engine.Compile(`value + 1`); err != nil {
		t.Fatalf("first compile: %v", err)
	}
	if _, err := engine.Compile(`value + 1`); err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if cache.sets != 1 || cache.hits != 1 {
		t.Fatalf("expected one store and one hit, got sets=%d hits=%d", cache.sets, cache.hits)
	}
}

func TestJSEngineCompileError(t *testing.T) {
	if _, err := NewJSEngine().Compile(`value +`); err == nil {
		t.Fatalf("expected compile failure")
	}
	if _, err := NewJSEngine().Compile(""); err == nil {
		t.Fatalf("expected empty expression rejected")
	}
}
