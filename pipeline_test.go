package settings

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPipelineBucketOrdering(t *testing.T) {
	p := NewPipeline(nil)
	var order []string
	step := func(label string) Sanitizer {
		return SanitizerFunc(func(value any, _ func(string)) any {
			order = append(order, label)
			return value
		})
	}

	// Schema registers first; the component bucket must still run first.
	if err := p.Register("field", Entry{Sanitize: []Sanitizer{step("schema-1"), step("schema-2")}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.AttachComponent("field", []Sanitizer{step("component-1")}, nil); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p.Sanitize("field", "x", &Outcome{})

	want := []string{"component-1", "schema-1", "schema-2"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("chain order mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineCollectsEveryWarning(t *testing.T) {
	p := NewPipeline(nil)
	reject := func(msg string) Validator {
		return ValidatorFunc(func(value any, warn func(string)) bool {
			warn(msg)
			return false
		})
	}
	if err := p.AttachComponent("field", nil, []Validator{reject("component says no")}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := p.Register("field", Entry{Validate: []Validator{reject("schema says no"), reject("schema still no")}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	out := Outcome{}
	if p.Validate("field", "x", &out) {
		t.Fatalf("expected rejection")
	}
	want := []string{"component says no", "schema says no", "schema still no"}
	if diff := cmp.Diff(want, out.Warnings); diff != "" {
		t.Fatalf("warning set mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineSanitizedValueFeedsValidation(t *testing.T) {
	p := NewPipeline(nil)
	if err := p.Register("count", Entry{
		Sanitize: []Sanitizer{RefSanitizer("intval")},
		Validate: []Validator{RefValidator("is_int")},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	out := Outcome{}
	value, ok := p.Process("count", " 42 ", &out)
	if !ok || value != 42 {
		t.Fatalf("expected sanitized 42 accepted, got %v ok=%v", value, ok)
	}
	if out.Blocked() {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
}

func TestPipelineComponentAttachesOnce(t *testing.T) {
	p := NewPipeline(nil)
	if err := p.AttachComponent("field", []Sanitizer{RefSanitizer("trim")}, nil); err != nil {
		t.Fatalf("attach: %v", err)
	}
	err := p.AttachComponent("field", []Sanitizer{RefSanitizer("trim")}, nil)
	if !errors.Is(err, ErrComponentAttached) {
		t.Fatalf("expected ErrComponentAttached, got %v", err)
	}
}

func TestPipelineComponentOnlyKeyIsNotRegistered(t *testing.T) {
	p := NewPipeline(nil)
	if err := p.AttachComponent("field", []Sanitizer{RefSanitizer("trim")}, nil); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if p.Registered("field") {
		t.Fatalf("component contribution must not count as registration")
	}
}

func TestPipelineReRegisterKeepsComponentBucket(t *testing.T) {
	p := NewPipeline(nil)
	var componentRan bool
	component := SanitizerFunc(func(value any, _ func(string)) any {
		componentRan = true
		return value
	})
	if err := p.AttachComponent("field", []Sanitizer{component}, nil); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := p.Register("field", Entry{Sanitize: []Sanitizer{RefSanitizer("trim")}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.Register("field", Entry{Sanitize: []Sanitizer{RefSanitizer("strval")}}); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	p.Sanitize("field", "x", &Outcome{})
	if !componentRan {
		t.Fatalf("re-registration must leave the component bucket in place")
	}
	exported := p.Export()["field"]
	if len(exported.Sanitize) != 1 || exported.Sanitize[0] != "strval" {
		t.Fatalf("expected replaced schema bucket, got %v", exported.Sanitize)
	}
}

func TestPipelineRegisterRejectsUnknownName(t *testing.T) {
	p := NewPipeline(nil)
	err := p.Register("field", Entry{Sanitize: []Sanitizer{RefSanitizer("no_such_fn")}})
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
}

func TestPipelineExportOmitsComponentBucket(t *testing.T) {
	p := NewPipeline(nil)
	if err := p.Register("field", Entry{
		Default:  "x",
		Sanitize: []Sanitizer{RefSanitizer("trim")},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.AttachComponent("field", []Sanitizer{RefSanitizer("strval")}, []Validator{RefValidator("is_string")}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	exported := p.Export()["field"]
	if diff := cmp.Diff([]string{"trim"}, exported.Sanitize); diff != "" {
		t.Fatalf("sanitize names mismatch (-want +got):\n%s", diff)
	}
	if len(exported.Validate) != 0 {
		t.Fatalf("component validators must not leak into the export: %v", exported.Validate)
	}
}

func TestPipelineAnonymousCallableExportsPlaceholder(t *testing.T) {
	p := NewPipeline(nil)
	anonymous := SanitizerFunc(func(value any, _ func(string)) any {
		return "rewritten"
	})
	if err := p.Register("field", Entry{Sanitize: []Sanitizer{anonymous, RefSanitizer("trim")}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	exported := p.Export()
	if diff := cmp.Diff([]string{PlaceholderRef, "trim"}, exported["field"].Sanitize); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}

	// Import into a fresh pipeline: the placeholder slot must be inert but
	// survive a re-export; the named slot still executes.
	imported := NewPipeline(nil)
	if err := imported.Import(exported); err != nil {
		t.Fatalf("import: %v", err)
	}
	out := Outcome{}
	value, ok := imported.Process("field", " hello ", &out)
	if !ok || value != "hello" {
		t.Fatalf("expected placeholder skipped and trim applied, got %v ok=%v", value, ok)
	}
	again := imported.Export()
	if diff := cmp.Diff([]string{PlaceholderRef, "trim"}, again["field"].Sanitize); diff != "" {
		t.Fatalf("re-export mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineImportResolvesAgainstRegistry(t *testing.T) {
	source := NewPipeline(nil)
	if err := source.Register("count", Entry{
		Default:  10,
		Sanitize: []Sanitizer{RefSanitizer("intval")},
		Validate: []Validator{RefValidator("is_int")},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	target := NewPipeline(nil)
	if err := target.Import(source.Export()); err != nil {
		t.Fatalf("import: %v", err)
	}

	out := Outcome{}
	value, ok := target.Process("count", "7", &out)
	if !ok || value != 7 {
		t.Fatalf("expected imported chain to execute, got %v ok=%v", value, ok)
	}
	if def, _ := target.Default("count"); def != 10 {
		t.Fatalf("expected default carried over, got %v", def)
	}
}

func TestPipelineImportFailsOnUnknownName(t *testing.T) {
	target := NewPipeline(nil)
	err := target.Import(map[string]ExportedEntry{
		"field": {Validate: []string{"custom_check"}},
	})
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
}
