package settings

// PlaceholderRef is the stable token anonymous callables export as. It
// survives export/import round-trips but never executes: closures are not
// portable, so the placeholder only preserves chain structure.
const PlaceholderRef = "{anonymous}"

// SanitizeFunc normalizes a submitted value before validation. notice
// reports non-blocking informational messages. Panics are not recovered by
// the pipeline; a sanitizer that panics is a programming error in the
// caller-supplied code.
type SanitizeFunc func(value any, notice func(string)) any

// ValidateFunc checks a sanitized value. warn reports blocking messages; the
// returned boolean decides whether the value is accepted.
type ValidateFunc func(value any, warn func(string)) bool

// Sanitizer pairs a sanitize function with an optional stable name. Named
// sanitizers survive schema export; anonymous ones export as PlaceholderRef.
// A name without a function is resolved against the registry when the entry
// is registered.
type Sanitizer struct {
	name string
	fn   SanitizeFunc
}

// NamedSanitizer wraps fn under a stable, exportable name.
func NamedSanitizer(name string, fn SanitizeFunc) Sanitizer {
	return Sanitizer{name: name, fn: fn}
}

// SanitizerFunc wraps an anonymous sanitize function.
func SanitizerFunc(fn SanitizeFunc) Sanitizer {
	return Sanitizer{fn: fn}
}

// RefSanitizer references a registry-provided sanitizer by name.
func RefSanitizer(name string) Sanitizer {
	return Sanitizer{name: name}
}

// Name returns the exportable name, or PlaceholderRef for anonymous
// callables.
func (s Sanitizer) Name() string {
	if s.name == "" {
		return PlaceholderRef
	}
	return s.name
}

func (s Sanitizer) placeholder() bool {
	return s.fn == nil && (s.name == "" || s.name == PlaceholderRef)
}

// Validator pairs a validate function with an optional stable name, with the
// same export semantics as Sanitizer.
type Validator struct {
	name string
	fn   ValidateFunc
}

// NamedValidator wraps fn under a stable, exportable name.
func NamedValidator(name string, fn ValidateFunc) Validator {
	return Validator{name: name, fn: fn}
}

// ValidatorFunc wraps an anonymous validate function.
func ValidatorFunc(fn ValidateFunc) Validator {
	return Validator{fn: fn}
}

// RefValidator references a registry-provided validator by name.
func RefValidator(name string) Validator {
	return Validator{name: name}
}

// Name returns the exportable name, or PlaceholderRef for anonymous
// callables.
func (v Validator) Name() string {
	if v.name == "" {
		return PlaceholderRef
	}
	return v.name
}

func (v Validator) placeholder() bool {
	return v.fn == nil && (v.name == "" || v.name == PlaceholderRef)
}

// Entry declares one key: the default used when the key was never set, plus
// the integrator-supplied sanitize and validate chains. A single callable is
// simply a single-element chain.
type Entry struct {
	Default  any
	Sanitize []Sanitizer
	Validate []Validator
}

// ExportedEntry is the externally visible schema form for one key. Only the
// integrator (schema) bucket is included; component-contributed callables
// are intentionally omitted.
type ExportedEntry struct {
	Default  any      `json:"default"`
	Sanitize []string `json:"sanitize"`
	Validate []string `json:"validate"`
}
