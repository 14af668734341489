package settings

import (
	"fmt"
	"sort"
)

// Outcome accumulates the messages one staging pass produced for a key.
// Warnings block the submitted value; notices are informational.
type Outcome struct {
	Warnings []string
	Notices  []string
}

// Blocked reports whether any warning was emitted.
func (o Outcome) Blocked() bool {
	return len(o.Warnings) > 0
}

type keySchema struct {
	def        any
	registered bool

	// component chains come from reusable field definitions and always run
	// before the schema chains; registration order never reorders buckets.
	componentAttached bool
	componentSanitize []Sanitizer
	componentValidate []Validator
	schemaSanitize    []Sanitizer
	schemaValidate    []Validator
}

// Pipeline owns the merged schema for one bundle and executes sanitize and
// validate chains against submitted values. It is shared unchanged when a
// bundle is re-bound to another scope.
type Pipeline struct {
	registry *Registry
	keys     map[string]*keySchema
}

// NewPipeline constructs a pipeline resolving names against registry. A nil
// registry falls back to Builtins.
func NewPipeline(registry *Registry) *Pipeline {
	if registry == nil {
		registry = Builtins()
	}
	return &Pipeline{
		registry: registry,
		keys:     map[string]*keySchema{},
	}
}

// Registry exposes the resolving registry, mainly so rule engines can be
// attached after construction.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Register declares the schema entry for key. Registry references are
// resolved eagerly; an unknown name is a schema-contract violation and
// fails the registration. Re-registering a key replaces its schema bucket
// but leaves any component contribution in place.
func (p *Pipeline) Register(key string, entry Entry) error {
	if key == "" {
		return fmt.Errorf("settings: schema key must not be empty")
	}
	sanitize := make([]Sanitizer, 0, len(entry.Sanitize))
	for _, s := range entry.Sanitize {
		resolved, err := p.resolveSanitizer(key, s)
		if err != nil {
			return err
		}
		sanitize = append(sanitize, resolved)
	}
	validate := make([]Validator, 0, len(entry.Validate))
	for _, v := range entry.Validate {
		resolved, err := p.resolveValidator(key, v)
		if err != nil {
			return err
		}
		validate = append(validate, resolved)
	}

	ks := p.ensure(key)
	ks.def = entry.Default
	ks.schemaSanitize = sanitize
	ks.schemaValidate = validate
	ks.registered = true
	return nil
}

// AttachComponent contributes the component bucket for key. A reusable
// field definition contributes at most once per key.
func (p *Pipeline) AttachComponent(key string, sanitize []Sanitizer, validate []Validator) error {
	if key == "" {
		return fmt.Errorf("settings: schema key must not be empty")
	}
	ks := p.ensure(key)
	if ks.componentAttached {
		return fmt.Errorf("%w: key %q", ErrComponentAttached, key)
	}
	for _, s := range sanitize {
		resolved, err := p.resolveSanitizer(key, s)
		if err != nil {
			return err
		}
		ks.componentSanitize = append(ks.componentSanitize, resolved)
	}
	for _, v := range validate {
		resolved, err := p.resolveValidator(key, v)
		if err != nil {
			return err
		}
		ks.componentValidate = append(ks.componentValidate, resolved)
	}
	ks.componentAttached = true
	return nil
}

// Registered reports whether key has a schema entry. Component-only keys do
// not count: schema registration is mandatory for every mutated key.
func (p *Pipeline) Registered(key string) bool {
	ks, ok := p.keys[key]
	return ok && ks.registered
}

// Default returns the registered default for key.
func (p *Pipeline) Default(key string) (any, bool) {
	ks, ok := p.keys[key]
	if !ok || !ks.registered {
		return nil, false
	}
	return ks.def, true
}

// Keys returns the registered keys sorted alphabetically.
func (p *Pipeline) Keys() []string {
	names := make([]string, 0, len(p.keys))
	for key, ks := range p.keys {
		if ks.registered {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// Sanitize runs the merged sanitize chain (component bucket first, then
// schema bucket) and returns the final value. Placeholder entries are
// skipped. Panics from caller-supplied functions are not recovered.
func (p *Pipeline) Sanitize(key string, value any, out *Outcome) any {
	ks, ok := p.keys[key]
	if !ok {
		return value
	}
	notice := func(msg string) {
		out.Notices = append(out.Notices, msg)
	}
	for _, s := range ks.componentSanitize {
		if s.fn == nil {
			continue
		}
		value = s.fn(value, notice)
	}
	for _, s := range ks.schemaSanitize {
		if s.fn == nil {
			continue
		}
		value = s.fn(value, notice)
	}
	return value
}

// Validate runs the merged validate chain against a sanitized value. The
// whole chain runs even after a false result so every warning is collected
// in one pass; the value is valid only if every function returned true.
func (p *Pipeline) Validate(key string, value any, out *Outcome) bool {
	ks, ok := p.keys[key]
	if !ok {
		return true
	}
	warn := func(msg string) {
		out.Warnings = append(out.Warnings, msg)
	}
	valid := true
	for _, v := range ks.componentValidate {
		if v.fn == nil {
			continue
		}
		if !v.fn(value, warn) {
			valid = false
		}
	}
	for _, v := range ks.schemaValidate {
		if v.fn == nil {
			continue
		}
		if !v.fn(value, warn) {
			valid = false
		}
	}
	return valid
}

// Process sanitizes then validates one submitted value, accumulating
// messages into out. The sanitized value is returned together with whether
// it was accepted.
func (p *Pipeline) Process(key string, value any, out *Outcome) (any, bool) {
	sanitized := p.Sanitize(key, value, out)
	if !p.Validate(key, sanitized, out) {
		return sanitized, false
	}
	return sanitized, true
}

// Export returns the externally visible schema: per key, the default plus
// the schema bucket's callable names. Anonymous callables appear as
// PlaceholderRef; component contributions are omitted entirely.
func (p *Pipeline) Export() map[string]ExportedEntry {
	out := make(map[string]ExportedEntry, len(p.keys))
	for key, ks := range p.keys {
		if !ks.registered {
			continue
		}
		exported := ExportedEntry{
			Default:  ks.def,
			Sanitize: make([]string, 0, len(ks.schemaSanitize)),
			Validate: make([]string, 0, len(ks.schemaValidate)),
		}
		for _, s := range ks.schemaSanitize {
			exported.Sanitize = append(exported.Sanitize, s.Name())
		}
		for _, v := range ks.schemaValidate {
			exported.Validate = append(exported.Validate, v.Name())
		}
		out[key] = exported
	}
	return out
}

// Import registers the exported schema form. Named callables are resolved
// against the registry; placeholder tokens become inert placeholder entries
// that survive re-export but never execute.
func (p *Pipeline) Import(schema map[string]ExportedEntry) error {
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		exported := schema[key]
		entry := Entry{Default: exported.Default}
		for _, name := range exported.Sanitize {
			entry.Sanitize = append(entry.Sanitize, RefSanitizer(name))
		}
		for _, name := range exported.Validate {
			entry.Validate = append(entry.Validate, RefValidator(name))
		}
		if err := p.Register(key, entry); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) ensure(key string) *keySchema {
	ks, ok := p.keys[key]
	if !ok {
		ks = &keySchema{}
		p.keys[key] = ks
	}
	return ks
}

func (p *Pipeline) resolveSanitizer(key string, s Sanitizer) (Sanitizer, error) {
	if s.fn != nil || s.placeholder() {
		return s, nil
	}
	resolved, err := p.registry.ResolveSanitizer(s.name)
	if err != nil {
		return Sanitizer{}, fmt.Errorf("settings: key %q: %w", key, err)
	}
	return resolved, nil
}

func (p *Pipeline) resolveValidator(key string, v Validator) (Validator, error) {
	if v.fn != nil || v.placeholder() {
		return v, nil
	}
	resolved, err := p.registry.ResolveValidator(v.name)
	if err != nil {
		return Validator{}, fmt.Errorf("settings: key %q: %w", key, err)
	}
	return resolved, nil
}
