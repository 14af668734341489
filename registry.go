package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores named sanitize and validate functions. Names are
// case-insensitive. The registry resolves RefSanitizer/RefValidator schema
// entries and re-binds names during schema import; an attached rule engine
// additionally resolves expression-rule names.
type Registry struct {
	mu         sync.RWMutex
	sanitizers map[string]SanitizeFunc
	validators map[string]ValidateFunc
	engine     RuleEngine
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sanitizers: make(map[string]SanitizeFunc),
		validators: make(map[string]ValidateFunc),
	}
}

// RegisterSanitizer stores fn under name, guarding against duplicates.
func (r *Registry) RegisterSanitizer(name string, fn SanitizeFunc) error {
	if fn == nil {
		return fmt.Errorf("settings: sanitizer %q is nil", name)
	}
	key, err := registryKey(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sanitizers == nil {
		r.sanitizers = make(map[string]SanitizeFunc)
	}
	if _, exists := r.sanitizers[key]; exists {
		return fmt.Errorf("%w: sanitizer %q", ErrDuplicateFunction, name)
	}
	r.sanitizers[key] = fn
	return nil
}

// RegisterValidator stores fn under name, guarding against duplicates.
func (r *Registry) RegisterValidator(name string, fn ValidateFunc) error {
	if fn == nil {
		return fmt.Errorf("settings: validator %q is nil", name)
	}
	key, err := registryKey(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.validators == nil {
		r.validators = make(map[string]ValidateFunc)
	}
	if _, exists := r.validators[key]; exists {
		return fmt.Errorf("%w: validator %q", ErrDuplicateFunction, name)
	}
	r.validators[key] = fn
	return nil
}

// RegisterEngine attaches a rule engine used to resolve expression-rule
// names (the "rule:" prefix) during Ref resolution and schema import.
func (r *Registry) RegisterEngine(engine RuleEngine) {
	r.mu.Lock()
	r.engine = engine
	r.mu.Unlock()
}

// Clone returns a shallow copy of the registry.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{
		sanitizers: make(map[string]SanitizeFunc, len(r.sanitizers)),
		validators: make(map[string]ValidateFunc, len(r.validators)),
		engine:     r.engine,
	}
	for name, fn := range r.sanitizers {
		clone.sanitizers[name] = fn
	}
	for name, fn := range r.validators {
		clone.validators[name] = fn
	}
	return clone
}

// SanitizerNames returns registered sanitizer names sorted alphabetically.
func (r *Registry) SanitizerNames() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.sanitizers)
}

// ValidatorNames returns registered validator names sorted alphabetically.
func (r *Registry) ValidatorNames() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.validators)
}

// ResolveSanitizer returns the named sanitizer as an exportable callable.
func (r *Registry) ResolveSanitizer(name string) (Sanitizer, error) {
	if r == nil {
		return Sanitizer{}, fmt.Errorf("%w: sanitizer %q", ErrUnknownFunction, name)
	}
	r.mu.RLock()
	fn := r.sanitizers[strings.ToLower(name)]
	engine := r.engine
	r.mu.RUnlock()
	if fn != nil {
		return Sanitizer{name: name, fn: fn}, nil
	}
	if expression, ok := ruleExpression(name); ok && engine != nil {
		return RuleSanitizer(engine, expression)
	}
	return Sanitizer{}, fmt.Errorf("%w: sanitizer %q", ErrUnknownFunction, name)
}

// ResolveValidator returns the named validator as an exportable callable.
func (r *Registry) ResolveValidator(name string) (Validator, error) {
	if r == nil {
		return Validator{}, fmt.Errorf("%w: validator %q", ErrUnknownFunction, name)
	}
	r.mu.RLock()
	fn := r.validators[strings.ToLower(name)]
	engine := r.engine
	r.mu.RUnlock()
	if fn != nil {
		return Validator{name: name, fn: fn}, nil
	}
	if expression, ok := ruleExpression(name); ok && engine != nil {
		return RuleValidator(engine, expression, "")
	}
	return Validator{}, fmt.Errorf("%w: validator %q", ErrUnknownFunction, name)
}

func registryKey(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("settings: function name must not be empty")
	}
	return strings.ToLower(name), nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
