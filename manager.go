package settings

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-settings/internal/deepcopy"
	"github.com/goliatone/go-settings/pkg/audit"
	"github.com/goliatone/go-settings/pkg/backend"
)

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	logger         *logrus.Logger
	policy         WritePolicy
	registry       *Registry
	pipeline       *Pipeline
	adapter        Adapter
	hooks          audit.Hooks
	autoload       *bool
	currentSubSite int64
}

// WithLogger attaches a structured logger. Defaults to logrus.New().
func WithLogger(logger *logrus.Logger) Option {
	return func(cfg *managerConfig) {
		cfg.logger = logger
	}
}

// WithWritePolicy installs the gate consulted before every persistence
// attempt. Defaults to AllowAll.
func WithWritePolicy(policy WritePolicy) Option {
	return func(cfg *managerConfig) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithRegistry resolves named schema callables against registry instead of
// the builtin set.
func WithRegistry(registry *Registry) Option {
	return func(cfg *managerConfig) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithAdapter overrides adapter construction entirely, binding the manager
// to a caller-supplied adapter. Useful for tests and custom scopes.
func WithAdapter(adapter Adapter) Option {
	return func(cfg *managerConfig) {
		cfg.adapter = adapter
	}
}

// WithAuditHooks fans persistence events out to hooks. Hook failures are
// logged and never fail a commit.
func WithAuditHooks(hooks audit.Hooks) Option {
	return func(cfg *managerConfig) {
		cfg.hooks = hooks
	}
}

// WithAutoload sets the preload hint for scopes that support one. Ignored
// for scopes without an autoload concept.
func WithAutoload(enabled bool) Option {
	return func(cfg *managerConfig) {
		cfg.autoload = &enabled
	}
}

// WithCurrentSubSite threads the current sub-site id through adapter
// construction; see AdapterCurrentSubSite.
func WithCurrentSubSite(id int64) Option {
	return func(cfg *managerConfig) {
		cfg.currentSubSite = id
	}
}

// Manager binds one named settings bundle to one storage scope. It owns the
// in-memory value map and the merged schema, stages schema-checked values,
// and persists them with a retry-then-verify protocol. Managers are not
// safe for concurrent use; they model a single request-scoped mutation
// flow.
type Manager struct {
	name     string
	adapter  Adapter
	pipeline *Pipeline
	policy   WritePolicy
	hooks    audit.Hooks
	logger   *logrus.Logger

	be             backend.Backend
	currentSubSite int64

	values   map[string]any
	outcomes map[string]*Outcome
	autoload Autoload
	// requestedAutoload is the caller's WithAutoload preference, kept so
	// scope rebinding resolves the hint the same way construction did.
	requestedAutoload *bool
	existed           bool
}

// New constructs a Manager for the bundle called name, bound to scope over
// be, and loads the persisted blob once. A persisted blob that is not a
// string-keyed mapping is treated as "no data yet" and silently normalized
// to an empty bundle.
func New(ctx context.Context, name string, scope Scope, be backend.Backend, opts ...Option) (*Manager, error) {
	if name == "" {
		return nil, ErrBundleNameRequired
	}
	cfg := managerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = logrus.New()
	}
	if cfg.policy == nil {
		cfg.policy = AllowAll()
	}
	if cfg.pipeline == nil {
		cfg.pipeline = NewPipeline(cfg.registry)
	}

	adapter := cfg.adapter
	if adapter == nil {
		var err error
		adapter, err = NewAdapter(scope, be, AdapterCurrentSubSite(cfg.currentSubSite))
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		name:           name,
		adapter:        adapter,
		pipeline:       cfg.pipeline,
		policy:         cfg.policy,
		hooks:          cfg.hooks,
		logger:         cfg.logger,
		be:             be,
		currentSubSite: cfg.currentSubSite,
		outcomes:       map[string]*Outcome{},
	}
	m.requestedAutoload = cfg.autoload
	m.autoload = resolveAutoload(adapter, cfg.autoload)

	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func resolveAutoload(adapter Adapter, requested *bool) Autoload {
	if !adapter.SupportsAutoload() {
		return AutoloadNone
	}
	if requested != nil && !*requested {
		return AutoloadNo
	}
	return AutoloadYes
}

func (m *Manager) load(ctx context.Context) error {
	value, ok, err := m.adapter.Read(ctx, m.name, nil)
	if err != nil {
		return fmt.Errorf("settings: load bundle %q: %w", m.name, err)
	}
	m.existed = ok
	if mapped, isMap := value.(map[string]any); isMap {
		m.values = deepcopy.Map(mapped)
		return nil
	}
	if ok {
		m.logger.WithFields(logrus.Fields{
			"bundle": m.name,
			"scope":  m.adapter.Scope().String(),
		}).Debug("settings: persisted blob is not a mapping, starting empty")
	}
	m.values = map[string]any{}
	return nil
}

// Name returns the bundle name.
func (m *Manager) Name() string {
	return m.name
}

// Scope returns the bound storage scope.
func (m *Manager) Scope() Scope {
	return m.adapter.Scope()
}

// AutoloadHint returns the bundle's tri-state preload hint.
func (m *Manager) AutoloadHint() Autoload {
	return m.autoload
}

// Register declares the schema entry for key; see Pipeline.Register.
func (m *Manager) Register(key string, entry Entry) error {
	return m.pipeline.Register(key, entry)
}

// RegisterSchema declares several schema entries at once.
func (m *Manager) RegisterSchema(entries map[string]Entry) error {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := m.pipeline.Register(key, entries[key]); err != nil {
			return err
		}
	}
	return nil
}

// AttachComponent contributes component-bucket chains for key; see
// Pipeline.AttachComponent.
func (m *Manager) AttachComponent(key string, sanitize []Sanitizer, validate []Validator) error {
	return m.pipeline.AttachComponent(key, sanitize, validate)
}

// Stage runs value through the sanitize and validate chains for key and, on
// success, applies it to the in-memory map. Nothing is persisted until a
// commit. The call is chainable; failures leave the key's previous value in
// place and record warnings retrievable via Outcome. Staging a key with no
// schema entry is a caller error: it is logged and ignored, producing no
// warning entry.
func (m *Manager) Stage(key string, value any) *Manager {
	if !m.pipeline.Registered(key) {
		m.logger.WithFields(logrus.Fields{
			"bundle": m.name,
			"key":    key,
		}).Error("settings: staging rejected, key has no schema entry")
		return m
	}

	out := m.outcome(key)
	sanitized, ok := m.pipeline.Process(key, value, out)
	if !ok {
		return m
	}
	m.values[key] = deepcopy.Clone(sanitized)
	return m
}

// StageAll stages every entry of values in sorted key order. One key's
// failure never stops the remaining keys.
func (m *Manager) StageAll(values map[string]any) *Manager {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		m.Stage(key, values[key])
	}
	return m
}

// Outcome drains the accumulated messages for key. The second return
// reports whether a staging pass touched the key since the last drain.
func (m *Manager) Outcome(key string) (Outcome, bool) {
	out, ok := m.outcomes[key]
	if !ok {
		return Outcome{}, false
	}
	delete(m.outcomes, key)
	return *out, true
}

// Outcomes drains every accumulated outcome.
func (m *Manager) Outcomes() map[string]Outcome {
	drained := make(map[string]Outcome, len(m.outcomes))
	for key, out := range m.outcomes {
		drained[key] = *out
	}
	m.outcomes = map[string]*Outcome{}
	return drained
}

func (m *Manager) outcome(key string) *Outcome {
	out, ok := m.outcomes[key]
	if !ok {
		out = &Outcome{}
		m.outcomes[key] = out
	}
	return out
}

// Get returns the in-memory value for key, falling back to the registered
// default when the key has never been set. After a failed commit the
// returned value still reflects the attempted write.
func (m *Manager) Get(key string) any {
	if value, ok := m.values[key]; ok {
		return deepcopy.Clone(value)
	}
	if def, ok := m.pipeline.Default(key); ok {
		return deepcopy.Clone(def)
	}
	return nil
}

// Has reports whether key currently holds a value (defaults excluded).
func (m *Manager) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Values returns a deep copy of the in-memory value map.
func (m *Manager) Values() map[string]any {
	return deepcopy.Map(m.values)
}

// Keys returns the keys currently holding values, sorted alphabetically.
func (m *Manager) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Export returns the externally visible schema; see Pipeline.Export.
func (m *Manager) Export() map[string]ExportedEntry {
	return m.pipeline.Export()
}

// ImportSchema registers an exported schema; see Pipeline.Import.
func (m *Manager) ImportSchema(schema map[string]ExportedEntry) error {
	return m.pipeline.Import(schema)
}

// CommitReplace writes the in-memory map verbatim, overwriting any
// out-of-band changes made against the backend since load. Explicit
// last-write-wins semantics.
func (m *Manager) CommitReplace(ctx context.Context) (bool, error) {
	return m.save(ctx, OpSaveAll, audit.VerbSaved, m.values, false)
}

// CommitMerge performs a shallow, top-level merge of a fresh backend read
// with the in-memory map before writing, preserving keys this instance
// never touched. Nested structures are not deep-merged: the in-memory value
// for a touched key wins entirely. The merged map becomes the in-memory
// state only once the write policy grants the attempt.
func (m *Manager) CommitMerge(ctx context.Context) (bool, error) {
	current, ok, err := m.adapter.Read(ctx, m.name, nil)
	if err != nil {
		return false, fmt.Errorf("settings: merge read for bundle %q: %w", m.name, err)
	}
	merged := map[string]any{}
	if mapped, isMap := current.(map[string]any); ok && isMap {
		merged = deepcopy.Map(mapped)
	}
	for key, value := range m.values {
		merged[key] = value
	}
	return m.save(ctx, OpSaveAll, audit.VerbSaved, merged, true)
}

// SetAutoload rewrites the bundle row with a flipped preload hint. Scopes
// without an autoload concept reject the call.
func (m *Manager) SetAutoload(ctx context.Context, enabled bool) (bool, error) {
	if !m.adapter.SupportsAutoload() {
		return false, fmt.Errorf("%w: %s", ErrAutoloadUnsupported, m.adapter.Scope())
	}
	previous := m.autoload
	if enabled {
		m.autoload = AutoloadYes
	} else {
		m.autoload = AutoloadNo
	}
	ok, err := m.save(ctx, OpFlipAutoload, audit.VerbAutoload, m.values, false)
	if !ok {
		m.autoload = previous
	}
	return ok, err
}

// MigrateFunc receives a copy of the current value map and returns its
// replacement. Returning ok == false means "no change".
type MigrateFunc func(values map[string]any) (replacement map[string]any, ok bool)

// Migrate invokes fn with the current values and persists the replacement
// via replace semantics. Every replacement key is staged through the same
// sanitize and validate chains as a regular write: unregistered keys are
// dropped, and a key that fails validation keeps its current value. It is
// a deliberate no-op when the bundle has never been persisted, when fn
// declines, or when the staged result equals the current state.
func (m *Manager) Migrate(ctx context.Context, fn MigrateFunc) (bool, error) {
	if fn == nil {
		return false, fmt.Errorf("settings: migrate callback is required")
	}
	if !m.existed {
		return false, nil
	}
	replacement, ok := fn(deepcopy.Map(m.values))
	if !ok {
		return false, nil
	}

	keys := make([]string, 0, len(replacement))
	for key := range replacement {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	staged := map[string]any{}
	for _, key := range keys {
		if !m.pipeline.Registered(key) {
			m.logger.WithFields(logrus.Fields{
				"bundle": m.name,
				"key":    key,
			}).Error("settings: migrate produced a key with no schema entry")
			if previous, had := m.values[key]; had {
				staged[key] = deepcopy.Clone(previous)
			}
			continue
		}
		out := m.outcome(key)
		sanitized, okKey := m.pipeline.Process(key, replacement[key], out)
		if !okKey {
			if previous, had := m.values[key]; had {
				staged[key] = deepcopy.Clone(previous)
			}
			continue
		}
		staged[key] = deepcopy.Clone(sanitized)
	}
	if reflect.DeepEqual(staged, m.values) {
		return false, nil
	}
	return m.save(ctx, OpSaveAll, audit.VerbMigrated, staged, false)
}

// Erase removes the bundle row and clears the in-memory state. The write
// policy is consulted like any other persistence attempt.
func (m *Manager) Erase(ctx context.Context) (bool, error) {
	wctx := m.writeContext(OpErase, nil, false)
	if !m.policy.Allow(OpErase, wctx) {
		m.logDenied(wctx)
		return false, ErrWriteDenied
	}

	ok, err := m.adapter.Delete(ctx, m.name)
	m.logPrimitiveError(wctx, "delete", err)
	if !ok && m.existed {
		ok, err = m.adapter.Delete(ctx, m.name)
		m.logPrimitiveError(wctx, "delete", err)
	}
	if !ok {
		if _, found, readErr := m.adapter.Read(ctx, m.name, nil); readErr == nil && !found {
			m.logReconciled(wctx)
			ok = true
		}
	}
	if !ok {
		m.logFailed(wctx)
		return false, fmt.Errorf("%w: erase bundle %q", ErrStorageFailure, m.name)
	}

	m.values = map[string]any{}
	m.existed = false
	m.emit(ctx, audit.VerbErased, wctx)
	return true, nil
}

// WithScope returns a new Manager bound to the same bundle name, merged
// schema, write policy, logger, and hooks, but a different storage scope.
// The new manager loads its own blob; staged values and outcomes do not
// carry over.
func (m *Manager) WithScope(ctx context.Context, scope Scope) (*Manager, error) {
	if m.be == nil {
		return nil, fmt.Errorf("%w: manager was built with a custom adapter", ErrBackendRequired)
	}
	adapter, err := NewAdapter(scope, m.be, AdapterCurrentSubSite(m.currentSubSite))
	if err != nil {
		return nil, err
	}

	clone := &Manager{
		name:           m.name,
		adapter:        adapter,
		pipeline:       m.pipeline,
		policy:         m.policy,
		hooks:          m.hooks,
		logger:         m.logger,
		be:             m.be,
		currentSubSite: m.currentSubSite,
		outcomes:       map[string]*Outcome{},
	}
	clone.requestedAutoload = m.requestedAutoload
	clone.autoload = resolveAutoload(adapter, m.requestedAutoload)
	if err := clone.load(ctx); err != nil {
		return nil, err
	}
	return clone, nil
}

// save runs the persistence protocol: consult the gate once, attempt the
// primitive, fall back from update to add for rows that never existed,
// retry the chosen primitive exactly once, and finally reconcile a reported
// failure against a verify read. Once the gate grants, the in-memory map
// adopts the attempted values regardless of how the write turns out; a
// veto leaves it untouched.
func (m *Manager) save(ctx context.Context, op Operation, verb string, values map[string]any, mergeFromDB bool) (bool, error) {
	payload := deepcopy.Map(values)
	wctx := m.writeContext(op, payload, mergeFromDB)
	if !m.policy.Allow(op, wctx) {
		m.logDenied(wctx)
		return false, ErrWriteDenied
	}

	// The gate has granted: from here the in-memory map reflects the
	// attempted values.
	m.values = values

	primitive := "update"
	ok, err := m.adapter.Update(ctx, m.name, payload, m.autoload)
	m.logPrimitiveError(wctx, primitive, err)
	if !ok && !m.existed {
		primitive = "add"
		ok, err = m.adapter.Add(ctx, m.name, payload, m.autoload)
		m.logPrimitiveError(wctx, primitive, err)
	}
	if !ok {
		// Exactly one retry of the chosen primitive; latency stays bounded.
		switch primitive {
		case "add":
			ok, err = m.adapter.Add(ctx, m.name, payload, m.autoload)
		default:
			ok, err = m.adapter.Update(ctx, m.name, payload, m.autoload)
		}
		m.logPrimitiveError(wctx, primitive, err)
	}
	if !ok {
		current, _, readErr := m.adapter.Read(ctx, m.name, nil)
		if readErr == nil && reflect.DeepEqual(current, payload) {
			// The backend holds exactly what we attempted: treat the
			// reported failure as a false negative.
			m.logReconciled(wctx)
			ok = true
		}
	}
	if !ok {
		m.logFailed(wctx)
		return false, fmt.Errorf("%w: %s bundle %q", ErrStorageFailure, op, m.name)
	}

	m.existed = true
	m.emit(ctx, verb, wctx)
	return true, nil
}

func (m *Manager) writeContext(op Operation, payload map[string]any, mergeFromDB bool) WriteContext {
	scope := m.adapter.Scope()
	return WriteContext{
		Operation:   op,
		Bundle:      m.name,
		Payload:     payload,
		Autoload:    m.autoload,
		Scope:       scope,
		SubSiteID:   scope.SubSiteID,
		MergeFromDB: mergeFromDB,
		AttemptID:   uuid.New(),
	}
}

func (m *Manager) emit(ctx context.Context, verb string, wctx WriteContext) {
	if !m.hooks.Enabled() {
		return
	}
	event := audit.Event{
		ID:     wctx.AttemptID.String(),
		Verb:   verb,
		Bundle: m.name,
		Scope:  wctx.Scope.String(),
		Metadata: map[string]any{
			"operation":     string(wctx.Operation),
			"autoload":      wctx.Autoload.String(),
			"merge_from_db": wctx.MergeFromDB,
		},
		OccurredAt: time.Now(),
	}
	if err := m.hooks.Notify(ctx, event); err != nil {
		m.logger.WithFields(m.attemptFields(wctx)).WithError(err).Warn("settings: audit hooks failed")
	}
}

func (m *Manager) attemptFields(wctx WriteContext) logrus.Fields {
	return logrus.Fields{
		"bundle":     m.name,
		"scope":      wctx.Scope.String(),
		"operation":  string(wctx.Operation),
		"attempt_id": wctx.AttemptID.String(),
	}
}

func (m *Manager) logDenied(wctx WriteContext) {
	m.logger.WithFields(m.attemptFields(wctx)).Warn("settings: write denied by policy")
}

func (m *Manager) logPrimitiveError(wctx WriteContext, primitive string, err error) {
	if err == nil {
		return
	}
	fields := m.attemptFields(wctx)
	fields["primitive"] = primitive
	m.logger.WithFields(fields).WithError(err).Warn("settings: storage primitive failed")
}

func (m *Manager) logReconciled(wctx WriteContext) {
	m.logger.WithFields(m.attemptFields(wctx)).Warn("settings: backend reported failure but already holds the attempted payload, treating write as successful")
}

func (m *Manager) logFailed(wctx WriteContext) {
	m.logger.WithFields(m.attemptFields(wctx)).Error("settings: write failed after retry and verify read")
}
