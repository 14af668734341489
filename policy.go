package settings

import "github.com/google/uuid"

// Operation identifies the kind of persistence attempt a write policy is
// asked about.
type Operation string

const (
	// OpSaveAll persists the full value map of a bundle.
	OpSaveAll Operation = "save_all"
	// OpFlipAutoload rewrites the bundle row with a changed autoload flag.
	OpFlipAutoload Operation = "flip_autoload_flag"
	// OpErase removes the bundle row.
	OpErase Operation = "erase"
)

// WriteContext describes one persistence attempt. It is created fresh per
// attempt and never persisted. AttemptID correlates log lines and audit
// events belonging to the same attempt.
type WriteContext struct {
	Operation Operation
	Bundle    string
	Payload   map[string]any
	Autoload  Autoload
	Scope     Scope
	// SubSiteID is zero when the scope has no sub-site target.
	SubSiteID int64
	// MergeFromDB is meaningful only for OpSaveAll.
	MergeFromDB bool
	AttemptID   uuid.UUID
}

// WritePolicy is consulted exactly once before every persistence attempt. It
// must be side-effect-safe: the engine may deny the operation afterwards for
// other reasons, and callers may invoke it purely for telemetry.
type WritePolicy interface {
	Allow(op Operation, wctx WriteContext) bool
}

// WritePolicyFunc adapts a function to WritePolicy. A nil func permits
// every write.
type WritePolicyFunc func(op Operation, wctx WriteContext) bool

// Allow implements WritePolicy.
func (f WritePolicyFunc) Allow(op Operation, wctx WriteContext) bool {
	if f == nil {
		return true
	}
	return f(op, wctx)
}

// AllowAll permits every write. It is the default policy.
func AllowAll() WritePolicy {
	return WritePolicyFunc(nil)
}

// PolicyChain consults a generic gate for every operation and then a gate
// bound to the resolved scope kind. Either may veto; a veto short-circuits
// the commit with no storage call.
type PolicyChain struct {
	Generic WritePolicy
	Scoped  map[ScopeKind]WritePolicy
}

// Allow implements WritePolicy.
func (c PolicyChain) Allow(op Operation, wctx WriteContext) bool {
	if c.Generic != nil && !c.Generic.Allow(op, wctx) {
		return false
	}
	if gate, ok := c.Scoped[wctx.Scope.Kind]; ok && gate != nil {
		return gate.Allow(op, wctx)
	}
	return true
}
