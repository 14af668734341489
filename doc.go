// Package settings manages named, schema-validated option bundles persisted
// against scoped key-value backends (site, network, per-sub-site, per-user,
// per-content-item).
//
// The engine is built from four pieces:
//
//   - Adapter translates four primitive verbs (read, add, update, delete)
//     onto one scoped region of a backend.Backend and reports whether the
//     scope has an autoload concept.
//   - WritePolicy is an injectable gate consulted exactly once before every
//     persistence attempt.
//   - Pipeline merges per-key sanitize/validate chains from two origin
//     buckets (component contributions first, then integrator schema) and
//     executes them, collecting warnings and notices instead of failing.
//   - Manager owns one bundle's in-memory values, stages schema-checked
//     values, and commits them with replace or shallow-merge semantics
//     through a retry-then-verify protocol that distinguishes false-negative
//     backend failures from genuine ones.
//
// Data flow:
//
//	Register schema -> Stage values -> Pipeline -> CommitReplace/CommitMerge
//	-> WritePolicy -> Adapter -> retry once -> verify read
//
// Expected failures (validation warnings, policy vetoes, reconciled or
// genuine storage failures) are returned as values and sentinel errors so
// batch staging keeps going; only schema-contract violations and panics in
// caller-supplied callables are fatal.
//
// The engine runs within a single request-scoped flow: a Manager is not
// safe for concurrent use, retries are bounded to one per primitive, and
// conflict detection is optimistic via a comparison read, never a lock.
package settings
