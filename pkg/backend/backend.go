// Package backend defines the host-platform boundary for scoped key-value
// persistence. A Backend maps one storage row per (table, object, key) tuple;
// scope-aware translation, validation, retries, and merging all live in the
// engine, never here.
//
// Responsibilities:
//   - Backend only reads/writes a single opaque value for a single Ref + key.
//   - Add reports false when the row already exists; Update writes
//     unconditionally; Delete reports false when there was nothing to delete.
//   - The autoload flag is stored verbatim; whether it is meaningful for a
//     given scope is decided by the adapter layer.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Table identifies one scoped region of the host backend.
type Table string

const (
	// TableSite holds site-wide options for the current installation.
	TableSite Table = "site"
	// TableNetwork holds network-wide options shared across sub-sites.
	TableNetwork Table = "network"
	// TableSubSite holds per-sub-site options keyed by sub-site id.
	TableSubSite Table = "subsite"
	// TableUserMeta holds per-user metadata rows.
	TableUserMeta Table = "usermeta"
	// TableUserOption holds per-user option rows, optionally site-qualified.
	TableUserOption Table = "useroption"
	// TableItemMeta holds per-content-item metadata rows.
	TableItemMeta Table = "itemmeta"
)

var (
	// ErrKeyRequired indicates an empty storage key.
	ErrKeyRequired = errors.New("backend: key must be provided")
	// ErrObjectIDRequired indicates a table that needs an object id got none.
	ErrObjectIDRequired = errors.New("backend: object id must be provided")
	// ErrUnsupportedTable indicates a Ref naming an unknown table.
	ErrUnsupportedTable = errors.New("backend: unsupported table")
)

// Ref identifies one scoped row group within the host backend.
type Ref struct {
	Table    Table
	ObjectID int64
}

// Identifier returns the canonical storage key for one row. The format is
// deterministic so heterogeneous backends agree on row identity.
func (r Ref) Identifier(key string) (string, error) {
	if key == "" {
		return "", ErrKeyRequired
	}
	switch r.Table {
	case TableSite, TableNetwork:
		return fmt.Sprintf("%s/%s", r.Table, key), nil
	case TableSubSite, TableUserMeta, TableUserOption, TableItemMeta:
		if r.ObjectID <= 0 {
			return "", fmt.Errorf("%w: table %q", ErrObjectIDRequired, r.Table)
		}
		return fmt.Sprintf("%s/%d/%s", r.Table, r.ObjectID, key), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTable, r.Table)
	}
}

// Backend is the four-verb primitive set the engine persists through. The
// boolean returns are the backend's own success reports; the engine never
// infers success from the absence of an error.
type Backend interface {
	Read(ctx context.Context, ref Ref, key string) (any, bool, error)
	Add(ctx context.Context, ref Ref, key string, value any, autoload bool) (bool, error)
	Update(ctx context.Context, ref Ref, key string, value any, autoload bool) (bool, error)
	Delete(ctx context.Context, ref Ref, key string) (bool, error)
}
