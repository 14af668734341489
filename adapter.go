package settings

import (
	"context"
	"fmt"

	"github.com/goliatone/go-settings/pkg/backend"
)

// Adapter translates the engine's four primitive verbs onto one scoped
// region of the host backend. Adapters are stateless per call, perform no
// validation or retries, and report the backend's own success booleans.
// Scopes without an autoload concept accept the hint but ignore it.
type Adapter interface {
	Scope() Scope
	SupportsAutoload() bool
	Read(ctx context.Context, key string, def any) (any, bool, error)
	Add(ctx context.Context, key string, value any, autoload Autoload) (bool, error)
	Update(ctx context.Context, key string, value any, autoload Autoload) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// AdapterOption configures adapter construction.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	currentSubSite int64
}

// AdapterCurrentSubSite threads the current sub-site id through adapter
// construction. Sub-site scopes support autoload only when they target the
// current sub-site, and non-global user options qualify keys by it. The
// engine reads no ambient globals.
func AdapterCurrentSubSite(id int64) AdapterOption {
	return func(cfg *adapterConfig) {
		cfg.currentSubSite = id
	}
}

// NewAdapter binds scope to one concrete adapter over be.
func NewAdapter(scope Scope, be backend.Backend, opts ...AdapterOption) (Adapter, error) {
	if be == nil {
		return nil, ErrBackendRequired
	}
	if err := scope.validate(); err != nil {
		return nil, err
	}
	cfg := adapterConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	switch scope.Kind {
	case ScopeSite:
		return &refAdapter{
			be:       be,
			scope:    scope,
			ref:      backend.Ref{Table: backend.TableSite},
			autoload: true,
		}, nil
	case ScopeNetwork:
		return &refAdapter{
			be:    be,
			scope: scope,
			ref:   backend.Ref{Table: backend.TableNetwork},
		}, nil
	case ScopeSubSite:
		return &refAdapter{
			be:       be,
			scope:    scope,
			ref:      backend.Ref{Table: backend.TableSubSite, ObjectID: scope.SubSiteID},
			autoload: scope.SubSiteID == cfg.currentSubSite,
		}, nil
	case ScopeUser:
		return &userAdapter{
			be:             be,
			scope:          scope,
			currentSubSite: cfg.currentSubSite,
		}, nil
	case ScopeContentItem:
		return &refAdapter{
			be:    be,
			scope: scope,
			ref:   backend.Ref{Table: backend.TableItemMeta, ObjectID: scope.ItemID},
		}, nil
	default:
		return nil, scope.validate()
	}
}

// refAdapter covers every scope whose translation is a fixed backend ref.
type refAdapter struct {
	be       backend.Backend
	scope    Scope
	ref      backend.Ref
	autoload bool
}

func (a *refAdapter) Scope() Scope {
	return a.scope
}

func (a *refAdapter) SupportsAutoload() bool {
	return a.autoload
}

func (a *refAdapter) Read(ctx context.Context, key string, def any) (any, bool, error) {
	value, ok, err := a.be.Read(ctx, a.ref, key)
	if err != nil || !ok {
		return def, false, err
	}
	return value, true, nil
}

func (a *refAdapter) Add(ctx context.Context, key string, value any, autoload Autoload) (bool, error) {
	return a.be.Add(ctx, a.ref, key, value, a.autoload && autoload.Bool())
}

func (a *refAdapter) Update(ctx context.Context, key string, value any, autoload Autoload) (bool, error) {
	return a.be.Update(ctx, a.ref, key, value, a.autoload && autoload.Bool())
}

func (a *refAdapter) Delete(ctx context.Context, key string) (bool, error) {
	return a.be.Delete(ctx, a.ref, key)
}

// userAdapter targets one user's meta or option store. Non-global user
// options qualify the storage key with the current sub-site so two sub-sites
// never share the row.
type userAdapter struct {
	be             backend.Backend
	scope          Scope
	currentSubSite int64
}

func (a *userAdapter) Scope() Scope {
	return a.scope
}

func (a *userAdapter) SupportsAutoload() bool {
	return false
}

func (a *userAdapter) ref() backend.Ref {
	table := backend.TableUserMeta
	if a.scope.UserStorage == UserOption {
		table = backend.TableUserOption
	}
	return backend.Ref{Table: table, ObjectID: a.scope.UserID}
}

func (a *userAdapter) storageKey(key string) string {
	if a.scope.UserStorage == UserOption && !a.scope.Global && a.currentSubSite > 0 {
		return fmt.Sprintf("%d_%s", a.currentSubSite, key)
	}
	return key
}

func (a *userAdapter) Read(ctx context.Context, key string, def any) (any, bool, error) {
	value, ok, err := a.be.Read(ctx, a.ref(), a.storageKey(key))
	if err != nil || !ok {
		return def, false, err
	}
	return value, true, nil
}

func (a *userAdapter) Add(ctx context.Context, key string, value any, _ Autoload) (bool, error) {
	return a.be.Add(ctx, a.ref(), a.storageKey(key), value, false)
}

func (a *userAdapter) Update(ctx context.Context, key string, value any, _ Autoload) (bool, error) {
	return a.be.Update(ctx, a.ref(), a.storageKey(key), value, false)
}

func (a *userAdapter) Delete(ctx context.Context, key string) (bool, error) {
	return a.be.Delete(ctx, a.ref(), a.storageKey(key))
}
