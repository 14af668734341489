package settings

import "errors"

var (
	// ErrBundleNameRequired indicates a missing bundle name.
	ErrBundleNameRequired = errors.New("settings: bundle name must be provided")
	// ErrBackendRequired indicates construction without a backend or adapter.
	ErrBackendRequired = errors.New("settings: backend is required")
	// ErrUnsupportedScope indicates a scope the adapter factory cannot bind.
	ErrUnsupportedScope = errors.New("settings: unsupported scope")
	// ErrWriteDenied indicates the write policy vetoed a commit. No storage
	// call takes place.
	ErrWriteDenied = errors.New("settings: write denied by policy")
	// ErrStorageFailure indicates the backend rejected a write and the
	// verify read did not match the attempted payload.
	ErrStorageFailure = errors.New("settings: storage rejected the write")
	// ErrAutoloadUnsupported indicates an autoload flip on a scope with no
	// autoload concept.
	ErrAutoloadUnsupported = errors.New("settings: scope does not support autoload")
	// ErrUnknownFunction indicates a named callable could not be resolved
	// against the registry.
	ErrUnknownFunction = errors.New("settings: function not registered")
	// ErrDuplicateFunction indicates a registry name collision.
	ErrDuplicateFunction = errors.New("settings: function already registered")
	// ErrComponentAttached indicates a second component contribution for a
	// key that already has one.
	ErrComponentAttached = errors.New("settings: component chains already attached")
)
