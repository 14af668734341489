package settings

import "github.com/goliatone/go-settings/internal/hydrate"

// Decode hydrates the bundle's current value map into a typed snapshot
// struct via a JSON round trip. Unset keys fall back to their registered
// defaults before decoding.
func Decode[T any](m *Manager) (T, error) {
	values := m.Values()
	for _, key := range m.pipeline.Keys() {
		if _, ok := values[key]; ok {
			continue
		}
		if def, ok := m.pipeline.Default(key); ok && def != nil {
			values[key] = def
		}
	}

	decoder := hydrate.NewDecoder[T]()
	return decoder.Decode(hydrate.Context{
		Bundle: m.name,
		Scope:  m.adapter.Scope().String(),
	}, values)
}
