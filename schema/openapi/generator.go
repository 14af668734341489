// Package openapi publishes exported bundle schemas as an OpenAPI document
// so host UIs and remote clients can discover the settings surface. The
// document describes shape and defaults only; sanitize and validate chains
// appear as property descriptions, since their behavior lives server-side.
package openapi

import (
	"encoding/json"
	"fmt"
	"strings"

	settings "github.com/goliatone/go-settings"
)

// Generator renders exported bundle schemas into an OpenAPI document.
type Generator struct {
	cfg generatorConfig
}

// NewGenerator constructs a Generator with the provided options applied over
// the defaults.
func NewGenerator(opts ...GeneratorOption) *Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Generator{cfg: cfg}
}

// Document builds the OpenAPI document for bundles, a map of bundle name to
// its exported schema.
func (g *Generator) Document(bundles map[string]map[string]settings.ExportedEntry) (*Document, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("openapi: at least one bundle schema is required")
	}

	schemas := make(map[string]*Schema, len(bundles))
	for bundle, exported := range bundles {
		if bundle == "" {
			return nil, fmt.Errorf("openapi: bundle name must not be empty")
		}
		schemas[bundle] = g.bundleSchema(bundle, exported)
	}

	return &Document{
		OpenAPI: g.cfg.openAPIVersion,
		Info: Info{
			Title:       g.cfg.info.Title,
			Version:     g.cfg.info.Version,
			Description: g.cfg.info.Description,
		},
		Components: Components{Schemas: schemas},
	}, nil
}

// MarshalJSON renders the document for bundles as indented JSON.
func (g *Generator) MarshalJSON(bundles map[string]map[string]settings.ExportedEntry) ([]byte, error) {
	document, err := g.Document(bundles)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(document, "", "  ")
}

func (g *Generator) bundleSchema(bundle string, exported map[string]settings.ExportedEntry) *Schema {
	title := g.cfg.schemaTitles[bundle]
	if title == "" {
		title = bundle
	}

	properties := make(map[string]*Schema, len(exported))
	for key, entry := range exported {
		properties[key] = propertySchema(entry)
	}
	return &Schema{
		Title:      title,
		Type:       "object",
		Properties: properties,
	}
}

func propertySchema(entry settings.ExportedEntry) *Schema {
	property := &Schema{
		Type:        inferType(entry.Default),
		Default:     entry.Default,
		Description: chainDescription(entry),
	}
	return property
}

// inferType maps a default value onto a JSON Schema type. Keys without a
// typed default stay untyped.
func inferType(value any) string {
	switch value.(type) {
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return ""
	}
}

func chainDescription(entry settings.ExportedEntry) string {
	var parts []string
	if len(entry.Sanitize) > 0 {
		parts = append(parts, "sanitize: "+strings.Join(entry.Sanitize, ", "))
	}
	if len(entry.Validate) > 0 {
		parts = append(parts, "validate: "+strings.Join(entry.Validate, ", "))
	}
	return strings.Join(parts, "; ")
}
