package openapi

// Document is the generated OpenAPI document. It carries only the sections
// the settings catalog uses: info plus component schemas, one per bundle.
type Document struct {
	OpenAPI    string     `json:"openapi"`
	Info       Info       `json:"info"`
	Components Components `json:"components"`
}

// Info is the OpenAPI info block.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Components holds the published bundle schemas keyed by component name.
type Components struct {
	Schemas map[string]*Schema `json:"schemas"`
}

// Schema is a minimal JSON Schema node. Bundle components are objects whose
// properties are the registered keys.
type Schema struct {
	Title       string             `json:"title,omitempty"`
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
}
