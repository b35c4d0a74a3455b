// Package manifest reads the declaration manifest the CLI drives the
// generator with: API info, type declarations and documented routes.
package manifest

// Manifest is the decoded declaration file. Keys follow the YAML tags; JSON
// input uses the same keys.
type Manifest struct {
	Title       string   `yaml:"title" json:"title"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description" json:"description"`
	Servers     []Server `yaml:"servers" json:"servers"`
	Types       []Type   `yaml:"types" json:"types"`
	Routes      []Route  `yaml:"routes" json:"routes"`
}

type Server struct {
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description" json:"description"`
}

// Type declares a structured type (Fields) or a tagged union (Variants).
type Type struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Fields      []Field   `yaml:"fields" json:"fields"`
	Variants    []Variant `yaml:"variants" json:"variants"`
}

// Field declares one field. Type is a type expression: a primitive, a
// declared type name, "[]T" or "?T".
type Field struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Optional    bool   `yaml:"optional" json:"optional"`
	Description string `yaml:"description" json:"description"`
}

// Variant declares one union variant. Doc starts with the status code the
// variant is returned with ("404: Not found").
type Variant struct {
	Name   string  `yaml:"name" json:"name"`
	Doc    string  `yaml:"doc" json:"doc"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Route declares one documented route. Success, Error and Request name
// declared types.
type Route struct {
	Method      string   `yaml:"method" json:"method"`
	Path        string   `yaml:"path" json:"path"`
	Doc         string   `yaml:"doc" json:"doc"`
	Success     string   `yaml:"success" json:"success"`
	Error       string   `yaml:"error" json:"error"`
	Request     string   `yaml:"request" json:"request"`
	Tags        []string `yaml:"tags" json:"tags"`
	OperationID string   `yaml:"operationId" json:"operationId"`
}
