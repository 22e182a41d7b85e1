package model

// Schema is a JSON Schema fragment as the mock generator sees it. Nodes may
// reference each other cyclically through Items, Properties and the
// composition members.
type Schema struct {
	Type             SchemaType
	Format           string
	Pattern          string
	ContentMediaType string
	Description      string

	Enum []any

	// Constraints
	Minimum   *float64
	Maximum   *float64
	MinLength *int64
	MaxLength *int64
	MinItems  *int64
	MaxItems  *int64

	// Array items
	Items *Schema

	// Object properties, in declaration order
	Properties []Property

	// Composition
	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema

	// Ref is set when a reference could not be followed.
	Ref string
}

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
	TypeFile    SchemaType = "file" // Swagger 2.0 formData
)

type Property struct {
	Name   string
	Schema *Schema
}

// HasComposition reports whether s declares allOf, oneOf or anyOf members.
func (s *Schema) HasComposition() bool {
	return len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0
}

// IsBinary reports whether s describes file content.
func (s *Schema) IsBinary() bool {
	return s.Format == "binary" || s.Type == TypeFile
}
