package schema

// Kind identifies one variant of the parameter-schema subset.
type Kind string

const (
	KindNull    Kind = "null"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	// KindUnion has no wire keyword of its own; it is produced from
	// "anyOf"/"oneOf" groups and from "type" lists.
	KindUnion Kind = "union"
)

// Schema is one node of a parameter-schema tree. The tree is finite (no
// self-reference) and covers only the documented subset of JSON Schema;
// which fields are meaningful depends on Kind.
type Schema struct {
	Kind Kind

	// Number / Integer constraints.
	Minimum    *float64
	Maximum    *float64
	MultipleOf *float64

	// String constraints.
	Enum      []string
	Pattern   string
	MinLength *int
	MaxLength *int

	// Array constraints.
	Items    *Schema
	MinItems *int
	MaxItems *int

	// Object constraints. Properties keeps declaration order.
	Properties []Property
	Required   []string
	// Closed rejects properties that are not declared (wire form:
	// "additionalProperties": false).
	Closed bool

	// Union alternatives, tried in order.
	AnyOf []*Schema
}

// Property is a named entry of an Object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Empty returns the canonical "no constraint" schema: an Object with no
// properties, no required set and an open property policy. It is satisfied
// by any JSON value, including null.
func Empty() *Schema {
	return &Schema{Kind: KindObject}
}

// IsEmpty reports whether s is structurally the canonical empty Object
// schema (or nil, which normalizes to it).
func IsEmpty(s *Schema) bool {
	if s == nil {
		return true
	}
	return s.Kind == KindObject &&
		len(s.Properties) == 0 &&
		len(s.Required) == 0 &&
		!s.Closed
}

// Property returns the schema declared for the named property of an Object
// schema, or nil if it is not declared.
func (s *Schema) Property(name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// requires reports whether name is in the Required set.
func (s *Schema) requires(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
