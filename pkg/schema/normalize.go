package schema

// Normalize canonicalizes a schema tree. It is total (never fails) and
// idempotent: Normalize(Normalize(s)) is structurally identical to
// Normalize(s).
//
// Rules:
//   - a nil schema becomes the canonical empty Object schema;
//   - a bare Null schema at the root becomes the empty Object schema, since
//     both mean "no constraint" for an action without parameters. Null
//     alternatives inside a Union keep their meaning (they match only a
//     literal null);
//   - children (items, properties, union alternatives) are normalized
//     recursively.
//
// The input tree is never mutated; the result shares no nodes with it.
func Normalize(s *Schema) *Schema {
	return normalize(s, true)
}

func normalize(s *Schema, root bool) *Schema {
	if s == nil {
		return Empty()
	}
	if root && s.Kind == KindNull {
		return Empty()
	}

	out := *s
	out.Enum = append([]string(nil), s.Enum...)
	out.Required = append([]string(nil), s.Required...)

	if s.Items != nil {
		out.Items = normalize(s.Items, false)
	}
	if len(s.Properties) > 0 {
		out.Properties = make([]Property, len(s.Properties))
		for i, p := range s.Properties {
			out.Properties[i] = Property{Name: p.Name, Schema: normalize(p.Schema, false)}
		}
	}
	if len(s.AnyOf) > 0 {
		out.AnyOf = make([]*Schema, len(s.AnyOf))
		for i, alt := range s.AnyOf {
			out.AnyOf[i] = normalize(alt, false)
		}
	}
	return &out
}
