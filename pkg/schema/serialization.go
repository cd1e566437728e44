package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EncodeOptions controls schema serialization.
type EncodeOptions struct {
	// CompactNumbers drops the trailing fractional zero of whole numbers
	// (1.0 serializes as 1). When disabled, integral floats keep an explicit
	// decimal point. This is a serialization-time policy only; validation
	// treats both spellings of a number as equal.
	CompactNumbers bool
}

// Marshal serializes a schema tree to its wire form. Property order is
// preserved. A nil schema serializes as the canonical empty object ({}).
func Marshal(s *Schema, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeSchema(&buf, Normalize(s), opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with compact numbers, which is the
// native formatting of the Go JSON encoder.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return Marshal(s, EncodeOptions{CompactNumbers: true})
}

type fieldWriter struct {
	buf   *bytes.Buffer
	first bool
}

func (w *fieldWriter) field(name string, raw string) {
	if !w.first {
		w.buf.WriteByte(',')
	}
	w.first = false
	fmt.Fprintf(w.buf, "%q:%s", name, raw)
}

func writeSchema(buf *bytes.Buffer, s *Schema, opts EncodeOptions) error {
	buf.WriteByte('{')
	w := &fieldWriter{buf: buf, first: true}

	if s.Kind == KindUnion {
		alts := new(bytes.Buffer)
		alts.WriteByte('[')
		for i, alt := range s.AnyOf {
			if i > 0 {
				alts.WriteByte(',')
			}
			if err := writeSchema(alts, alt, opts); err != nil {
				return err
			}
		}
		alts.WriteByte(']')
		w.field("anyOf", alts.String())
		buf.WriteByte('}')
		return nil
	}

	if !IsEmpty(s) || s.Kind != KindObject {
		w.field("type", strconv.Quote(string(s.Kind)))
	}

	switch s.Kind {
	case KindNumber, KindInteger:
		if s.Minimum != nil {
			w.field("minimum", formatNumber(*s.Minimum, opts.CompactNumbers))
		}
		if s.Maximum != nil {
			w.field("maximum", formatNumber(*s.Maximum, opts.CompactNumbers))
		}
		if s.MultipleOf != nil {
			w.field("multipleOf", formatNumber(*s.MultipleOf, opts.CompactNumbers))
		}

	case KindString:
		if len(s.Enum) > 0 {
			raw, err := json.Marshal(s.Enum)
			if err != nil {
				return err
			}
			w.field("enum", string(raw))
		}
		if s.Pattern != "" {
			w.field("pattern", strconv.Quote(s.Pattern))
		}
		if s.MinLength != nil {
			w.field("minLength", strconv.Itoa(*s.MinLength))
		}
		if s.MaxLength != nil {
			w.field("maxLength", strconv.Itoa(*s.MaxLength))
		}

	case KindArray:
		if s.Items != nil {
			items := new(bytes.Buffer)
			if err := writeSchema(items, s.Items, opts); err != nil {
				return err
			}
			w.field("items", items.String())
		}
		if s.MinItems != nil {
			w.field("minItems", strconv.Itoa(*s.MinItems))
		}
		if s.MaxItems != nil {
			w.field("maxItems", strconv.Itoa(*s.MaxItems))
		}

	case KindObject:
		if len(s.Properties) > 0 {
			props := new(bytes.Buffer)
			props.WriteByte('{')
			for i, p := range s.Properties {
				if i > 0 {
					props.WriteByte(',')
				}
				fmt.Fprintf(props, "%q:", p.Name)
				if err := writeSchema(props, p.Schema, opts); err != nil {
					return err
				}
			}
			props.WriteByte('}')
			w.field("properties", props.String())
		}
		if len(s.Required) > 0 {
			raw, err := json.Marshal(s.Required)
			if err != nil {
				return err
			}
			w.field("required", string(raw))
		}
		if s.Closed {
			w.field("additionalProperties", "false")
		}
	}

	buf.WriteByte('}')
	return nil
}

// formatNumber renders a float constraint. Compact form uses the shortest
// representation; the explicit form keeps a ".0" on whole numbers.
func formatNumber(f float64, compact bool) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !compact && !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return out
}

// wireSchema mirrors the accepted JSON keywords. Unknown keywords are
// ignored, since only the documented subset is supported.
type wireSchema struct {
	Type                 json.RawMessage `json:"type"`
	Minimum              *float64        `json:"minimum"`
	Maximum              *float64        `json:"maximum"`
	MultipleOf           *float64        `json:"multipleOf"`
	Enum                 []string        `json:"enum"`
	Pattern              string          `json:"pattern"`
	MinLength            *int            `json:"minLength"`
	MaxLength            *int            `json:"maxLength"`
	Items                *Schema         `json:"items"`
	MinItems             *int            `json:"minItems"`
	MaxItems             *int            `json:"maxItems"`
	Properties           json.RawMessage `json:"properties"`
	Required             []string        `json:"required"`
	AdditionalProperties json.RawMessage `json:"additionalProperties"`
	AnyOf                []*Schema       `json:"anyOf"`
	OneOf                []*Schema       `json:"oneOf"`
}

// UnmarshalJSON parses the wire subset. A JSON null parses to the canonical
// empty Object schema, per the normalization rules.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = *Empty()
		return nil
	}

	var wire wireSchema
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	parsed, err := wire.build()
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

func (w *wireSchema) build() (*Schema, error) {
	// anyOf/oneOf groups take precedence over the sibling keywords;
	// the subset does not combine them.
	if alts := append(w.AnyOf, w.OneOf...); len(alts) > 0 {
		return &Schema{Kind: KindUnion, AnyOf: alts}, nil
	}

	kinds, err := parseTypeKeyword(w.Type)
	if err != nil {
		return nil, err
	}
	if len(kinds) > 1 {
		union := &Schema{Kind: KindUnion}
		for _, k := range kinds {
			alt, err := w.buildKind(k)
			if err != nil {
				return nil, err
			}
			union.AnyOf = append(union.AnyOf, alt)
		}
		return union, nil
	}
	if len(kinds) == 0 {
		// No type keyword: treated as unconstrained.
		return Empty(), nil
	}
	return w.buildKind(kinds[0])
}

func (w *wireSchema) buildKind(kind Kind) (*Schema, error) {
	s := &Schema{
		Kind:       kind,
		Minimum:    w.Minimum,
		Maximum:    w.Maximum,
		MultipleOf: w.MultipleOf,
		Enum:       w.Enum,
		Pattern:    w.Pattern,
		MinLength:  w.MinLength,
		MaxLength:  w.MaxLength,
		Items:      w.Items,
		MinItems:   w.MinItems,
		MaxItems:   w.MaxItems,
		Required:   w.Required,
	}
	if kind == KindObject {
		props, err := parseProperties(w.Properties)
		if err != nil {
			return nil, err
		}
		s.Properties = props
		s.Closed = bytes.Equal(bytes.TrimSpace(w.AdditionalProperties), []byte("false"))
	}
	return s, nil
}

func parseTypeKeyword(raw json.RawMessage) ([]Kind, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, fmt.Errorf("schema: invalid type list: %w", err)
		}
		kinds := make([]Kind, 0, len(names))
		for _, n := range names {
			kinds = append(kinds, Kind(n))
		}
		return kinds, nil
	}
	var name string
	if err := json.Unmarshal(trimmed, &name); err != nil {
		return nil, fmt.Errorf("schema: invalid type keyword: %w", err)
	}
	return []Kind{Kind(name)}, nil
}

// parseProperties decodes a properties object while preserving the order in
// which property names appear, which map-based decoding would lose.
func parseProperties(raw json.RawMessage) ([]Property, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("schema: invalid properties: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("schema: properties must be an object")
	}

	var props []Property
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("schema: invalid properties: %w", err)
		}
		name, _ := keyTok.(string)

		var child Schema
		if err := dec.Decode(&child); err != nil {
			return nil, fmt.Errorf("schema: property %q: %w", name, err)
		}
		props = append(props, Property{Name: name, Schema: &child})
	}
	return props, nil
}
