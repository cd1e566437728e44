package schema

import (
	"math"
	"regexp"
)

// Validate walks schema and value in lock-step and returns the first
// violation found, or nil if the value conforms. The value is expected in
// the generic form produced by encoding/json (map[string]any, []any,
// float64, string, bool, nil).
//
// The schema is normalized internally, so Validate(nil, v) and
// Validate(Empty(), v) behave identically for every value v.
func Validate(s *Schema, value any) *Violation {
	return validate(Normalize(s), value, nil)
}

func validate(s *Schema, value any, path Path) *Violation {
	switch s.Kind {
	case KindNull:
		if value != nil {
			return violationf(path, "expected null, got %s", typeName(value))
		}
		return nil

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return violationf(path, "expected boolean, got %s", typeName(value))
		}
		return nil

	case KindNumber, KindInteger:
		return validateNumber(s, value, path)

	case KindString:
		return validateString(s, value, path)

	case KindArray:
		return validateArray(s, value, path)

	case KindObject:
		return validateObject(s, value, path)

	case KindUnion:
		for _, alt := range s.AnyOf {
			if validate(alt, value, path) == nil {
				return nil
			}
		}
		return violationf(path, "no matching union alternative")

	default:
		// Unknown kinds are unreachable for trees built by this package;
		// treat them as unconstrained for forward compatibility.
		return nil
	}
}

func validateNumber(s *Schema, value any, path Path) *Violation {
	n, ok := value.(float64)
	if !ok {
		return violationf(path, "expected %s, got %s", s.Kind, typeName(value))
	}
	if s.Kind == KindInteger && n != math.Trunc(n) {
		return violationf(path, "expected integer, got %v", n)
	}
	if s.Minimum != nil && n < *s.Minimum {
		return violationf(path, "%v is less than minimum %v", n, *s.Minimum)
	}
	if s.Maximum != nil && n > *s.Maximum {
		return violationf(path, "%v is greater than maximum %v", n, *s.Maximum)
	}
	if s.MultipleOf != nil && *s.MultipleOf != 0 {
		if r := math.Abs(math.Mod(n, *s.MultipleOf)); r > 1e-9 && math.Abs(r-*s.MultipleOf) > 1e-9 {
			return violationf(path, "%v is not a multiple of %v", n, *s.MultipleOf)
		}
	}
	return nil
}

func validateString(s *Schema, value any, path Path) *Violation {
	str, ok := value.(string)
	if !ok {
		return violationf(path, "expected string, got %s", typeName(value))
	}
	if len(s.Enum) > 0 {
		found := false
		for _, e := range s.Enum {
			if e == str {
				found = true
				break
			}
		}
		if !found {
			return violationf(path, "%q is not one of the allowed values", str)
		}
	}
	if s.MinLength != nil && len([]rune(str)) < *s.MinLength {
		return violationf(path, "string is shorter than %d characters", *s.MinLength)
	}
	if s.MaxLength != nil && len([]rune(str)) > *s.MaxLength {
		return violationf(path, "string is longer than %d characters", *s.MaxLength)
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return violationf(path, "schema pattern %q is not a valid expression", s.Pattern)
		}
		if !re.MatchString(str) {
			return violationf(path, "%q does not match pattern %q", str, s.Pattern)
		}
	}
	return nil
}

func validateArray(s *Schema, value any, path Path) *Violation {
	arr, ok := value.([]any)
	if !ok {
		return violationf(path, "expected array, got %s", typeName(value))
	}
	if s.MinItems != nil && len(arr) < *s.MinItems {
		return violationf(path, "array has fewer than %d items", *s.MinItems)
	}
	if s.MaxItems != nil && len(arr) > *s.MaxItems {
		return violationf(path, "array has more than %d items", *s.MaxItems)
	}
	if s.Items != nil {
		for i, item := range arr {
			if v := validate(s.Items, item, path.index(i)); v != nil {
				return v
			}
		}
	}
	return nil
}

func validateObject(s *Schema, value any, path Path) *Violation {
	// The empty Object schema means "no constraint" and is satisfied by any
	// value, including null.
	if IsEmpty(s) {
		return nil
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return violationf(path, "expected object, got %s", typeName(value))
	}
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			return violationf(path.child(name), "missing required property")
		}
	}
	for _, p := range s.Properties {
		v, present := obj[p.Name]
		if !present {
			continue
		}
		if viol := validate(p.Schema, v, path.child(p.Name)); viol != nil {
			return viol
		}
	}
	if s.Closed {
		for name := range obj {
			if s.Property(name) == nil {
				return violationf(path.child(name), "unexpected property")
			}
		}
	}
	return nil
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unsupported value"
	}
}
