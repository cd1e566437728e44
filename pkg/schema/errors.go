package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Path locates a value inside a JSON document as a sequence of property
// names and array indices, outermost first. Indices are stored in their
// decimal form.
type Path []string

// child extends the path with a property accessor.
func (p Path) child(name string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, name)
}

// index extends the path with an array index accessor.
func (p Path) index(i int) Path {
	return p.child(strconv.Itoa(i))
}

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return strings.Join(p, ".")
}

// Violation reports why a value failed validation against a schema. It
// carries the path of the offending value and a human-readable reason.
type Violation struct {
	Path   Path
	Reason string
}

func (v *Violation) Error() string {
	if len(v.Path) == 0 {
		return v.Reason
	}
	return v.Path.String() + ": " + v.Reason
}

func violationf(p Path, format string, args ...any) *Violation {
	return &Violation{Path: p, Reason: fmt.Sprintf(format, args...)}
}
