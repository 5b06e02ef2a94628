package knowledge

import (
	"strings"
	"time"
)

// ElementType classifies a code element.
type ElementType string

const (
	TypeFunction ElementType = "function"
	TypeModule   ElementType = "module"
	TypeConstant ElementType = "constant"
	TypeVariable ElementType = "variable"
)

// Types lists every valid element type in stable order.
func Types() []ElementType {
	return []ElementType{TypeFunction, TypeModule, TypeConstant, TypeVariable}
}

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case TypeFunction, TypeModule, TypeConstant, TypeVariable:
		return true
	}
	return false
}

func (t ElementType) String() string {
	return string(t)
}

// Element is one node in the knowledge tree: a named piece of code plus its
// forward dependency edges and the derived reverse edges.
type Element struct {
	ID           string      `json:"id"`
	Type         ElementType `json:"type"`
	Code         string      `json:"code"`
	Description  string      `json:"description"`
	Dependencies []string    `json:"dependencies"`
	Dependents   []string    `json:"dependents"`
	SourceFile   string      `json:"source_file,omitempty"`
	LineRange    string      `json:"line_range,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot alias store-internal state.
func (e *Element) Clone() *Element {
	dup := *e
	dup.Dependencies = append([]string(nil), e.Dependencies...)
	dup.Dependents = append([]string(nil), e.Dependents...)
	return &dup
}

// DependsOn reports whether id appears in the element's forward edges.
func (e *Element) DependsOn(id string) bool {
	for _, dep := range e.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// maxIDLen keeps ids usable as file names on common filesystems.
const maxIDLen = 255

// ValidateID checks that id can serve as both a graph key and a file name
// under elements/. Empty ids and ids that could escape the tree directory
// are rejected.
func ValidateID(id string) error {
	if id == "" {
		return EmptyID()
	}
	if len(id) > maxIDLen {
		return InvalidID(id, "longer than 255 bytes")
	}
	if id == "." || id == ".." {
		return InvalidID(id, "reserved name")
	}
	if strings.ContainsAny(id, "/\\") {
		return InvalidID(id, "contains a path separator")
	}
	if strings.ContainsRune(id, 0) {
		return InvalidID(id, "contains a NUL byte")
	}
	return nil
}

// NormalizeDeps drops empty entries and duplicates from a dependency list,
// keeping the first occurrence of each id in its original position.
func NormalizeDeps(deps []string) []string {
	out := make([]string, 0, len(deps))
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		if dep == "" {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}
