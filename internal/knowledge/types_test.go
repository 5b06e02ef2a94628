package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementTypeValid(t *testing.T) {
	tests := []struct {
		typ   ElementType
		valid bool
	}{
		{TypeFunction, true},
		{TypeModule, true},
		{TypeConstant, true},
		{TypeVariable, true},
		{ElementType("class"), false},
		{ElementType("Function"), false},
		{ElementType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.Valid())
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		kind Kind
		ok   bool
	}{
		{"plain", "parse_header", 0, true},
		{"dotted", "pkg.Parse", 0, true},
		{"unicode", "päckchen", 0, true},
		{"empty", "", KindEmptyID, false},
		{"slash", "a/b", KindInvalidID, false},
		{"backslash", `a\b`, KindInvalidID, false},
		{"dot", ".", KindInvalidID, false},
		{"dotdot", "..", KindInvalidID, false},
		{"nul", "a\x00b", KindInvalidID, false},
		{"too_long", strings.Repeat("x", 256), KindInvalidID, false},
		{"max_len", strings.Repeat("x", 255), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			kind, isDomain := KindOf(err)
			require.True(t, isDomain)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestNormalizeDeps(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"plain", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates", []string{"a", "b", "a", "b", "c"}, []string{"a", "b", "c"}},
		{"empties", []string{"", "a", ""}, []string{"a"}},
		{"order_kept", []string{"z", "a", "z"}, []string{"z", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDeps(tt.in))
		})
	}
}

func TestElementClone(t *testing.T) {
	e := &Element{
		ID:           "a",
		Type:         TypeFunction,
		Dependencies: []string{"b"},
		Dependents:   []string{"c"},
	}

	dup := e.Clone()
	dup.Dependencies[0] = "changed"
	dup.Dependents = append(dup.Dependents, "d")

	assert.Equal(t, []string{"b"}, e.Dependencies)
	assert.Equal(t, []string{"c"}, e.Dependents)
}

func TestDependsOn(t *testing.T) {
	e := &Element{Dependencies: []string{"x", "y"}}
	assert.True(t, e.DependsOn("x"))
	assert.False(t, e.DependsOn("z"))
}
