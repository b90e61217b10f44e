package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclare_Rejections(t *testing.T) {
	env := NewEnv()

	tests := []struct {
		name   string
		decl   string
		fields []Field
	}{
		{"empty name", "", []Field{{Name: "a", Type: U8}}},
		{"no fields", "empty", nil},
		{"unnamed field", "s", []Field{{Type: U8}}},
		{"duplicate field", "s", []Field{{Name: "a", Type: U8}, {Name: "a", Type: U16}}},
		{"void field", "s", []Field{{Name: "a", Type: Void()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, env.DeclareStruct(tt.decl, tt.fields))
			assert.Error(t, env.DeclareUnion(tt.decl, tt.fields))
		})
	}
}

func TestValidate_UnresolvedReference(t *testing.T) {
	env := NewEnv()
	require.NoError(t, env.DeclareStruct("holder", []Field{
		{Name: "x", Type: Struct("missing")},
	}))
	assert.Error(t, env.Validate())
}

func TestValidate_OutOfOrderDeclarations(t *testing.T) {
	env := NewEnv()
	// "outer" references "inner" before it is declared.
	require.NoError(t, env.DeclareStruct("outer", []Field{
		{Name: "in", Type: Struct("inner")},
	}))
	require.NoError(t, env.DeclareStruct("inner", []Field{
		{Name: "v", Type: U16},
	}))
	assert.NoError(t, env.Validate())
}

func TestExtends(t *testing.T) {
	small := NewEnv()
	require.NoError(t, small.DeclareStruct("pair", []Field{
		{Name: "a", Type: U32},
		{Name: "b", Type: U8},
	}))

	big := small.Clone()
	require.NoError(t, big.DeclareUnion("word", []Field{
		{Name: "i", Type: U32},
	}))

	assert.True(t, big.Extends(small), "enlarging the environment is a weakening")
	assert.False(t, small.Extends(big))
	assert.True(t, small.Extends(small), "Extends is reflexive")

	// Changing an existing declaration is not a weakening.
	altered := small.Clone()
	require.NoError(t, altered.DeclareStruct("pair", []Field{
		{Name: "a", Type: U32},
		{Name: "b", Type: U16},
	}))
	assert.False(t, altered.Extends(small))
}

func TestLoadEnv(t *testing.T) {
	doc := []byte(`
structs:
  pair:
    - {name: a, type: u32}
    - {name: b, type: u8}
  matrix:
    - {name: rows, type: "[4][4]u32"}
unions:
  word:
    - {name: i, type: u32}
    - {name: f, type: u32}
`)
	env, err := LoadEnv(doc)
	require.NoError(t, err)

	fields, ok := env.StructFields("pair")
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.True(t, fields[0].Type.Equal(U32))

	w, err := env.Width(Struct("matrix"))
	require.NoError(t, err)
	assert.Equal(t, uint32(4*4*32), w)

	variants, ok := env.UnionVariants("word")
	require.True(t, ok)
	assert.Len(t, variants, 2)
}

func TestLoadEnv_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "structs: ["},
		{"bad type", "structs:\n  s:\n    - {name: a, type: frobnicate}"},
		{"unresolved", "structs:\n  s:\n    - {name: a, type: struct nope}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEnv([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseType_RoundTrip(t *testing.T) {
	types := []Type{
		Void(),
		U8, U16, U32, U64,
		Base(24),
		Array(U32, 7),
		Array(Array(U8, 2), 3),
		Struct("pair"),
		Union("word"),
	}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			parsed, err := ParseType(typ.String())
			require.NoError(t, err)
			assert.True(t, parsed.Equal(typ), "parse(%q) = %s", typ.String(), parsed)
		})
	}
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, Array(U32, 3).Equal(Array(U32, 3)))
	assert.False(t, Array(U32, 3).Equal(Array(U32, 4)))
	assert.False(t, Array(U32, 3).Equal(Array(U16, 3)))
	assert.False(t, Struct("a").Equal(Union("a")))
	assert.False(t, U32.Equal(Void()))
}
