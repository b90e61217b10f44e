package tree

import (
	"encoding/binary"
	"testing"

	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// test helpers

func testEnv(t *testing.T) *types.Env {
	t.Helper()
	env := types.NewEnv()
	mustDecl(t, env.DeclareStruct("pair", []types.Field{
		{Name: "a", Type: types.U32},
		{Name: "b", Type: types.U8},
	}))
	mustDecl(t, env.DeclareUnion("word", []types.Field{
		{Name: "i", Type: types.U32},
		{Name: "f", Type: types.U32},
	}))
	mustDecl(t, env.DeclareUnion("mixed", []types.Field{
		{Name: "small", Type: types.U8},
		{Name: "big", Type: types.U64},
	}))
	mustDecl(t, env.DeclareStruct("nested", []types.Field{
		{Name: "p", Type: types.Struct("pair")},
		{Name: "w", Type: types.Union("word")},
		{Name: "tail", Type: types.U8},
	}))
	if err := env.Validate(); err != nil {
		t.Fatalf("environment invalid: %v", err)
	}
	return env
}

func mustDecl(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("declaration failed: %v", err)
	}
}

func u32Tree(v uint32) *Base {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	bytes := make([]perm.Byte, 4)
	for i, b := range raw {
		bytes[i] = perm.Byte{Val: b, Tag: perm.TagOwned}
	}
	return &Base{Bits: 32, Bytes: bytes}
}

func u8Tree(v uint8) *Base {
	return &Base{Bits: 8, Bytes: []perm.Byte{{Val: v, Tag: perm.TagOwned}}}
}

// setU32 is an alter function replacing a u32 subtree with the given value.
func setU32(v uint32) func(Tree) (Tree, error) {
	return func(Tree) (Tree, error) {
		return u32Tree(v), nil
	}
}

func setU8(v uint8) func(Tree) (Tree, error) {
	return func(Tree) (Tree, error) {
		return u8Tree(v), nil
	}
}

func identity(t Tree) (Tree, error) {
	return t, nil
}

func mustZeroed(t *testing.T, env *types.Env, typ types.Type) Tree {
	t.Helper()
	tr, err := NewZeroed(env, typ)
	if err != nil {
		t.Fatalf("NewZeroed(%s): %v", typ, err)
	}
	return tr
}

func baseValue(t *testing.T, tr Tree) uint64 {
	t.Helper()
	b, ok := tr.(*Base)
	if !ok {
		t.Fatalf("expected base node, got %T", tr)
	}
	var v uint64
	for i := len(b.Bytes) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b.Bytes[i].Val)
	}
	return v
}

// tests

func TestTypeOf(t *testing.T) {
	env := testEnv(t)

	tests := []struct {
		name string
		typ  types.Type
	}{
		{"base", types.U32},
		{"array", types.Array(types.U8, 3)},
		{"struct", types.Struct("pair")},
		{"union", types.Union("word")},
		{"nested", types.Struct("nested")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustZeroed(t, env, tt.typ)
			if got := TypeOf(tr); !got.Equal(tt.typ) {
				t.Errorf("TypeOf = %s, want %s", got, tt.typ)
			}
		})
	}
}

func TestNewZeroed_WellTyped(t *testing.T) {
	env := testEnv(t)

	for _, typ := range []types.Type{
		types.U8,
		types.Array(types.U32, 4),
		types.Struct("pair"),
		types.Struct("nested"),
		types.Union("mixed"),
	} {
		t.Run(typ.String(), func(t *testing.T) {
			tr := mustZeroed(t, env, typ)
			if err := WellTyped(env, nil, tr, typ); err != nil {
				t.Errorf("fresh tree not well-typed: %v", err)
			}
		})
	}
}

func TestNewWithTag_Unmapped(t *testing.T) {
	env := testEnv(t)

	tr, err := NewWithTag(env, perm.TagUnmapped, types.Struct("nested"))
	if err != nil {
		t.Fatal(err)
	}
	if err := WellTyped(env, nil, tr, types.Struct("nested")); err != nil {
		t.Errorf("unmapped tree not well-typed: %v", err)
	}
	if !perm.AllUnmapped(Encode(tr)) {
		t.Error("every byte of an unmapped tree should be unmapped")
	}
	// A fresh union commits to no variant.
	if _, ok := tr.(*Struct).Fields[1].Sub.(*UnionRaw); !ok {
		t.Errorf("fresh union should be raw, got %T", tr.(*Struct).Fields[1].Sub)
	}
}

func TestNew_Void(t *testing.T) {
	env := testEnv(t)
	if _, err := NewZeroed(env, types.Void()); err == nil {
		t.Error("void has no storage, allocation must fail")
	}
}

func TestWellTyped_Rejections(t *testing.T) {
	env := testEnv(t)

	pairTree := func() *Struct {
		return mustZeroed(t, env, types.Struct("pair")).(*Struct)
	}

	tests := []struct {
		name string
		tr   Tree
		typ  types.Type
	}{
		{
			name: "type mismatch",
			tr:   u32Tree(1),
			typ:  types.U8,
		},
		{
			name: "base width mismatch",
			tr:   &Base{Bits: 32, Bytes: perm.Fill(3, perm.TagOwned)},
			typ:  types.U32,
		},
		{
			name: "unknown struct",
			tr:   &Struct{Name: "ghost"},
			typ:  types.Struct("ghost"),
		},
		{
			name: "padding carries a value",
			tr: func() Tree {
				s := pairTree()
				s.Fields[1].Pad[0] = perm.Byte{Val: 0xFF, Tag: perm.TagOwned}
				return s
			}(),
			typ: types.Struct("pair"),
		},
		{
			name: "padding length off schedule",
			tr: func() Tree {
				s := pairTree()
				s.Fields[1].Pad = s.Fields[1].Pad[:2]
				return s
			}(),
			typ: types.Struct("pair"),
		},
		{
			name: "variant out of range",
			tr:   &UnionActive{Name: "word", Variant: 5, Sub: u32Tree(1)},
			typ:  types.Union("word"),
		},
		{
			name: "fully unmapped active union",
			tr: &UnionActive{
				Name:    "word",
				Variant: 0,
				Sub:     &Base{Bits: 32, Bytes: perm.Fill(4, perm.TagUnmapped)},
			},
			typ: types.Union("word"),
		},
		{
			name: "unmapped byte claiming a value",
			tr: &Base{Bits: 8, Bytes: []perm.Byte{
				{Val: 1, Tag: perm.Tag{Kind: perm.Unmapped, Determinate: true}},
			}},
			typ: types.U8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := WellTyped(env, nil, tt.tr, tt.typ); err == nil {
				t.Error("expected well-typedness rejection")
			}
		})
	}
}

func TestWellTyped_SurvivesWeakening(t *testing.T) {
	env := testEnv(t)
	tr := mustZeroed(t, env, types.Struct("nested"))

	bigger := env.Clone()
	mustDecl(t, bigger.DeclareStruct("extra", []types.Field{
		{Name: "x", Type: types.U64},
	}))
	if !bigger.Extends(env) {
		t.Fatal("bigger should extend env")
	}
	if err := WellTyped(bigger, nil, tr, types.Struct("nested")); err != nil {
		t.Errorf("well-typedness must survive enlarging the environment: %v", err)
	}
}

func TestWellTyped_Strong(t *testing.T) {
	env := testEnv(t)
	mem := NewMemory(env)
	live, err := mem.AllocZeroed(types.U32)
	if err != nil {
		t.Fatal(err)
	}

	ptr := func(obj types.ObjID) Tree {
		bytes := perm.Fill(4, perm.TagOwned)
		for i := range bytes {
			bytes[i].Obj = obj
		}
		return &Base{Bits: 32, Bytes: bytes}
	}

	if err := WellTyped(env, mem, ptr(live), types.U32); err != nil {
		t.Errorf("pointer to live object should pass strong checking: %v", err)
	}
	if err := WellTyped(env, mem, ptr(live+100), types.U32); err == nil {
		t.Error("pointer to unknown object should fail strong checking")
	}
	// Weak checking does not consult the object environment.
	if err := WellTyped(env, nil, ptr(live+100), types.U32); err != nil {
		t.Errorf("weak checking should ignore provenance: %v", err)
	}

	mem.Free(live)
	if err := WellTyped(env, mem, ptr(live), types.U32); err == nil {
		t.Error("pointer to freed object should fail strong checking")
	}
}

func TestEqual(t *testing.T) {
	env := testEnv(t)

	a := mustZeroed(t, env, types.Struct("nested"))
	b := mustZeroed(t, env, types.Struct("nested"))
	if !Equal(a, b) {
		t.Error("identical fresh trees should be equal")
	}

	c, err := AlterPath(env, b, Path{FieldSeg(2)}, setU8(1))
	if err != nil {
		t.Fatal(err)
	}
	if Equal(a, c) {
		t.Error("edited tree should differ")
	}
}
