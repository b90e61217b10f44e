package refine

import (
	"encoding/binary"
	"testing"

	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/tree"
	"github.com/veritlang/mem-model/types"
)

func testEnv(t *testing.T) *types.Env {
	t.Helper()
	env := types.NewEnv()
	if err := env.DeclareStruct("pair", []types.Field{
		{Name: "a", Type: types.U32},
		{Name: "b", Type: types.U8},
	}); err != nil {
		t.Fatal(err)
	}
	if err := env.DeclareUnion("word", []types.Field{
		{Name: "i", Type: types.U32},
		{Name: "f", Type: types.U32},
	}); err != nil {
		t.Fatal(err)
	}
	return env
}

func u32Tree(v uint32) *tree.Base {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	bytes := make([]perm.Byte, 4)
	for i, b := range raw {
		bytes[i] = perm.Byte{Val: b, Tag: perm.TagOwned}
	}
	return &tree.Base{Bits: 32, Bytes: bytes}
}

func indeterminateU32() *tree.Base {
	return &tree.Base{Bits: 32, Bytes: perm.Fill(4, perm.TagPadding)}
}

func mustAlloc(t *testing.T, m *tree.Memory, typ types.Type) types.ObjID {
	t.Helper()
	id, err := m.AllocZeroed(typ)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func setTree(t *testing.T, m *tree.Memory, id types.ObjID, tr tree.Tree) {
	t.Helper()
	if err := m.SetTree(id, tr); err != nil {
		t.Fatal(err)
	}
}

func TestRefinesByte(t *testing.T) {
	f := Identity()
	owned := func(v uint8) perm.Byte { return perm.Byte{Val: v, Tag: perm.TagOwned} }
	indet := perm.Byte{Tag: perm.TagPadding}

	tests := []struct {
		name string
		a, b perm.Byte
		want bool
	}{
		{"equal determinate", owned(5), owned(5), true},
		{"value mismatch", owned(5), owned(6), false},
		{"indeterminate refined by determinate", indet, owned(9), true},
		{"determinate not refined by indeterminate", owned(5), indet, false},
		{"indeterminate refined by indeterminate", indet, indet, true},
		{"kind mismatch", owned(5), perm.Byte{Val: 5, Tag: perm.TagShared}, false},
		{"unmapped both sides", perm.Byte{}, perm.Byte{}, true},
		{"provenance must match", perm.Byte{Obj: 1, Tag: perm.TagOwned}, perm.Byte{Obj: 2, Tag: perm.TagOwned}, false},
		{"provenance preserved", perm.Byte{Obj: 1, Tag: perm.TagOwned}, perm.Byte{Obj: 1, Tag: perm.TagOwned}, true},
		{"no provenance gained", owned(0), perm.Byte{Obj: 1, Tag: perm.TagOwned}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RefinesByte(f, tt.a, tt.b); got != tt.want {
				t.Errorf("RefinesByte = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefinesByte_Renaming(t *testing.T) {
	f := Explicit(map[types.ObjID]Target{3: {Obj: 7}})

	a := perm.Byte{Obj: 3, Tag: perm.TagOwned}
	if !RefinesByte(f, a, perm.Byte{Obj: 7, Tag: perm.TagOwned}) {
		t.Error("provenance should be renamed through the injection")
	}
	if RefinesByte(f, a, perm.Byte{Obj: 3, Tag: perm.TagOwned}) {
		t.Error("unrenamed provenance should be rejected")
	}
	// Sources outside the injection's domain never refine.
	if RefinesByte(f, perm.Byte{Obj: 5, Tag: perm.TagOwned}, perm.Byte{Obj: 5, Tag: perm.TagOwned}) {
		t.Error("unmapped source object should be rejected")
	}
}

func TestRefines_Reflexive(t *testing.T) {
	env := testEnv(t)

	for _, typ := range []types.Type{
		types.U32,
		types.Array(types.U8, 3),
		types.Struct("pair"),
		types.Union("word"),
	} {
		tr, err := tree.NewZeroed(env, typ)
		if err != nil {
			t.Fatal(err)
		}
		if !Refines(env, Identity(), tr, tr, typ) {
			t.Errorf("refinement should be reflexive at %s", typ)
		}
	}
}

func TestRefines_MoreDefined(t *testing.T) {
	env := testEnv(t)

	// An indeterminate byte may become determinate, never the reverse.
	if !Refines(env, Identity(), indeterminateU32(), u32Tree(42), types.U32) {
		t.Error("indeterminate should be refined by determinate")
	}
	if Refines(env, Identity(), u32Tree(42), indeterminateU32(), types.U32) {
		t.Error("determinate must not be refined by indeterminate")
	}
	if Refines(env, Identity(), u32Tree(1), u32Tree(2), types.U32) {
		t.Error("a determinate value pins the right side")
	}
}

func TestRefines_ActiveByRaw(t *testing.T) {
	env := testEnv(t)

	active := &tree.UnionActive{Name: "word", Variant: 0, Sub: u32Tree(5)}
	raw := &tree.UnionRaw{Name: "word", Bytes: tree.Encode(active)}

	// The left may remember structure the right has forgotten.
	if !Refines(env, Identity(), active, raw, types.Union("word")) {
		t.Error("active union should be refined by its own flattening")
	}
	// Never the other way around.
	if Refines(env, Identity(), raw, active, types.Union("word")) {
		t.Error("raw union must not be refined by an active one")
	}

	// The raw side's bytes still have to agree.
	other := &tree.UnionRaw{Name: "word", Bytes: tree.Encode(&tree.UnionActive{
		Name: "word", Variant: 0, Sub: u32Tree(6),
	})}
	if Refines(env, Identity(), active, other, types.Union("word")) {
		t.Error("flattening with different bytes should be rejected")
	}
}

func TestRefines_VariantMismatch(t *testing.T) {
	env := testEnv(t)

	a := &tree.UnionActive{Name: "word", Variant: 0, Sub: u32Tree(5)}
	b := &tree.UnionActive{Name: "word", Variant: 1, Sub: u32Tree(5)}
	if Refines(env, Identity(), a, b, types.Union("word")) {
		t.Error("active unions with different variants should not refine")
	}
}

func TestInjectionValid(t *testing.T) {
	if !Identity().Valid() {
		t.Error("identity should be valid")
	}

	ok := Explicit(map[types.ObjID]Target{
		1: {Obj: 10, Prefix: tree.Path{tree.FieldSeg(0)}},
		2: {Obj: 10, Prefix: tree.Path{tree.FieldSeg(1)}},
		3: {Obj: 11},
	})
	if !ok.Valid() {
		t.Error("sources under disjoint prefixes should be valid")
	}

	clash := Explicit(map[types.ObjID]Target{
		1: {Obj: 10},
		2: {Obj: 10},
	})
	if clash.Valid() {
		t.Error("two sources on the same target subtree should be rejected")
	}

	nested := Explicit(map[types.ObjID]Target{
		1: {Obj: 10, Prefix: tree.Path{tree.FieldSeg(0)}},
		2: {Obj: 10, Prefix: tree.Path{tree.FieldSeg(0), tree.FieldSeg(1)}},
	})
	if nested.Valid() {
		t.Error("a prefix of another target path should be rejected")
	}
}

func TestInjectionCompose(t *testing.T) {
	f1 := Explicit(map[types.ObjID]Target{
		1: {Obj: 10, Prefix: tree.Path{tree.FieldSeg(1)}},
		2: {Obj: 20},
	})
	f2 := Explicit(map[types.ObjID]Target{
		10: {Obj: 100, Prefix: tree.Path{tree.FieldSeg(0)}},
	})

	c := Compose(f2, f1)
	target, ok := c.Lookup(1)
	if !ok {
		t.Fatal("composite should cover source 1")
	}
	if target.Obj != 100 {
		t.Errorf("composite target = %d, want 100", target.Obj)
	}
	wantPrefix := tree.Path{tree.FieldSeg(0), tree.FieldSeg(1)}
	if target.Prefix.String() != wantPrefix.String() {
		t.Errorf("composite prefix = %s, want %s", target.Prefix, wantPrefix)
	}

	// Source 2 lands on an object f2 does not cover and drops out.
	if _, ok := c.Lookup(2); ok {
		t.Error("uncovered source should drop out of the composite")
	}

	// Identity is the unit of composition.
	if !Compose(Identity(), Identity()).IsIdentity() {
		t.Error("identity composed with identity should stay identity")
	}
	if got := Compose(f1, Identity()); got.IsIdentity() {
		t.Error("composition with identity should keep the explicit map")
	}
}

func TestRefines_Composes(t *testing.T) {
	env := testEnv(t)

	f1 := Explicit(map[types.ObjID]Target{1: {Obj: 10}})
	f2 := Explicit(map[types.ObjID]Target{10: {Obj: 100}})

	// Three views of one pointer-carrying u32, each naming the referenced
	// object under a different renaming, and each step more defined than
	// the last: t1's final byte is indeterminate, t2 and t3 pin it.
	withObj := func(obj types.ObjID, last perm.Byte) *tree.Base {
		b := u32Tree(0)
		for i := range b.Bytes {
			b.Bytes[i].Obj = obj
		}
		b.Bytes[3] = last
		return b
	}
	t1 := withObj(1, perm.Byte{Tag: perm.TagPadding})
	t2 := withObj(10, perm.Byte{Val: 9, Tag: perm.TagOwned})
	t3 := withObj(100, perm.Byte{Val: 9, Tag: perm.TagOwned})

	if !Refines(env, f1, t1, t2, types.U32) {
		t.Fatal("first step should refine under f1")
	}
	if !Refines(env, f2, t2, t3, types.U32) {
		t.Fatal("second step should refine under f2")
	}
	if !Refines(env, Compose(f2, f1), t1, t3, types.U32) {
		t.Error("refinement should compose through the composed injection")
	}

	// Neither single injection relates the endpoints.
	if Refines(env, f1, t1, t3, types.U32) {
		t.Error("f1 alone should not relate t1 to t3")
	}
	if Refines(env, f2, t1, t3, types.U32) {
		t.Error("f2 alone should not relate t1 to t3")
	}
}

func TestRefinesMemory_Identity(t *testing.T) {
	env := testEnv(t)
	m := tree.NewMemory(env)
	id := mustAlloc(t, m, types.Struct("pair"))
	setU32At(t, m, id, 77)

	if !RefinesMemory(env, Identity(), m, m) {
		t.Error("a memory should refine itself under identity")
	}
}

func setU32At(t *testing.T, m *tree.Memory, id types.ObjID, v uint32) {
	t.Helper()
	err := m.AlterPath(id, tree.Path{tree.FieldSeg(0)}, func(tree.Tree) (tree.Tree, error) {
		return u32Tree(v), nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRefinesMemory_RenameIntoField(t *testing.T) {
	env := testEnv(t)

	// Source memory: a standalone u32 object. Target memory: the same value
	// living as field a of a pair. The injection sends the object into the
	// struct's field.
	m1 := tree.NewMemory(env)
	src := mustAlloc(t, m1, types.U32)
	setTree(t, m1, src, u32Tree(5))

	m2 := tree.NewMemory(env)
	dst := mustAlloc(t, m2, types.Struct("pair"))
	setU32At(t, m2, dst, 5)

	f := Explicit(map[types.ObjID]Target{
		src: {Obj: dst, Prefix: tree.Path{tree.FieldSeg(0)}},
	})
	if !RefinesMemory(env, f, m1, m2) {
		t.Error("renaming into a struct field should refine")
	}

	// Changing the embedded value breaks the refinement.
	setU32At(t, m2, dst, 6)
	if RefinesMemory(env, f, m1, m2) {
		t.Error("value mismatch should reject the refinement")
	}
}

func TestRefinesMemory_Liveness(t *testing.T) {
	env := testEnv(t)

	m1 := tree.NewMemory(env)
	src := mustAlloc(t, m1, types.U32)
	setTree(t, m1, src, u32Tree(1))

	m2 := tree.NewMemory(env)
	dst := mustAlloc(t, m2, types.U32)
	setTree(t, m2, dst, u32Tree(1))

	f := Explicit(map[types.ObjID]Target{src: {Obj: dst}})
	if !RefinesMemory(env, f, m1, m2) {
		t.Fatal("setup should refine")
	}

	// A live source must land on a live target.
	m2.Free(dst)
	if RefinesMemory(env, f, m1, m2) {
		t.Error("live object mapped to dead target should be rejected")
	}

	// Once the source dies too, both sides are fully unmapped again.
	m1.Free(src)
	if !RefinesMemory(env, f, m1, m2) {
		t.Error("dead-to-dead mapping should refine")
	}
}

func TestRefinesMemory_MissingTarget(t *testing.T) {
	env := testEnv(t)

	m1 := tree.NewMemory(env)
	src := mustAlloc(t, m1, types.U32)

	m2 := tree.NewMemory(env)

	f := Explicit(map[types.ObjID]Target{src: {Obj: 999}})
	if RefinesMemory(env, f, m1, m2) {
		t.Error("target object missing from m2 should be rejected")
	}
}

func TestRefinesMemory_InvalidInjection(t *testing.T) {
	env := testEnv(t)
	m := tree.NewMemory(env)

	f := Explicit(map[types.ObjID]Target{
		1: {Obj: 10},
		2: {Obj: 10},
	})
	if RefinesMemory(env, f, m, m) {
		t.Error("non-injective renaming should be rejected up front")
	}
}
