package refine

import (
	"go.uber.org/zap"

	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/tree"
	"github.com/veritlang/mem-model/types"
)

// RefinesByte reports whether one tagged byte is refined by another through
// the injection: ownership kinds must agree, a determinate left byte pins
// the right's value and (injection-renamed) provenance, and an indeterminate
// left byte allows the right to be more defined.
func RefinesByte(f Injection, a, b perm.Byte) bool {
	if a.Tag.Kind != b.Tag.Kind {
		return false
	}
	if !a.Tag.Determinate {
		return true
	}
	if !b.Tag.Determinate || a.Val != b.Val {
		return false
	}
	if a.Obj == 0 {
		return b.Obj == 0
	}
	t, ok := f.Lookup(a.Obj)
	return ok && t.Obj == b.Obj
}

func refinesBytes(f Injection, a, b []perm.Byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !RefinesByte(f, a[i], b[i]) {
			return false
		}
	}
	return true
}

// Refines reports whether t1 is refined by t2 at the given type: t2 is a
// valid, possibly more defined continuation of t1 under the injection's
// object renaming. Both trees must have the requested type; matching
// constructors relate position by position. The one asymmetric rule lets an
// active union on the left be refined by raw bytes on the right, provided
// the left's flattened encoding refines the right's bytes and the left's
// active subtree is weakly well-typed.
func Refines(env *types.Env, f Injection, t1, t2 tree.Tree, want types.Type) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	if !t1.TypeOf().Equal(want) || !t2.TypeOf().Equal(want) {
		return false
	}
	return refines(env, f, t1, t2)
}

func refines(env *types.Env, f Injection, t1, t2 tree.Tree) bool {
	switch a := t1.(type) {
	case *tree.Base:
		b, ok := t2.(*tree.Base)
		return ok && a.Bits == b.Bits && refinesBytes(f, a.Bytes, b.Bytes)

	case *tree.Array:
		b, ok := t2.(*tree.Array)
		if !ok || len(a.Elems) != len(b.Elems) || !a.Elem.Equal(b.Elem) {
			return false
		}
		for i := range a.Elems {
			if !refines(env, f, a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true

	case *tree.Struct:
		b, ok := t2.(*tree.Struct)
		if !ok || a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !refines(env, f, a.Fields[i].Sub, b.Fields[i].Sub) {
				return false
			}
			if !refinesBytes(f, a.Fields[i].Pad, b.Fields[i].Pad) {
				return false
			}
		}
		return true

	case *tree.UnionActive:
		switch b := t2.(type) {
		case *tree.UnionActive:
			if a.Name != b.Name || a.Variant != b.Variant {
				return false
			}
			return refines(env, f, a.Sub, b.Sub) && refinesBytes(f, a.Trailing, b.Trailing)
		case *tree.UnionRaw:
			// The left remembers structure the right has forgotten.
			if a.Name != b.Name {
				return false
			}
			if !activeSubWellTyped(env, a) {
				return false
			}
			return refinesBytes(f, tree.Encode(a), b.Bytes)
		}
		return false

	case *tree.UnionRaw:
		b, ok := t2.(*tree.UnionRaw)
		return ok && a.Name == b.Name && refinesBytes(f, a.Bytes, b.Bytes)

	default:
		return false
	}
}

func activeSubWellTyped(env *types.Env, u *tree.UnionActive) bool {
	variants, ok := env.UnionVariants(u.Name)
	if !ok || u.Variant < 0 || u.Variant >= len(variants) {
		return false
	}
	return tree.WellTyped(env, nil, u.Sub, variants[u.Variant].Type) == nil
}

// RefinesMemory reports whether m2 simulates m1 under the injection: the
// injection is injective up to disjoint paths, every mapped source object
// lands on a path-reachable subtree of the source's declared type, liveness
// is preserved forward, and every target object the injection's range names
// exists in m2. The identity injection relates a memory to itself.
func RefinesMemory(env *types.Env, f Injection, m1, m2 *tree.Memory) bool {
	if !f.Valid() {
		tree.Logger().Debug("refinement rejected", zap.String("reason", "injection not injective"))
		return false
	}
	for _, id := range m1.Objects() {
		target, ok := f.Lookup(id)
		if !ok {
			continue
		}
		typ, ok := m1.TypeOfObject(id)
		if !ok {
			return false
		}
		if _, ok := m2.TypeOfObject(target.Obj); !ok {
			return false
		}
		if m1.IsLive(id) && !m2.IsLive(target.Obj) {
			return false
		}
		t1, ok := m1.Tree(id)
		if !ok {
			return false
		}
		t2, err := targetSubtree(m2, target)
		if err != nil {
			return false
		}
		if !Refines(env, f, t1, t2, typ) {
			tree.Logger().Debug("refinement rejected",
				zap.Uint64("obj", uint64(id)),
				zap.String("type", typ.String()))
			return false
		}
	}
	// Reverse existence: everything the range covers must exist.
	for _, src := range f.Sources() {
		target, _ := f.Lookup(src)
		if _, ok := m2.TypeOfObject(target.Obj); !ok {
			return false
		}
	}
	return true
}

// targetSubtree resolves a target's prefix inside its object, tolerating
// dead targets only when the prefix is empty: a dead object still has a
// (fully unmapped) tree, but paths into it are not navigable.
func targetSubtree(m *tree.Memory, target Target) (tree.Tree, error) {
	if len(target.Prefix) == 0 {
		t, ok := m.Tree(target.Obj)
		if !ok {
			return nil, errors.NotLive(errors.PhaseRefine, uint64(target.Obj))
		}
		return t, nil
	}
	return m.LookupPath(target.Obj, target.Prefix)
}
