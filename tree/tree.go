package tree

import (
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// Tree is one node of a permission-tagged memory tree. The concrete node
// types are Base, Array, Struct, UnionActive and UnionRaw.
type Tree interface {
	// TypeOf returns the type this node represents storage for. It is total
	// and needs no environment: every node carries enough of its type to
	// answer structurally.
	TypeOf() types.Type

	isTree()
}

// Base is a run of tagged bytes holding a base-typed value.
// Invariant: len(Bytes)*8 == Bits.
type Base struct {
	Bytes []perm.Byte
	Bits  uint32
}

// Array holds same-typed subtrees, one per element. Invariant: non-empty.
type Array struct {
	Elem  types.Type
	Elems []Tree
}

// StructField pairs one field subtree with the trailing padding bytes that
// follow it in the struct's layout. Padding carries only permission tags,
// never a value.
type StructField struct {
	Sub Tree
	Pad []perm.Byte
}

// Struct holds one StructField per declared field of the named struct, with
// padding lengths matching the declared padding schedule.
type Struct struct {
	Name   string
	Fields []StructField
}

// UnionActive is a union committed to one variant: the variant subtree plus
// the trailing bytes filling the union out to its common width.
// Invariant: the subtree's encoding and the trailing bytes are not both
// entirely unmapped; that degenerate case must be represented as UnionRaw.
type UnionActive struct {
	Sub      Tree
	Name     string
	Trailing []perm.Byte
	Variant  int
}

// UnionRaw is a union with no committed variant, the canonical form after a
// bytewise edit. Invariant: len(Bytes)*8 equals the union's width.
type UnionRaw struct {
	Name  string
	Bytes []perm.Byte
}

func (b *Base) TypeOf() types.Type        { return types.Base(b.Bits) }
func (a *Array) TypeOf() types.Type       { return types.Array(a.Elem, len(a.Elems)) }
func (s *Struct) TypeOf() types.Type      { return types.Struct(s.Name) }
func (u *UnionActive) TypeOf() types.Type { return types.Union(u.Name) }
func (u *UnionRaw) TypeOf() types.Type    { return types.Union(u.Name) }

func (*Base) isTree()        {}
func (*Array) isTree()       {}
func (*Struct) isTree()      {}
func (*UnionActive) isTree() {}
func (*UnionRaw) isTree()    {}

// TypeOf returns the type of a tree. Nil trees have no type; callers must
// not pass nil.
func TypeOf(t Tree) types.Type {
	return t.TypeOf()
}

// Equal reports structural equality of two trees, including byte values and
// permission tags.
func Equal(a, b Tree) bool {
	switch x := a.(type) {
	case *Base:
		y, ok := b.(*Base)
		return ok && x.Bits == y.Bits && bytesEqual(x.Bytes, y.Bytes)
	case *Array:
		y, ok := b.(*Array)
		if !ok || !x.Elem.Equal(y.Elem) || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Struct:
		y, ok := b.(*Struct)
		if !ok || x.Name != y.Name || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if !Equal(x.Fields[i].Sub, y.Fields[i].Sub) || !bytesEqual(x.Fields[i].Pad, y.Fields[i].Pad) {
				return false
			}
		}
		return true
	case *UnionActive:
		y, ok := b.(*UnionActive)
		return ok && x.Name == y.Name && x.Variant == y.Variant &&
			Equal(x.Sub, y.Sub) && bytesEqual(x.Trailing, y.Trailing)
	case *UnionRaw:
		y, ok := b.(*UnionRaw)
		return ok && x.Name == y.Name && bytesEqual(x.Bytes, y.Bytes)
	default:
		return false
	}
}

func bytesEqual(a, b []perm.Byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
