package memmodel

import (
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/refine"
	"github.com/veritlang/mem-model/tree"
	"github.com/veritlang/mem-model/types"
)

// Re-exported core types, so simple consumers need only the root package.

type (
	// Type describes the shape of a stored value.
	Type = types.Type
	// Env resolves struct/union names and answers layout queries.
	Env = types.Env
	// ObjID identifies an allocated object.
	ObjID = types.ObjID

	// Tag is a per-byte permission tag.
	Tag = perm.Tag
	// TaggedByte is one permission-tagged storage byte.
	TaggedByte = perm.Byte

	// Tree is a permission-tagged memory tree.
	Tree = tree.Tree
	// Path addresses a subtree.
	Path = tree.Path
	// Seg is one path segment.
	Seg = tree.Seg
	// Memory is an object store addressed by (object id, path).
	Memory = tree.Memory

	// Injection is an object-renaming correspondence.
	Injection = refine.Injection
)

// TypeOf returns the type a tree represents storage for.
func TypeOf(t Tree) Type {
	return tree.TypeOf(t)
}

// IsWellTyped checks a tree against a declared type; objs may be nil for
// weak (structural-only) validity.
func IsWellTyped(env *Env, objs types.ObjEnv, t Tree, want Type) bool {
	return tree.WellTyped(env, objs, t, want) == nil
}

// NewZeroed allocates a zeroed, fully owned tree of the given type.
func NewZeroed(env *Env, t Type) (Tree, error) {
	return tree.NewZeroed(env, t)
}

// NewWithTag allocates a tree of the given type with every byte carrying
// the given tag.
func NewWithTag(env *Env, tag Tag, t Type) (Tree, error) {
	return tree.NewWithTag(env, tag, t)
}

// LookupPath reads the subtree a path addresses.
func LookupPath(env *Env, t Tree, p Path) (Tree, error) {
	return tree.LookupPath(env, t, p)
}

// AlterPath rewrites the subtree a path addresses, returning a new tree
// sharing untouched substructure.
func AlterPath(env *Env, t Tree, p Path, f func(Tree) (Tree, error)) (Tree, error) {
	return tree.AlterPath(env, t, p, f)
}

// Encode flattens a tree into its tagged-byte sequence.
func Encode(t Tree) []TaggedByte {
	return tree.Encode(t)
}

// Decode rebuilds a tree of the requested type from exactly width/8 tagged
// bytes.
func Decode(env *Env, t Type, bytes []TaggedByte) (Tree, error) {
	return tree.Decode(env, t, bytes)
}

// Disjoint reports whether two same-typed trees may coexist as views of one
// storage region.
func Disjoint(t1, t2 Tree) bool {
	return tree.Disjoint(t1, t2)
}

// Merge combines two disjoint trees; false when they are not disjoint.
func Merge(t1, t2 Tree) (Tree, bool) {
	return tree.Merge(t1, t2)
}

// Refines reports whether t2 is a valid, possibly more defined continuation
// of t1 at the given type under the injection.
func Refines(env *Env, f Injection, t1, t2 Tree, want Type) bool {
	return refine.Refines(env, f, t1, t2, want)
}

// RefinesMemory reports whether m2 simulates m1 under the injection.
func RefinesMemory(env *Env, f Injection, m1, m2 *Memory) bool {
	return refine.RefinesMemory(env, f, m1, m2)
}
