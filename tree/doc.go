// Package tree implements the permission-tagged memory tree at the heart of
// the mem-model library.
//
// A Tree represents one typed value as structured storage: a run of tagged
// bytes for a base type, same-typed subtrees for an array, per-field subtrees
// plus trailing padding for a struct, and either an active variant or raw
// bytes for a union. Every node's type is recoverable with TypeOf and
// checkable against an environment with WellTyped.
//
// # Paths
//
// Subtrees are addressed by paths of segments: array index, field index, or
// union variant selector. Lookup and Alter are bounds and type checked; a
// non-frozen union segment whose variant differs from the union's current
// content performs a type pun by re-decoding the union's bytes as the
// requested variant. Alter returns a new tree sharing every untouched
// subtree, so earlier snapshots stay valid, and edits through structurally
// disjoint paths commute:
//
//	AlterPath(AlterPath(t, p1, f1), p2, f2) == AlterPath(AlterPath(t, p2, f2), p1, f1)
//
// whenever DisjointPaths(p1, p2). The one deliberate exception to
// non-interference is a pair of paths selecting different variants of the
// same union: those address the same bytes through different types and may
// alias by reinterpretation.
//
// # Encoding
//
// Encode flattens a tree to its tagged-byte sequence; Decode rebuilds a tree
// of a requested type from exactly width/8 bytes. Decode never guesses a
// union variant: unions decode to their raw-byte form, so
//
//	Decode(env, TypeOf(t), Encode(t)) == Canonicalize(t)
//
// and reconstructing structure inside a union requires an explicit union
// path segment. All cross-type reinterpretation funnels through Decode,
// leaving the permission tags as the sole channel for rejecting unsound
// reads.
//
// # Memory
//
// A Memory is an object store threading the allocation lifecycle: objects
// are created all-unmapped or tag-initialized, addressed by (object id,
// path), and become fully unmapped when freed. Memory implements
// types.ObjEnv, supplying the liveness and typing facts strong validity and
// the refinement engine consume.
package tree
