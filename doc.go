// Package memmodel provides the byte-precise memory representation core of a
// verifier for a C-like language: type-structured values stored as
// permission-tagged byte sequences, addressed and mutated through structural
// paths, with a simulation relation showing that two independently evolving
// memories correspond under an object renaming.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	memmodel/        Root package with the external operation surface
//	├── types/       Type descriptors, environments and layout computation
//	├── perm/        Per-byte permission algebra (disjointness, merge, validity)
//	├── tree/        Memory trees, path addressing, encode/decode, object store
//	├── refine/      Memory injections and the simulation relation
//	└── errors/      Structured error types
//
// # Quick Start
//
// Declare types, allocate an object and write through a path:
//
//	env := types.NewEnv()
//	env.DeclareStruct("pair", []types.Field{
//	    {Name: "a", Type: types.U32},
//	    {Name: "b", Type: types.U8},
//	})
//
//	mem := tree.NewMemory(env)
//	obj, _ := mem.AllocZeroed(types.Struct("pair"))
//	err := mem.AlterPath(obj, tree.Path{tree.FieldSeg(0)}, setU32(5))
//
// Union type punning goes through non-frozen union segments:
//
//	// read variant 1 of a union currently holding variant 0
//	v, err := tree.LookupPath(env, u, tree.Path{tree.UnionSeg(1, false)})
//
// # Model
//
// All operations are pure functions over persistent trees: Alter returns a
// new tree sharing untouched subtrees, edits through structurally disjoint
// paths commute, and nothing blocks or schedules. Concurrency, if any,
// belongs to the caller.
package memmodel
