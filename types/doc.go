// Package types provides the type descriptors and layout computation for the
// mem-model library.
//
// A Type describes the shape of a stored value: void, a base type of a fixed
// bit width, an array, or a named struct or union. Struct and union names
// resolve through an Env, which holds the ordered field and variant
// declarations.
//
// The Env doubles as the layout oracle: widths, field offsets and padding
// schedules are computed on demand and memoized, so repeated queries during
// tree traversal are cheap.
//
//	env := types.NewEnv()
//	env.DeclareStruct("pair", []types.Field{
//	    {Name: "a", Type: types.U32},
//	    {Name: "b", Type: types.U8},
//	})
//	bits, _ := env.Width(types.Struct("pair")) // 64: u8 is padded to u32 alignment
//
// Environments can also be loaded from YAML declarations, see LoadEnv.
//
// All widths and offsets are in bits. Storage is byte granular: every
// well-formed type's width is a multiple of 8, enforced by Env.Validate.
package types
