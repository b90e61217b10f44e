// Package errors provides structured error types for the mem-model library.
//
// Errors are categorized by Phase (which operation failed) and Kind (error
// category). The Error type includes rich context: the access path, the type
// names involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAlter, errors.KindTypeMismatch).
//		Path("[2]", ".1").
//		Want("u32").
//		Got("u8").
//		Detail("altered subtree has the wrong type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(errors.PhaseLookup, path, 10, 5)
//	err := errors.FrozenUnion(path, 0, 1)
//
// Two error classes run through the library and are distinguished by Kind:
//
//   - Contract violations (KindOutOfRange, KindTypeMismatch, KindBadWidth,
//     KindInvalidPath, KindUnknownType, KindInvalidVariant): the caller
//     bypassed the type discipline. These indicate bugs and must never be
//     swallowed.
//   - Policy rejections (KindFrozenUnion, KindNotWritable, KindNotLive):
//     expected, recoverable outcomes the caller checks before proceeding.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
