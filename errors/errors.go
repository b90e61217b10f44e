package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which operation the error occurred in
type Phase string

const (
	PhaseLayout    Phase = "layout"    // width/offset computation
	PhaseTypecheck Phase = "typecheck" // well-typedness validation
	PhaseAlloc     Phase = "alloc"     // object allocation
	PhaseLookup    Phase = "lookup"    // path-addressed read
	PhaseAlter     Phase = "alter"     // path-addressed update
	PhaseEncode    Phase = "encode"    // tree to tagged bytes
	PhaseDecode    Phase = "decode"    // tagged bytes to tree
	PhaseMerge     Phase = "merge"     // disjoint tree merge
	PhaseRefine    Phase = "refine"    // simulation checking
	PhaseEnv       Phase = "env"       // type environment loading
)

// Kind categorizes the error
type Kind string

const (
	// Contract violations: the type discipline was bypassed.
	KindOutOfRange     Kind = "out_of_range"
	KindTypeMismatch   Kind = "type_mismatch"
	KindBadWidth       Kind = "bad_width"
	KindInvalidPath    Kind = "invalid_path"
	KindUnknownType    Kind = "unknown_type"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidVariant Kind = "invalid_variant"

	// Policy rejections: expected outcomes the caller must check.
	KindFrozenUnion Kind = "frozen_union"
	KindNotWritable Kind = "not_writable"
	KindNotLive     Kind = "not_live"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Want   string
	Got    string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, ""))
	}

	if e.Want != "" || e.Got != "" {
		b.WriteString(": ")
		if e.Want != "" && e.Got != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
			b.WriteString(", got ")
			b.WriteString(e.Got)
		} else if e.Want != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
		} else {
			b.WriteString("got ")
			b.WriteString(e.Got)
		}
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsContract reports whether the error is a contract violation: a caller bug
// where the type discipline was bypassed, as opposed to a policy rejection
// the caller is expected to handle.
func (e *Error) IsContract() bool {
	switch e.Kind {
	case KindOutOfRange, KindTypeMismatch, KindBadWidth, KindInvalidPath,
		KindUnknownType, KindInvalidData, KindInvalidVariant:
		return true
	default:
		return false
	}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the access path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Want sets the expected type name
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Got sets the actual type name
func (b *Builder) Got(t string) *Builder {
	b.err.Got = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Path:  path,
		Want:  want,
		Got:   got,
	}
}

// OutOfRange creates an out of range error for an array or field index
func OutOfRange(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of range (length %d)", index, length),
		Value:  index,
	}
}

// BadWidth creates a wrong-length error for decode or merge inputs
func BadWidth(phase Phase, wantBits, gotBits uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadWidth,
		Detail: fmt.Sprintf("want %d bits, got %d bits", wantBits, gotBits),
	}
}

// FrozenUnion creates a frozen-union mismatch rejection
func FrozenUnion(path []string, active, requested int) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindFrozenUnion,
		Path:   path,
		Detail: fmt.Sprintf("frozen access to variant %d, active variant is %d", requested, active),
	}
}

// FrozenRaw creates a frozen-union rejection for a union with no active variant
func FrozenRaw(path []string, requested int) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindFrozenUnion,
		Path:   path,
		Detail: fmt.Sprintf("frozen access to variant %d, union holds raw bytes", requested),
	}
}

// UnknownType creates an unknown struct/union name error
func UnknownType(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownType,
		Detail: fmt.Sprintf("type %q not declared in environment", name),
	}
}

// InvalidPath creates an error for a path segment that cannot be interpreted
func InvalidPath(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidPath,
		Path:   path,
		Detail: detail,
	}
}

// NotWritable creates a rejection for a write through shared or unmapped bytes
func NotWritable(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseAlter,
		Kind:   KindNotWritable,
		Path:   path,
		Detail: detail,
	}
}

// NotLive creates a dead-object rejection
func NotLive(phase Phase, obj uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotLive,
		Detail: fmt.Sprintf("object %d is not live", obj),
	}
}

// InvalidVariant creates an out-of-range union variant error
func InvalidVariant(phase Phase, path []string, variant, count int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("variant %d out of range (%d variants)", variant, count),
		Value:  variant,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
