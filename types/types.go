package types

import (
	"fmt"
)

// Kind discriminates the type descriptor variants.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBase
	KindArray
	KindStruct
	KindUnion
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindBase:   "base",
	KindArray:  "array",
	KindStruct: "struct",
	KindUnion:  "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type describes the shape of a stored value. The zero value is void.
type Type struct {
	Elem *Type  // array element type
	Name string // struct/union name, resolved via Env
	Len  int    // array length
	Bits uint32 // base type width in bits
	Kind Kind
}

// Common base types.
var (
	U8  = Base(8)
	U16 = Base(16)
	U32 = Base(32)
	U64 = Base(64)
)

// Void returns the void type descriptor.
func Void() Type {
	return Type{Kind: KindVoid}
}

// Base returns a base type of the given bit width.
func Base(bits uint32) Type {
	return Type{Kind: KindBase, Bits: bits}
}

// Array returns an array type of n elements of elem.
func Array(elem Type, n int) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, Len: n}
}

// Struct returns a reference to the named struct declaration.
func Struct(name string) Type {
	return Type{Kind: KindStruct, Name: name}
}

// Union returns a reference to the named union declaration.
func Union(name string) Type {
	return Type{Kind: KindUnion, Name: name}
}

// Equal reports whether two type descriptors denote the same type.
func (t Type) Equal(u Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KindVoid:
		return true
	case KindBase:
		return t.Bits == u.Bits
	case KindArray:
		return t.Len == u.Len && t.Elem.Equal(*u.Elem)
	case KindStruct, KindUnion:
		return t.Name == u.Name
	default:
		return false
	}
}

// IsVoid reports whether t is the void type.
func (t Type) IsVoid() bool {
	return t.Kind == KindVoid
}

// String renders the type in source-like notation.
func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBase:
		switch t.Bits {
		case 8, 16, 32, 64:
			return fmt.Sprintf("u%d", t.Bits)
		default:
			return fmt.Sprintf("base:%d", t.Bits)
		}
	case KindArray:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem)
	case KindStruct:
		return "struct " + t.Name
	case KindUnion:
		return "union " + t.Name
	default:
		return "unknown"
	}
}

// ObjID identifies an allocated object. IDs are dense and never reused
// within one Memory.
type ObjID uint64

// ObjEnv is the object-type-environment consumed by strong validity checks
// and by the refinement engine. A Memory satisfies it; callers may supply
// their own for foreign object stores.
type ObjEnv interface {
	// TypeOfObject returns the declared type of a known object.
	TypeOfObject(id ObjID) (Type, bool)
	// IsLive reports whether the object has been allocated and not freed.
	IsLive(id ObjID) bool
}
