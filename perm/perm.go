package perm

import (
	"github.com/veritlang/mem-model/types"
)

// Kind is the ownership component of a byte tag.
type Kind uint8

const (
	// Unmapped marks free or uninitialized storage. Unit of the algebra.
	Unmapped Kind = iota
	// Owned marks exclusive, writable storage.
	Owned
	// Shared marks read-only, possibly aliased storage.
	Shared
)

var kindNames = [...]string{
	Unmapped: "unmapped",
	Owned:    "owned",
	Shared:   "shared",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Tag is the permission tag carried by every byte: ownership kind plus a
// determinacy flag. An indeterminate byte holds no meaningful value.
type Tag struct {
	Kind        Kind
	Determinate bool
}

// Common tags.
var (
	TagUnmapped = Tag{Kind: Unmapped}
	TagOwned    = Tag{Kind: Owned, Determinate: true}
	TagShared   = Tag{Kind: Shared, Determinate: true}
	TagPadding  = Tag{Kind: Owned, Determinate: false}
)

// Writable reports whether a byte with this tag may be written.
func (t Tag) Writable() bool {
	return t.Kind == Owned
}

// Readable reports whether a byte with this tag may be read for its value.
func (t Tag) Readable() bool {
	return t.Kind != Unmapped && t.Determinate
}

// Indeterminate returns the same tag with the determinacy flag cleared.
func (t Tag) Indeterminate() Tag {
	t.Determinate = false
	return t
}

// Valid reports weak structural validity: an unmapped byte cannot claim a
// determinate value.
func (t Tag) Valid() bool {
	return !(t.Kind == Unmapped && t.Determinate)
}

// Byte is one permission-tagged storage byte. Obj is the id of the object
// this byte references when it is a fragment of an encoded pointer, zero
// otherwise.
type Byte struct {
	Obj types.ObjID
	Val uint8
	Tag Tag
}

// Valid reports validity of the byte. With a nil env the check is weak
// (structural only); with an env, pointer fragments must reference live
// objects of a known type.
func (b Byte) Valid(env types.ObjEnv) bool {
	if !b.Tag.Valid() {
		return false
	}
	if b.Tag.Kind == Unmapped && b.Obj != 0 {
		return false
	}
	if env == nil || b.Obj == 0 {
		return true
	}
	if _, ok := env.TypeOfObject(b.Obj); !ok {
		return false
	}
	return env.IsLive(b.Obj)
}

// Fill returns n bytes of value zero carrying the given tag.
func Fill(n int, tag Tag) []Byte {
	out := make([]Byte, n)
	for i := range out {
		out[i].Tag = tag
	}
	return out
}

// Clone returns an independent copy of the byte sequence.
func Clone(bs []Byte) []Byte {
	return append([]Byte(nil), bs...)
}

// ClearValues zeroes the value and provenance of every byte and marks the
// tags indeterminate. Used when storage degrades to pure padding.
func ClearValues(bs []Byte) []Byte {
	out := make([]Byte, len(bs))
	for i, b := range bs {
		out[i] = Byte{Tag: b.Tag.Indeterminate()}
	}
	return out
}

// Indeterminate returns a copy of the sequence with every tag's determinacy
// flag cleared, values and provenance preserved.
func Indeterminate(bs []Byte) []Byte {
	out := make([]Byte, len(bs))
	for i, b := range bs {
		b.Tag = b.Tag.Indeterminate()
		out[i] = b
	}
	return out
}

// AllUnmapped reports whether every byte in the sequence is unmapped.
func AllUnmapped(bs []Byte) bool {
	for _, b := range bs {
		if b.Tag.Kind != Unmapped {
			return false
		}
	}
	return true
}

// AllValid reports validity of every byte in the sequence.
func AllValid(bs []Byte, env types.ObjEnv) bool {
	for _, b := range bs {
		if !b.Valid(env) {
			return false
		}
	}
	return true
}
