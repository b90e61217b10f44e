package types

import (
	"github.com/veritlang/mem-model/errors"
)

// Span locates one struct field inside the flattened struct: its bit offset,
// its width, and the trailing padding before the next field (or the end of
// the struct for the last field).
type Span struct {
	Offset uint32
	Bits   uint32
	Pad    uint32
}

// StructLayout is the computed layout of a declared struct.
type StructLayout struct {
	Fields []Span
	Bits   uint32
	Align  uint32
}

// UnionLayout is the computed layout of a declared union: the common width,
// alignment, and the trailing padding of each variant.
type UnionLayout struct {
	Pads  []uint32
	Bits  uint32
	Align uint32
}

// Width returns the bit width of a resolved type. Void has width zero; every
// other well-formed type has a positive width. Struct and union layouts are
// memoized on the environment.
func (e *Env) Width(t Type) (uint32, error) {
	return e.width(t, nil)
}

// Align returns the bit alignment of a resolved type.
func (e *Env) Align(t Type) (uint32, error) {
	return e.align(t, nil)
}

// StructLayout returns the field offsets and padding schedule of a declared
// struct.
func (e *Env) StructLayout(name string) (StructLayout, error) {
	return e.structLayout(name, nil)
}

// UnionLayout returns the width, alignment and per-variant trailing padding
// of a declared union.
func (e *Env) UnionLayout(name string) (UnionLayout, error) {
	return e.unionLayout(name, nil)
}

// busy tracks in-progress struct/union layout computations so declaration
// cycles surface as errors instead of unbounded recursion.
type busy map[string]bool

func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) / align * align
}

func (e *Env) width(t Type, b busy) (uint32, error) {
	switch t.Kind {
	case KindVoid:
		return 0, nil
	case KindBase:
		if t.Bits == 0 || t.Bits%8 != 0 {
			return 0, errors.New(errors.PhaseLayout, errors.KindBadWidth).
				Detail("base width %d is not a positive multiple of 8", t.Bits).
				Build()
		}
		return t.Bits, nil
	case KindArray:
		if t.Len <= 0 {
			return 0, errors.InvalidData(errors.PhaseLayout, nil, "array length must be positive")
		}
		w, err := e.width(*t.Elem, b)
		if err != nil {
			return 0, err
		}
		return w * uint32(t.Len), nil
	case KindStruct:
		l, err := e.structLayout(t.Name, b)
		if err != nil {
			return 0, err
		}
		return l.Bits, nil
	case KindUnion:
		l, err := e.unionLayout(t.Name, b)
		if err != nil {
			return 0, err
		}
		return l.Bits, nil
	default:
		return 0, errors.InvalidData(errors.PhaseLayout, nil, "unknown type kind")
	}
}

func (e *Env) align(t Type, b busy) (uint32, error) {
	switch t.Kind {
	case KindVoid:
		return 8, nil
	case KindBase:
		// Power-of-two base widths are self-aligned; anything else is byte
		// aligned.
		switch t.Bits {
		case 8, 16, 32, 64:
			return t.Bits, nil
		default:
			return 8, nil
		}
	case KindArray:
		return e.align(*t.Elem, b)
	case KindStruct:
		l, err := e.structLayout(t.Name, b)
		if err != nil {
			return 0, err
		}
		return l.Align, nil
	case KindUnion:
		l, err := e.unionLayout(t.Name, b)
		if err != nil {
			return 0, err
		}
		return l.Align, nil
	default:
		return 8, nil
	}
}

func (e *Env) structLayout(name string, b busy) (StructLayout, error) {
	if l, ok := e.structLayouts[name]; ok {
		return l, nil
	}
	fields, ok := e.structs[name]
	if !ok {
		return StructLayout{}, errors.UnknownType(errors.PhaseLayout, name)
	}
	if b == nil {
		b = make(busy)
	}
	key := "struct " + name
	if b[key] {
		return StructLayout{}, errors.InvalidData(errors.PhaseLayout, nil, "declaration cycle through "+key)
	}
	b[key] = true
	defer delete(b, key)

	spans := make([]Span, len(fields))
	offset := uint32(0)
	maxAlign := uint32(8)
	for i, f := range fields {
		a, err := e.align(f.Type, b)
		if err != nil {
			return StructLayout{}, err
		}
		w, err := e.width(f.Type, b)
		if err != nil {
			return StructLayout{}, err
		}
		offset = alignTo(offset, a)
		spans[i] = Span{Offset: offset, Bits: w}
		if a > maxAlign {
			maxAlign = a
		}
		offset += w
	}
	total := alignTo(offset, maxAlign)
	for i := range spans {
		end := spans[i].Offset + spans[i].Bits
		next := total
		if i+1 < len(spans) {
			next = spans[i+1].Offset
		}
		spans[i].Pad = next - end
	}

	l := StructLayout{Fields: spans, Bits: total, Align: maxAlign}
	e.structLayouts[name] = l
	return l, nil
}

func (e *Env) unionLayout(name string, b busy) (UnionLayout, error) {
	if l, ok := e.unionLayouts[name]; ok {
		return l, nil
	}
	variants, ok := e.unions[name]
	if !ok {
		return UnionLayout{}, errors.UnknownType(errors.PhaseLayout, name)
	}
	if b == nil {
		b = make(busy)
	}
	key := "union " + name
	if b[key] {
		return UnionLayout{}, errors.InvalidData(errors.PhaseLayout, nil, "declaration cycle through "+key)
	}
	b[key] = true
	defer delete(b, key)

	maxAlign := uint32(8)
	maxBits := uint32(0)
	widths := make([]uint32, len(variants))
	for i, v := range variants {
		a, err := e.align(v.Type, b)
		if err != nil {
			return UnionLayout{}, err
		}
		w, err := e.width(v.Type, b)
		if err != nil {
			return UnionLayout{}, err
		}
		widths[i] = w
		if a > maxAlign {
			maxAlign = a
		}
		if w > maxBits {
			maxBits = w
		}
	}
	total := alignTo(maxBits, maxAlign)
	pads := make([]uint32, len(variants))
	for i, w := range widths {
		pads[i] = total - w
	}

	l := UnionLayout{Pads: pads, Bits: total, Align: maxAlign}
	e.unionLayouts[name] = l
	return l, nil
}
