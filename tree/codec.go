package tree

import (
	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// Encode flattens a tree into its tagged-byte sequence. The result has
// exactly width(typeOf(t))/8 bytes; padding and trailing bytes are emitted
// as stored.
func Encode(t Tree) []perm.Byte {
	switch n := t.(type) {
	case *Base:
		return perm.Clone(n.Bytes)
	case *Array:
		var out []perm.Byte
		for _, el := range n.Elems {
			out = append(out, Encode(el)...)
		}
		return out
	case *Struct:
		var out []perm.Byte
		for _, f := range n.Fields {
			out = append(out, Encode(f.Sub)...)
			out = append(out, f.Pad...)
		}
		return out
	case *UnionActive:
		out := Encode(n.Sub)
		return append(out, n.Trailing...)
	case *UnionRaw:
		return perm.Clone(n.Bytes)
	default:
		return nil
	}
}

// Decode rebuilds a tree of the requested type from a tagged-byte sequence.
// The sequence must be exactly width(t)/8 bytes; a mismatch is a caller
// contract violation. Unions decode to raw form: reconstructing a variant
// requires an explicit union path segment, never a guess. Struct padding
// bytes keep their permission kinds but are stripped to pure tags.
func Decode(env *types.Env, t types.Type, bytes []perm.Byte) (Tree, error) {
	w, err := env.Width(t)
	if err != nil {
		return nil, err
	}
	if t.IsVoid() {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "void has no storage")
	}
	if uint32(len(bytes))*8 != w {
		return nil, errors.BadWidth(errors.PhaseDecode, w, uint32(len(bytes))*8)
	}

	switch t.Kind {
	case types.KindBase:
		return &Base{Bits: t.Bits, Bytes: perm.Clone(bytes)}, nil

	case types.KindArray:
		ew, err := env.Width(*t.Elem)
		if err != nil {
			return nil, err
		}
		stride := int(ew / 8)
		elems := make([]Tree, t.Len)
		for i := range elems {
			el, err := Decode(env, *t.Elem, bytes[i*stride:(i+1)*stride])
			if err != nil {
				return nil, err
			}
			elems[i] = el
		}
		return &Array{Elem: *t.Elem, Elems: elems}, nil

	case types.KindStruct:
		fields, ok := env.StructFields(t.Name)
		if !ok {
			return nil, errors.UnknownType(errors.PhaseDecode, t.Name)
		}
		layout, err := env.StructLayout(t.Name)
		if err != nil {
			return nil, err
		}
		out := make([]StructField, len(fields))
		for i, f := range fields {
			span := layout.Fields[i]
			lo := int(span.Offset / 8)
			hi := int((span.Offset + span.Bits) / 8)
			sub, err := Decode(env, f.Type, bytes[lo:hi])
			if err != nil {
				return nil, err
			}
			// Padding never carries a value; only the permission kinds
			// survive the round trip.
			out[i] = StructField{
				Sub: sub,
				Pad: perm.ClearValues(bytes[hi : hi+int(span.Pad/8)]),
			}
		}
		return &Struct{Name: t.Name, Fields: out}, nil

	case types.KindUnion:
		return &UnionRaw{Name: t.Name, Bytes: perm.Clone(bytes)}, nil

	default:
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "unknown type kind")
	}
}

// Canonicalize replaces every active union node with its raw-byte form,
// recursively. It is the right-hand side of the round-trip law:
//
//	Decode(env, TypeOf(t), Encode(t)) == Canonicalize(t)
//
// Trees containing no active union are their own canonical form.
func Canonicalize(t Tree) Tree {
	switch n := t.(type) {
	case *Base, *UnionRaw:
		return t
	case *Array:
		elems := make([]Tree, len(n.Elems))
		changed := false
		for i, el := range n.Elems {
			elems[i] = Canonicalize(el)
			changed = changed || elems[i] != el
		}
		if !changed {
			return t
		}
		return &Array{Elem: n.Elem, Elems: elems}
	case *Struct:
		fields := make([]StructField, len(n.Fields))
		changed := false
		for i, f := range n.Fields {
			sub := Canonicalize(f.Sub)
			fields[i] = StructField{Sub: sub, Pad: f.Pad}
			changed = changed || sub != f.Sub
		}
		if !changed {
			return t
		}
		return &Struct{Name: n.Name, Fields: fields}
	case *UnionActive:
		// Encode already flattens nested active unions inside the subtree.
		bytes := Encode(n.Sub)
		bytes = append(bytes, n.Trailing...)
		return &UnionRaw{Name: n.Name, Bytes: bytes}
	default:
		return t
	}
}
