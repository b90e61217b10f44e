package tree

import (
	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// NewZeroed allocates a tree of the given type with every byte zero, owned
// and determinate.
func NewZeroed(env *types.Env, t types.Type) (Tree, error) {
	return NewWithTag(env, perm.TagOwned, t)
}

// NewWithTag allocates a tree of the given type with every byte zero and
// carrying the given tag; padding bytes are forced indeterminate. Unions are
// created in raw form: a fresh union has no committed variant.
func NewWithTag(env *types.Env, tag perm.Tag, t types.Type) (Tree, error) {
	if err := env.CheckType(t); err != nil {
		return nil, err
	}
	return build(env, tag, t)
}

func build(env *types.Env, tag perm.Tag, t types.Type) (Tree, error) {
	switch t.Kind {
	case types.KindVoid:
		return nil, errors.InvalidData(errors.PhaseAlloc, nil, "void has no storage")

	case types.KindBase:
		return &Base{Bits: t.Bits, Bytes: perm.Fill(int(t.Bits/8), tag)}, nil

	case types.KindArray:
		elems := make([]Tree, t.Len)
		for i := range elems {
			el, err := build(env, tag, *t.Elem)
			if err != nil {
				return nil, err
			}
			elems[i] = el
		}
		return &Array{Elem: *t.Elem, Elems: elems}, nil

	case types.KindStruct:
		fields, ok := env.StructFields(t.Name)
		if !ok {
			return nil, errors.UnknownType(errors.PhaseAlloc, t.Name)
		}
		layout, err := env.StructLayout(t.Name)
		if err != nil {
			return nil, err
		}
		out := make([]StructField, len(fields))
		for i, f := range fields {
			sub, err := build(env, tag, f.Type)
			if err != nil {
				return nil, err
			}
			out[i] = StructField{
				Sub: sub,
				Pad: perm.Fill(int(layout.Fields[i].Pad/8), tag.Indeterminate()),
			}
		}
		return &Struct{Name: t.Name, Fields: out}, nil

	case types.KindUnion:
		layout, err := env.UnionLayout(t.Name)
		if err != nil {
			return nil, err
		}
		return &UnionRaw{Name: t.Name, Bytes: perm.Fill(int(layout.Bits/8), tag)}, nil

	default:
		return nil, errors.InvalidData(errors.PhaseAlloc, nil, "unknown type kind")
	}
}
