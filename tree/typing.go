package tree

import (
	"go.uber.org/multierr"

	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// WellTyped checks a tree against a declared type. With a nil objs the check
// is weak: byte validity is structural only. With an object-type-environment
// the check is strong: pointer-fragment bytes must reference live objects.
//
// Well-typedness is compositional and survives enlarging either environment:
// a tree well-typed under env stays well-typed under any env2 with
// env2.Extends(env), and weak well-typedness is implied by strong.
//
// Trees built by this package's constructors are well-typed; internal
// algorithms assume pre-validated input and WellTyped is meant for
// construction boundaries and foreign trees.
func WellTyped(env *types.Env, objs types.ObjEnv, t Tree, want types.Type) error {
	if t == nil {
		return errors.InvalidData(errors.PhaseTypecheck, nil, "nil tree")
	}
	got := t.TypeOf()
	if !got.Equal(want) {
		return errors.TypeMismatch(errors.PhaseTypecheck, nil, want.String(), got.String())
	}
	return wellTyped(env, objs, t)
}

func wellTyped(env *types.Env, objs types.ObjEnv, t Tree) error {
	switch n := t.(type) {
	case *Base:
		if err := env.CheckType(types.Base(n.Bits)); err != nil {
			return err
		}
		if uint32(len(n.Bytes))*8 != n.Bits {
			return errors.BadWidth(errors.PhaseTypecheck, n.Bits, uint32(len(n.Bytes))*8)
		}
		if !perm.AllValid(n.Bytes, objs) {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "invalid permission tags in base bytes")
		}
		return nil

	case *Array:
		if len(n.Elems) == 0 {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "empty array node")
		}
		var errs error
		for i, el := range n.Elems {
			if err := WellTyped(env, objs, el, n.Elem); err != nil {
				errs = multierr.Append(errs, errors.Wrap(errors.PhaseTypecheck, errors.KindInvalidData, err,
					ArraySeg(i).String()))
			}
		}
		return errs

	case *Struct:
		fields, ok := env.StructFields(n.Name)
		if !ok {
			return errors.UnknownType(errors.PhaseTypecheck, n.Name)
		}
		if len(n.Fields) != len(fields) {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "field count does not match declaration")
		}
		layout, err := env.StructLayout(n.Name)
		if err != nil {
			return err
		}
		var errs error
		for i, f := range n.Fields {
			if err := WellTyped(env, objs, f.Sub, fields[i].Type); err != nil {
				errs = multierr.Append(errs, errors.Wrap(errors.PhaseTypecheck, errors.KindInvalidData, err,
					FieldSeg(i).String()))
				continue
			}
			if uint32(len(f.Pad))*8 != layout.Fields[i].Pad {
				errs = multierr.Append(errs, errors.New(errors.PhaseTypecheck, errors.KindBadWidth).
					Path(FieldSeg(i).String()).
					Detail("padding is %d bits, declared schedule says %d", len(f.Pad)*8, layout.Fields[i].Pad).
					Build())
				continue
			}
			if err := checkPadding(f.Pad); err != nil {
				errs = multierr.Append(errs, errors.Wrap(errors.PhaseTypecheck, errors.KindInvalidData, err,
					FieldSeg(i).String()))
			}
		}
		return errs

	case *UnionActive:
		variants, ok := env.UnionVariants(n.Name)
		if !ok {
			return errors.UnknownType(errors.PhaseTypecheck, n.Name)
		}
		if n.Variant < 0 || n.Variant >= len(variants) {
			return errors.InvalidVariant(errors.PhaseTypecheck, nil, n.Variant, len(variants))
		}
		if err := WellTyped(env, objs, n.Sub, variants[n.Variant].Type); err != nil {
			return errors.Wrap(errors.PhaseTypecheck, errors.KindInvalidData, err,
				UnionSeg(n.Variant, false).String())
		}
		layout, err := env.UnionLayout(n.Name)
		if err != nil {
			return err
		}
		if uint32(len(n.Trailing))*8 != layout.Pads[n.Variant] {
			return errors.BadWidth(errors.PhaseTypecheck, layout.Pads[n.Variant], uint32(len(n.Trailing))*8)
		}
		if !perm.AllValid(n.Trailing, objs) {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "invalid permission tags in union trailing bytes")
		}
		if perm.AllUnmapped(Encode(n.Sub)) && perm.AllUnmapped(n.Trailing) {
			return errors.InvalidData(errors.PhaseTypecheck, nil,
				"fully unmapped union must be represented as raw bytes")
		}
		return nil

	case *UnionRaw:
		layout, err := env.UnionLayout(n.Name)
		if err != nil {
			return err
		}
		if uint32(len(n.Bytes))*8 != layout.Bits {
			return errors.BadWidth(errors.PhaseTypecheck, layout.Bits, uint32(len(n.Bytes))*8)
		}
		if !perm.AllValid(n.Bytes, objs) {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "invalid permission tags in union bytes")
		}
		return nil

	default:
		return errors.InvalidData(errors.PhaseTypecheck, nil, "unknown tree node")
	}
}

// checkPadding enforces that padding holds tags only: indeterminate, no
// value, no provenance.
func checkPadding(pad []perm.Byte) error {
	for _, b := range pad {
		if b.Tag.Determinate || b.Val != 0 || b.Obj != 0 {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "padding byte carries a value")
		}
		if !b.Tag.Valid() {
			return errors.InvalidData(errors.PhaseTypecheck, nil, "invalid padding tag")
		}
	}
	return nil
}
