package tree

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// SegKind discriminates path segment variants.
type SegKind uint8

const (
	SegArray SegKind = iota
	SegField
	SegUnion
)

// Seg is one path segment: an array index, a field index, or a union variant
// selector. A non-frozen union segment whose variant differs from the
// union's current content performs a type pun; a frozen one is rejected.
type Seg struct {
	Kind   SegKind
	Index  int
	Frozen bool
}

// ArraySeg returns an array index segment.
func ArraySeg(i int) Seg { return Seg{Kind: SegArray, Index: i} }

// FieldSeg returns a struct field index segment.
func FieldSeg(i int) Seg { return Seg{Kind: SegField, Index: i} }

// UnionSeg returns a union variant segment. A frozen segment only follows
// the variant the union is already committed to.
func UnionSeg(i int, frozen bool) Seg { return Seg{Kind: SegUnion, Index: i, Frozen: frozen} }

// String renders the segment: "[i]" for arrays, ".i" for fields, "@i" for
// union variants ("@i!" when frozen).
func (s Seg) String() string {
	switch s.Kind {
	case SegArray:
		return fmt.Sprintf("[%d]", s.Index)
	case SegField:
		return fmt.Sprintf(".%d", s.Index)
	case SegUnion:
		if s.Frozen {
			return fmt.Sprintf("@%d!", s.Index)
		}
		return fmt.Sprintf("@%d", s.Index)
	default:
		return "?"
	}
}

// Path is an ordered segment list addressing a subtree. Paths are transient:
// built per access, never persisted.
type Path []Seg

func (p Path) String() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// DisjointPaths reports structural disjointness: the paths diverge at an
// array or field segment with different indices before either path ends.
// Paths diverging only at a union segment are NOT disjoint: different
// variants of one union address the same bytes through different types and
// may alias by reinterpretation. A path is never disjoint from its own
// prefix.
func DisjointPaths(p1, p2 Path) bool {
	for i := 0; i < len(p1) && i < len(p2); i++ {
		s1, s2 := p1[i], p2[i]
		if s1.Kind != s2.Kind {
			return false
		}
		if s1.Index == s2.Index {
			continue
		}
		return s1.Kind == SegArray || s1.Kind == SegField
	}
	return false
}

// Lookup resolves one segment against a tree. Out-of-range indices and
// segment/node kind mismatches are contract violations; a frozen union
// segment that does not match the committed variant is a policy rejection
// the caller must handle.
func Lookup(env *types.Env, t Tree, seg Seg) (Tree, error) {
	switch seg.Kind {
	case SegArray:
		a, ok := t.(*Array)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseLookup, []string{seg.String()}, "array", t.TypeOf().String())
		}
		if seg.Index < 0 || seg.Index >= len(a.Elems) {
			return nil, errors.OutOfRange(errors.PhaseLookup, []string{seg.String()}, seg.Index, len(a.Elems))
		}
		return a.Elems[seg.Index], nil

	case SegField:
		s, ok := t.(*Struct)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseLookup, []string{seg.String()}, "struct", t.TypeOf().String())
		}
		if seg.Index < 0 || seg.Index >= len(s.Fields) {
			return nil, errors.OutOfRange(errors.PhaseLookup, []string{seg.String()}, seg.Index, len(s.Fields))
		}
		return s.Fields[seg.Index].Sub, nil

	case SegUnion:
		return lookupUnion(env, t, seg)

	default:
		return nil, errors.InvalidPath(errors.PhaseLookup, []string{seg.String()}, "unknown segment kind")
	}
}

func lookupUnion(env *types.Env, t Tree, seg Seg) (Tree, error) {
	switch u := t.(type) {
	case *UnionActive:
		if seg.Index == u.Variant {
			return u.Sub, nil
		}
		if seg.Frozen {
			return nil, errors.FrozenUnion([]string{seg.String()}, u.Variant, seg.Index)
		}
		sub, _, err := punUnion(env, u.Name, seg.Index, Encode(t), seg)
		return sub, err

	case *UnionRaw:
		if seg.Frozen {
			return nil, errors.FrozenRaw([]string{seg.String()}, seg.Index)
		}
		sub, _, err := punUnion(env, u.Name, seg.Index, u.Bytes, seg)
		return sub, err

	default:
		return nil, errors.TypeMismatch(errors.PhaseLookup, []string{seg.String()}, "union", t.TypeOf().String())
	}
}

// punUnion decodes the first width(variant) bits of a union's byte content
// as the requested variant. This is the sole entry point for type punning.
// It returns the decoded subtree and the remaining bytes.
func punUnion(env *types.Env, name string, variant int, bytes []perm.Byte, seg Seg) (Tree, []perm.Byte, error) {
	variants, ok := env.UnionVariants(name)
	if !ok {
		return nil, nil, errors.UnknownType(errors.PhaseLookup, name)
	}
	if variant < 0 || variant >= len(variants) {
		return nil, nil, errors.OutOfRange(errors.PhaseLookup, []string{seg.String()}, variant, len(variants))
	}
	vt := variants[variant].Type
	w, err := env.Width(vt)
	if err != nil {
		return nil, nil, err
	}
	cut := int(w / 8)
	sub, err := Decode(env, vt, bytes[:cut])
	if err != nil {
		return nil, nil, err
	}
	Logger().Debug("union pun",
		zap.String("union", name),
		zap.Int("variant", variant),
		zap.String("as", vt.String()))
	return sub, bytes[cut:], nil
}

// Alter rewrites the subtree one segment addresses, returning a new tree
// that shares every untouched child. f receives the current subtree (for a
// punning union segment: the freshly decoded variant view) and must return a
// tree of the same type; a mismatch is a contract violation.
//
// If f preserves byte validity and disjointness against a context, so does
// the whole Alter: untouched subtrees pass through bitwise unchanged, so
// per-segment reasoning composes without re-examining them.
func Alter(env *types.Env, t Tree, seg Seg, f func(Tree) (Tree, error)) (Tree, error) {
	switch seg.Kind {
	case SegArray:
		a, ok := t.(*Array)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseAlter, []string{seg.String()}, "array", t.TypeOf().String())
		}
		if seg.Index < 0 || seg.Index >= len(a.Elems) {
			return nil, errors.OutOfRange(errors.PhaseAlter, []string{seg.String()}, seg.Index, len(a.Elems))
		}
		sub, err := apply(f, a.Elems[seg.Index], seg.String())
		if err != nil {
			return nil, err
		}
		elems := make([]Tree, len(a.Elems))
		copy(elems, a.Elems)
		elems[seg.Index] = sub
		return &Array{Elem: a.Elem, Elems: elems}, nil

	case SegField:
		s, ok := t.(*Struct)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseAlter, []string{seg.String()}, "struct", t.TypeOf().String())
		}
		if seg.Index < 0 || seg.Index >= len(s.Fields) {
			return nil, errors.OutOfRange(errors.PhaseAlter, []string{seg.String()}, seg.Index, len(s.Fields))
		}
		sub, err := apply(f, s.Fields[seg.Index].Sub, seg.String())
		if err != nil {
			return nil, err
		}
		fields := make([]StructField, len(s.Fields))
		copy(fields, s.Fields)
		fields[seg.Index] = StructField{Sub: sub, Pad: s.Fields[seg.Index].Pad}
		return &Struct{Name: s.Name, Fields: fields}, nil

	case SegUnion:
		return alterUnion(env, t, seg, f)

	default:
		return nil, errors.InvalidPath(errors.PhaseAlter, []string{seg.String()}, "unknown segment kind")
	}
}

func alterUnion(env *types.Env, t Tree, seg Seg, f func(Tree) (Tree, error)) (Tree, error) {
	switch u := t.(type) {
	case *UnionActive:
		if seg.Index == u.Variant {
			sub, err := apply(f, u.Sub, seg.String())
			if err != nil {
				return nil, err
			}
			return finishUnion(u.Name, u.Variant, sub, u.Trailing), nil
		}
		if seg.Frozen {
			return nil, errors.FrozenUnion([]string{seg.String()}, u.Variant, seg.Index)
		}
		return repun(env, u.Name, seg, Encode(t), f)

	case *UnionRaw:
		if seg.Frozen {
			return nil, errors.FrozenRaw([]string{seg.String()}, seg.Index)
		}
		return repun(env, u.Name, seg, u.Bytes, f)

	default:
		return nil, errors.TypeMismatch(errors.PhaseAlter, []string{seg.String()}, "union", t.TypeOf().String())
	}
}

// repun commits a union to a new variant: decode the prefix as the requested
// variant, run f on the decoded view, and keep the leftover bytes as
// trailing storage with permission reset to indeterminate. Demoting a
// determinate trailing byte is a write, so it needs owned storage.
func repun(env *types.Env, name string, seg Seg, bytes []perm.Byte, f func(Tree) (Tree, error)) (Tree, error) {
	sub, rest, err := punUnion(env, name, seg.Index, bytes, seg)
	if err != nil {
		return nil, err
	}
	for _, pb := range rest {
		if pb.Tag.Determinate && !pb.Tag.Writable() {
			return nil, errors.NotWritable([]string{seg.String()},
				"variant change demotes "+pb.Tag.Kind.String()+" trailing byte")
		}
	}
	out, err := apply(f, sub, seg.String())
	if err != nil {
		return nil, err
	}
	return finishUnion(name, seg.Index, out, perm.Indeterminate(rest)), nil
}

// finishUnion builds the committed form of a union, collapsing the degenerate
// case: a variant whose content and trailing bytes are all unmapped records
// nothing and must stay raw.
func finishUnion(name string, variant int, sub Tree, trailing []perm.Byte) Tree {
	enc := Encode(sub)
	if perm.AllUnmapped(enc) && perm.AllUnmapped(trailing) {
		return &UnionRaw{Name: name, Bytes: append(enc, trailing...)}
	}
	return &UnionActive{Name: name, Variant: variant, Sub: sub, Trailing: trailing}
}

// apply runs f and enforces the write discipline: the result keeps the
// segment's expected type, and every byte it changes must be owned in the
// replaced subtree.
func apply(f func(Tree) (Tree, error), sub Tree, at string) (Tree, error) {
	out, err := f(sub)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.InvalidData(errors.PhaseAlter, []string{at}, "alter function returned nil")
	}
	want := sub.TypeOf()
	if got := out.TypeOf(); !got.Equal(want) {
		return nil, errors.TypeMismatch(errors.PhaseAlter, []string{at}, want.String(), got.String())
	}
	if err := writable(sub, out, at); err != nil {
		return nil, err
	}
	return out, nil
}

// writable rejects byte changes through non-owned storage. Byte-identical
// positions pass, so a pure reinterpretation of shared storage stays legal.
func writable(old, new Tree, at string) error {
	a, b := Encode(old), Encode(new)
	if len(a) != len(b) {
		return errors.BadWidth(errors.PhaseAlter, uint32(len(a))*8, uint32(len(b))*8)
	}
	for i := range a {
		if a[i] != b[i] && !a[i].Tag.Writable() {
			return errors.NotWritable([]string{at},
				"write through "+a[i].Tag.Kind.String()+" byte")
		}
	}
	return nil
}

// LookupPath resolves a whole path left to right.
func LookupPath(env *types.Env, t Tree, p Path) (Tree, error) {
	cur := t
	for i, seg := range p {
		next, err := Lookup(env, cur, seg)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLookup, errKind(err), err, "at "+Path(p[:i+1]).String())
		}
		cur = next
	}
	return cur, nil
}

// AlterPath rewrites the subtree a whole path addresses. Segments compose by
// function composition through the outer segment, so the result shares every
// subtree off the path. Edits through structurally disjoint paths commute.
func AlterPath(env *types.Env, t Tree, p Path, f func(Tree) (Tree, error)) (Tree, error) {
	if len(p) == 0 {
		return apply(f, t, ".")
	}
	return Alter(env, t, p[0], func(sub Tree) (Tree, error) {
		return AlterPath(env, sub, p[1:], f)
	})
}

func errKind(err error) errors.Kind {
	if e, ok := err.(*errors.Error); ok {
		return e.Kind
	}
	return errors.KindInvalidData
}
