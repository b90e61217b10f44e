package tree

import (
	"github.com/veritlang/mem-model/perm"
)

// Disjoint reports whether two trees of the same type may coexist as views
// of the same storage, bytewise across their flattened encodings. Trees of
// different types are never disjoint.
func Disjoint(t1, t2 Tree) bool {
	if !t1.TypeOf().Equal(t2.TypeOf()) {
		return false
	}
	return perm.Disjoint(Encode(t1), Encode(t2))
}

// Merge combines two disjoint trees of the same type into one, reconstituting
// split ownership: merging "only field a owned" with "only field b owned"
// yields the fully owned struct. Structure is preserved wherever the two
// sides agree on it; a union whose sides disagree merges through its
// flattened bytes into raw form. Returns false when the trees are not
// disjoint.
func Merge(t1, t2 Tree) (Tree, bool) {
	if !Disjoint(t1, t2) {
		return nil, false
	}
	return merge(t1, t2), true
}

// merge assumes Disjoint(t1, t2).
func merge(t1, t2 Tree) Tree {
	switch a := t1.(type) {
	case *Base:
		b := t2.(*Base)
		bytes, _ := perm.Merge(a.Bytes, b.Bytes)
		return &Base{Bits: a.Bits, Bytes: bytes}

	case *Array:
		b := t2.(*Array)
		elems := make([]Tree, len(a.Elems))
		for i := range a.Elems {
			elems[i] = merge(a.Elems[i], b.Elems[i])
		}
		return &Array{Elem: a.Elem, Elems: elems}

	case *Struct:
		b := t2.(*Struct)
		fields := make([]StructField, len(a.Fields))
		for i := range a.Fields {
			pad, _ := perm.Merge(a.Fields[i].Pad, b.Fields[i].Pad)
			fields[i] = StructField{
				Sub: merge(a.Fields[i].Sub, b.Fields[i].Sub),
				Pad: pad,
			}
		}
		return &Struct{Name: a.Name, Fields: fields}

	case *UnionActive:
		switch b := t2.(type) {
		case *UnionActive:
			if a.Variant == b.Variant {
				trailing, _ := perm.Merge(a.Trailing, b.Trailing)
				return &UnionActive{
					Name:     a.Name,
					Variant:  a.Variant,
					Sub:      merge(a.Sub, b.Sub),
					Trailing: trailing,
				}
			}
			return mergeRaw(a.Name, Encode(t1), Encode(t2))
		case *UnionRaw:
			if perm.AllUnmapped(b.Bytes) {
				// The raw side contributes nothing; keep the structure.
				return t1
			}
			return mergeRaw(a.Name, Encode(t1), b.Bytes)
		}

	case *UnionRaw:
		switch b := t2.(type) {
		case *UnionActive:
			if perm.AllUnmapped(a.Bytes) {
				return t2
			}
			return mergeRaw(a.Name, a.Bytes, Encode(t2))
		case *UnionRaw:
			return mergeRaw(a.Name, a.Bytes, b.Bytes)
		}
	}
	return nil
}

func mergeRaw(name string, b1, b2 []perm.Byte) Tree {
	bytes, _ := perm.Merge(b1, b2)
	return &UnionRaw{Name: name, Bytes: bytes}
}
