package refine

import (
	"github.com/veritlang/mem-model/tree"
	"github.com/veritlang/mem-model/types"
)

// Target is where an injection sends a source object: a target object and a
// path prefix inside it.
type Target struct {
	Prefix tree.Path
	Obj    types.ObjID
}

// Injection is a partial object-renaming correspondence. The zero value and
// Identity() both denote the identity renaming, which maps every object to
// itself with an empty prefix and allocates no map.
type Injection struct {
	m        map[types.ObjID]Target
	explicit bool
}

// Identity returns the identity injection.
func Identity() Injection {
	return Injection{}
}

// Explicit returns an injection over an explicit mapping. The map is copied.
func Explicit(m map[types.ObjID]Target) Injection {
	cp := make(map[types.ObjID]Target, len(m))
	for k, v := range m {
		cp[k] = Target{Obj: v.Obj, Prefix: append(tree.Path(nil), v.Prefix...)}
	}
	return Injection{m: cp, explicit: true}
}

// IsIdentity reports whether the injection is the identity renaming.
func (f Injection) IsIdentity() bool {
	return !f.explicit
}

// Lookup returns where the injection sends an object. The identity injection
// is total; an explicit injection is partial.
func (f Injection) Lookup(id types.ObjID) (Target, bool) {
	if !f.explicit {
		return Target{Obj: id}, true
	}
	t, ok := f.m[id]
	return t, ok
}

// Sources returns the domain of an explicit injection; nil for identity.
func (f Injection) Sources() []types.ObjID {
	if !f.explicit {
		return nil
	}
	out := make([]types.ObjID, 0, len(f.m))
	for id := range f.m {
		out = append(out, id)
	}
	return out
}

// Valid reports injectivity up to disjoint paths: any two sources sent to
// the same target object must land under structurally disjoint prefixes.
// The identity injection is trivially valid.
func (f Injection) Valid() bool {
	if !f.explicit {
		return true
	}
	byObj := make(map[types.ObjID][]tree.Path)
	for _, t := range f.m {
		for _, p := range byObj[t.Obj] {
			if !tree.DisjointPaths(t.Prefix, p) {
				return false
			}
		}
		byObj[t.Obj] = append(byObj[t.Obj], t.Prefix)
	}
	return true
}

// Compose returns f2 after f1: an object o with f1(o) = (a, p1) and
// f2(a) = (b, p2) is sent to (b, p2 ++ p1). Sources f2 does not cover drop
// out, keeping the composite partial.
func Compose(f2, f1 Injection) Injection {
	if f1.IsIdentity() {
		return f2
	}
	if f2.IsIdentity() {
		return f1
	}
	out := make(map[types.ObjID]Target, len(f1.m))
	for src, t1 := range f1.m {
		t2, ok := f2.m[t1.Obj]
		if !ok {
			continue
		}
		prefix := append(tree.Path(nil), t2.Prefix...)
		prefix = append(prefix, t1.Prefix...)
		out[src] = Target{Obj: t2.Obj, Prefix: prefix}
	}
	return Injection{m: out, explicit: true}
}
