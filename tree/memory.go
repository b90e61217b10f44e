package tree

import (
	"sort"

	"go.uber.org/zap"

	"github.com/veritlang/mem-model/errors"
	"github.com/veritlang/mem-model/perm"
	"github.com/veritlang/mem-model/types"
)

// object is one allocated object: its current tree, declared type, and
// liveness.
type object struct {
	tree Tree
	typ  types.Type
	live bool
}

// Memory is an object store addressed by (object id, path). Trees stay
// persistent; the store itself is mutable and explicitly threaded by the
// external execution engine. Freed objects remain known to the store with
// fully unmapped storage, so dangling references can still be diagnosed.
//
// Memory implements types.ObjEnv.
type Memory struct {
	env     *types.Env
	objects map[types.ObjID]*object
	next    types.ObjID
}

// NewMemory returns an empty memory over the given type environment.
func NewMemory(env *types.Env) *Memory {
	return &Memory{
		env:     env,
		objects: make(map[types.ObjID]*object),
		next:    1,
	}
}

// Env returns the memory's type environment.
func (m *Memory) Env() *types.Env {
	return m.env
}

// Alloc creates an object of the given type with every byte carrying the
// given tag, and returns its id.
func (m *Memory) Alloc(t types.Type, tag perm.Tag) (types.ObjID, error) {
	tr, err := NewWithTag(m.env, tag, t)
	if err != nil {
		return 0, err
	}
	id := m.next
	m.next++
	m.objects[id] = &object{tree: tr, typ: t, live: true}
	Logger().Debug("alloc",
		zap.Uint64("obj", uint64(id)),
		zap.String("type", t.String()))
	return id, nil
}

// AllocZeroed creates a zeroed, fully owned object of the given type.
func (m *Memory) AllocZeroed(t types.Type) (types.ObjID, error) {
	return m.Alloc(t, perm.TagOwned)
}

// Free kills an object: its storage becomes fully unmapped and it stops
// being live. Freeing an unknown or already dead object returns false.
func (m *Memory) Free(id types.ObjID) bool {
	o, ok := m.objects[id]
	if !ok || !o.live {
		return false
	}
	dead, err := NewWithTag(m.env, perm.TagUnmapped, o.typ)
	if err != nil {
		return false
	}
	o.tree = dead
	o.live = false
	Logger().Debug("free", zap.Uint64("obj", uint64(id)))
	return true
}

// Tree returns the current tree of a known object.
func (m *Memory) Tree(id types.ObjID) (Tree, bool) {
	o, ok := m.objects[id]
	if !ok {
		return nil, false
	}
	return o.tree, true
}

// SetTree replaces an object's tree. The new tree must keep the object's
// declared type; the caller is responsible for well-typedness beyond that.
func (m *Memory) SetTree(id types.ObjID, t Tree) error {
	o, ok := m.objects[id]
	if !ok {
		return errors.NotLive(errors.PhaseAlter, uint64(id))
	}
	if got := t.TypeOf(); !got.Equal(o.typ) {
		return errors.TypeMismatch(errors.PhaseAlter, nil, o.typ.String(), got.String())
	}
	o.tree = t
	return nil
}

// TypeOfObject implements types.ObjEnv.
func (m *Memory) TypeOfObject(id types.ObjID) (types.Type, bool) {
	o, ok := m.objects[id]
	if !ok {
		return types.Void(), false
	}
	return o.typ, true
}

// IsLive implements types.ObjEnv.
func (m *Memory) IsLive(id types.ObjID) bool {
	o, ok := m.objects[id]
	return ok && o.live
}

// Objects returns the ids of all known objects, live and dead, in ascending
// order.
func (m *Memory) Objects() []types.ObjID {
	ids := make([]types.ObjID, 0, len(m.objects))
	for id := range m.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LookupPath reads the subtree a path addresses within an object. Dead
// objects are rejected.
func (m *Memory) LookupPath(id types.ObjID, p Path) (Tree, error) {
	o, ok := m.objects[id]
	if !ok {
		return nil, errors.NotLive(errors.PhaseLookup, uint64(id))
	}
	if !o.live {
		return nil, errors.NotLive(errors.PhaseLookup, uint64(id))
	}
	return LookupPath(m.env, o.tree, p)
}

// AlterPath rewrites the subtree a path addresses within an object,
// installing the resulting tree as the object's new state.
func (m *Memory) AlterPath(id types.ObjID, p Path, f func(Tree) (Tree, error)) error {
	o, ok := m.objects[id]
	if !ok || !o.live {
		return errors.NotLive(errors.PhaseAlter, uint64(id))
	}
	out, err := AlterPath(m.env, o.tree, p, f)
	if err != nil {
		return err
	}
	o.tree = out
	return nil
}
