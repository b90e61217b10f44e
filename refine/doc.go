// Package refine implements the simulation relation between two memories of
// the mem-model library.
//
// An Injection renames objects: it partially maps a source object id to a
// target object id plus a path prefix inside the target object. Injections
// are injective up to disjoint paths (two sources landing in the same target
// must do so under structurally disjoint prefixes), compose, and have a
// cheap Identity representation that allocates no map.
//
// Refines lifts the injection to trees: the right-hand tree may be more
// defined than the left in lock-step structural correspondence. Matching
// constructors relate position by position and bytes relate bytewise through
// the injection, with one asymmetric rule: an active union on the left may
// be refined by raw bytes on the right when the left's full flattened
// encoding refines the right's bytes and the left's active subtree is
// weakly well-typed. The left remembers structure the right has forgotten.
//
// RefinesMemory lifts the relation to whole memories: every mapped source
// object lands on a path-reachable object of the source's type, liveness is
// preserved forward, and every object the injection's range names exists in
// the target.
//
// The relation is reflexive under the identity injection and composes:
// t1 ⊑f1 t2 and t2 ⊑f2 t3 imply t1 ⊑(f2∘f1) t3. Both laws are exercised by
// the package tests; the refinement engine itself is a pure checker and is
// invoked per verification step, never persisted as program state.
package refine
