// Package perm implements the per-byte permission algebra of the mem-model
// library.
//
// Every stored byte carries a Tag: an ownership kind (unmapped, owned or
// shared) and a determinacy flag. Unmapped bytes are free or uninitialized
// storage, owned bytes are exclusive and writable, shared bytes are read-only
// and possibly aliased. A Byte pairs the tag with the value byte and, for
// bytes that are fragments of a pointer, the id of the referenced object.
//
// Disjoint and Merge form a separation algebra: disjointness is bytewise,
// commutative and associative; Merge is total on disjoint inputs with
// unmapped as the unit. Two shared copies of the same byte are disjoint and
// merge back into one, which is what lets a struct be split into
// per-field ownership slices and reconstituted.
//
// Validity comes in two strengths. Weak validity is structural: an unmapped
// byte may not claim a determinate value. Strong validity additionally takes
// an object-type-environment and requires pointer fragments to reference
// live objects. Weak checking is what ephemeral, punned subtrees get; strong
// checking is for trees installed in a Memory.
package perm
