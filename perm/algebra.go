package perm

// DisjointByte reports whether two bytes may coexist as views of the same
// storage location. Unmapped is disjoint from everything; shared bytes are
// disjoint from identical shared bytes; owned bytes are exclusive.
func DisjointByte(a, b Byte) bool {
	if a.Tag.Kind == Unmapped || b.Tag.Kind == Unmapped {
		return true
	}
	if a.Tag.Kind == Shared && b.Tag.Kind == Shared {
		return a == b
	}
	return false
}

// MergeByte combines two disjoint bytes. Precondition: DisjointByte(a, b).
func MergeByte(a, b Byte) Byte {
	if a.Tag.Kind == Unmapped {
		return b
	}
	return a
}

// Disjoint reports bytewise disjointness of two equal-length sequences.
// Sequences of different length are never disjoint.
func Disjoint(a, b []Byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !DisjointByte(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Merge combines two disjoint sequences bytewise. It returns false when the
// sequences differ in length or are not disjoint; merge of disjoint
// sequences is total.
func Merge(a, b []Byte) ([]Byte, bool) {
	if !Disjoint(a, b) {
		return nil, false
	}
	out := make([]Byte, len(a))
	for i := range a {
		out[i] = MergeByte(a[i], b[i])
	}
	return out, true
}
