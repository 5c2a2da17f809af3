package container

import "github.com/offsetgraph/zerocopy/offset"

// BoxMeta is the owning-heap-pointer metadata record (spec.md §3.3): a
// single offset.Ptr to exactly one pointee plus a self-allocated flag.
// Unlike Vector, Box never grows and never holds a count; it is the
// "at most one live owning reference" primitive, grounded on cista's
// unique_ptr<T>.
type BoxMeta struct {
	El            offset.Ptr
	SelfAllocated bool
}

// Encode writes the fixed BoxMetaSize-byte record.
func (m BoxMeta) Encode(bigEndian bool) []byte {
	out := make([]byte, BoxMetaSize)
	putPtr(out[0:8], m.El, bigEndian)
	if m.SelfAllocated {
		out[8] = 1
	}
	return out
}

// DecodeBoxMeta reads back a BoxMetaSize-byte record written by Encode.
func DecodeBoxMeta(b []byte, bigEndian bool) BoxMeta {
	return BoxMeta{
		El:            getPtr(b[0:8], bigEndian),
		SelfAllocated: b[8] != 0,
	}
}
