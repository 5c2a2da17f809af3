package container

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/offset"
)

// inlineCapacity is the longest string that fits entirely inside the
// SmallStringSize-byte record (spec.md §3.4). Strings of this length or
// shorter never allocate a separate payload region.
const inlineCapacity = SmallStringSize - 1

// heapTag marks byte 15 of the record as "this is the heap variant"; any
// other value in that byte is read as the inline variant's remaining
// capacity (inlineCapacity minus the string's length).
const heapTag = 0xFF

// SmallString is the tagged-union string container: up to inlineCapacity
// bytes live directly inside the fixed-size record, longer strings spill to
// an out-of-line, offset-pointed heap region. Grounded on spec.md §3.4 and
// cista's cstring small-buffer-optimization design.
type SmallString struct {
	s string
}

// NewSmallString wraps a Go string for encoding.
func NewSmallString(s string) SmallString { return SmallString{s: s} }

// String returns the wrapped value.
func (s SmallString) String() string { return s.s }

// IsInline reports whether s fits in the inline variant.
func (s SmallString) IsInline() bool { return len(s.s) <= inlineCapacity }

// HeapBytes returns the out-of-line payload for the heap variant, or nil if
// s fits inline.
func (s SmallString) HeapBytes() []byte {
	if s.IsInline() {
		return nil
	}
	return []byte(s.s)
}

// Encode writes the fixed SmallStringSize-byte record. For the heap
// variant, dataPtr is the already-computed self-relative pointer from the
// record's own eventual buffer site to the appended character payload.
func (s SmallString) Encode(dataPtr offset.Ptr, bigEndian bool) []byte {
	out := make([]byte, SmallStringSize)
	if s.IsInline() {
		copy(out, s.s)
		// spec.md §3.4: the inline discriminator stores remaining capacity,
		// not length, matching cista's remaining_ = short_length_limit - size.
		out[SmallStringSize-1] = byte(inlineCapacity - len(s.s))
		return out
	}
	putPtr(out[0:8], dataPtr, bigEndian)
	if bigEndian {
		buf.PutU32BE(out[8:12], uint32(len(s.s)))
	} else {
		buf.PutU32LE(out[8:12], uint32(len(s.s)))
	}
	out[12] = 1 // selfAllocated: the payload region belongs to this buffer
	out[15] = heapTag
	return out
}

// DecodeSmallString reads back a SmallStringSize-byte record. For the
// inline variant isHeap is false and inline holds the string; otherwise
// isHeap is true and heapLen is the length the heap payload region must be
// read for (the caller resolves dataPtr against the record's buffer site
// to find that region).
func DecodeSmallString(b []byte, bigEndian bool) (inline string, dataPtr offset.Ptr, heapLen uint32, isHeap bool, err error) {
	if len(b) != SmallStringSize {
		return "", 0, 0, false, fmt.Errorf("zcerr: small string record must be %d bytes, got %d", SmallStringSize, len(b))
	}
	if b[SmallStringSize-1] != heapTag {
		remaining := int(b[SmallStringSize-1])
		if remaining > inlineCapacity {
			return "", 0, 0, false, fmt.Errorf("zcerr: inline small string remaining capacity %d exceeds capacity %d", remaining, inlineCapacity)
		}
		n := inlineCapacity - remaining
		return string(b[:n]), 0, 0, false, nil
	}
	dataPtr = getPtr(b[0:8], bigEndian)
	if bigEndian {
		heapLen = buf.U32BE(b[8:12])
	} else {
		heapLen = buf.U32LE(b[8:12])
	}
	return "", dataPtr, heapLen, true, nil
}
