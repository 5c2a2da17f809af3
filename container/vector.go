package container

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/offset"
	"github.com/offsetgraph/zerocopy/zcerr"
)

// Vector is the growable array container (spec.md §3.2): a fixed-size
// metadata record (data offset.Ptr, used count, allocated capacity, and a
// self-allocated flag) plus an out-of-line region of Stride-byte elements.
// Vector is byte-native: both the self-allocated (owning, growable) and
// borrowed (read-only view over a deserialized buffer) forms share this one
// type, distinguished by SelfAllocated, exactly mirroring spec.md §3.8's
// ownership model.
type Vector struct {
	data          []byte
	used          int
	stride        int
	selfAllocated bool
}

// NewVector creates an empty, self-allocated vector whose elements are
// stride bytes wide.
func NewVector(stride int) *Vector {
	if stride <= 0 {
		stride = 1
	}
	return &Vector{stride: stride, selfAllocated: true}
}

// BorrowVector wraps an existing byte region (typically a deserialization
// buffer slice already validated by the verify package) without copying or
// taking ownership.
func BorrowVector(raw []byte, used, stride int) *Vector {
	return &Vector{data: raw, used: used, stride: stride}
}

// Len reports the number of live elements.
func (v *Vector) Len() int { return v.used }

// Cap reports the element capacity of the current backing allocation.
func (v *Vector) Cap() int {
	if v.stride == 0 {
		return 0
	}
	return len(v.data) / v.stride
}

// SelfAllocated reports whether this vector owns its backing bytes.
func (v *Vector) SelfAllocated() bool { return v.selfAllocated }

// At returns the raw bytes of element i without copying.
func (v *Vector) At(i int) []byte {
	off := i * v.stride
	return v.data[off : off+v.stride]
}

// Push appends a new element, growing the backing allocation by doubling
// (rounded to the next power of two) when capacity is exhausted. Push
// returns an ErrOwnershipViolation error if the vector is borrowed; a
// borrowed vector is read-only per spec.md §3.8.
func (v *Vector) Push(elem []byte) error {
	if !v.selfAllocated && v.data != nil {
		return fmt.Errorf("%w: cannot mutate a borrowed vector", zcerr.ErrOwnershipViolation)
	}
	if len(elem) != v.stride {
		return fmt.Errorf("zcerr: element width %d does not match vector stride %d", len(elem), v.stride)
	}
	if v.used >= v.Cap() {
		v.grow()
	}
	copy(v.At(v.used), elem)
	v.used++
	v.selfAllocated = true
	return nil
}

func (v *Vector) grow() {
	newCap := NextPow2(v.used + 1)
	grown := make([]byte, newCap*v.stride)
	copy(grown, v.data)
	v.data = grown
}

// Bytes returns the full backing region (capacity-sized, not just the live
// prefix), matching what the engine appends out-of-line for this vector.
func (v *Vector) Bytes() []byte { return v.data }

// Meta encodes the fixed VectorMetaSize-byte metadata record. dataPtr is the
// already-computed self-relative pointer from the record's own eventual
// buffer site to the appended element payload (offset.Null() if the vector
// is empty). The self-allocated byte is always written cleared: spec.md
// §4.4 requires the engine to emit every container with that flag clear,
// since a container read back out of a buffer never owns its storage,
// regardless of whether the in-memory Vector being encoded currently does.
func (v *Vector) Meta(dataPtr offset.Ptr, bigEndian bool) []byte {
	out := make([]byte, VectorMetaSize)
	putPtr(out[0:8], dataPtr, bigEndian)
	putU64(out[8:16], uint64(v.used), bigEndian)
	putU64(out[16:24], uint64(v.Cap()), bigEndian)
	return out
}

// DecodeVectorMeta reads back a VectorMetaSize-byte record written by Meta.
func DecodeVectorMeta(b []byte, bigEndian bool) (dataPtr offset.Ptr, used, allocated uint64, selfAllocated bool) {
	dataPtr = getPtr(b[0:8], bigEndian)
	used = getU64(b[8:16], bigEndian)
	allocated = getU64(b[16:24], bigEndian)
	selfAllocated = b[24] != 0
	return
}

// PutPtr writes p as an 8-byte offset field, for callers outside this
// package (the engine and verify packages) building records that embed the
// same fixed metadata shapes as Vector/HashMap/Box/SmallString.
func PutPtr(b []byte, p offset.Ptr, bigEndian bool) { putPtr(b, p, bigEndian) }

// GetPtr is the inverse of PutPtr.
func GetPtr(b []byte, bigEndian bool) offset.Ptr { return getPtr(b, bigEndian) }

// PutU64 writes v as an 8-byte unsigned field.
func PutU64(b []byte, v uint64, bigEndian bool) { putU64(b, v, bigEndian) }

// GetU64 is the inverse of PutU64.
func GetU64(b []byte, bigEndian bool) uint64 { return getU64(b, bigEndian) }

func putPtr(b []byte, p offset.Ptr, bigEndian bool) {
	if bigEndian {
		buf.PutI64BE(b, p.Int64())
	} else {
		buf.PutI64LE(b, p.Int64())
	}
}

func getPtr(b []byte, bigEndian bool) offset.Ptr {
	if bigEndian {
		return offset.FromInt64(buf.I64BE(b))
	}
	return offset.FromInt64(buf.I64LE(b))
}

func putU64(b []byte, v uint64, bigEndian bool) {
	if bigEndian {
		buf.PutU64BE(b, v)
	} else {
		buf.PutU64LE(b, v)
	}
}

func getU64(b []byte, bigEndian bool) uint64 {
	if bigEndian {
		return buf.U64BE(b)
	}
	return buf.U64LE(b)
}
