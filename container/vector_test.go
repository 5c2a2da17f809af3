package container

import (
	"encoding/binary"
	"testing"

	"github.com/offsetgraph/zerocopy/offset"
)

func TestVectorPushGrowsByPowerOfTwo(t *testing.T) {
	v := NewVector(4)
	for i := uint32(0); i < 10; i++ {
		elem := make([]byte, 4)
		binary.LittleEndian.PutUint32(elem, i)
		if err := v.Push(elem); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if v.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", v.Len())
	}
	if v.Cap()&(v.Cap()-1) != 0 {
		t.Fatalf("Cap() = %d is not a power of two", v.Cap())
	}
	for i := uint32(0); i < 10; i++ {
		got := binary.LittleEndian.Uint32(v.At(int(i)))
		if got != i {
			t.Fatalf("At(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestVectorMetaRoundTrip(t *testing.T) {
	v := NewVector(8)
	_ = v.Push(make([]byte, 8))
	dataPtr := offset.Relative(100, 200)
	meta := v.Meta(dataPtr, false)
	if len(meta) != VectorMetaSize {
		t.Fatalf("Meta() length = %d, want %d", len(meta), VectorMetaSize)
	}
	gotPtr, used, allocated, selfAlloc := DecodeVectorMeta(meta, false)
	if gotPtr != dataPtr || used != 1 || allocated != uint64(v.Cap()) || selfAlloc {
		t.Fatalf("round trip mismatch: ptr=%v used=%d allocated=%d self=%v", gotPtr, used, allocated, selfAlloc)
	}
}

// TestVectorMetaAlwaysClearsSelfAllocated is spec.md §4.4's ownership
// guarantee: a serialized record always reports borrowed storage, even
// when the in-memory Vector being encoded currently owns its own bytes.
func TestVectorMetaAlwaysClearsSelfAllocated(t *testing.T) {
	v := NewVector(4)
	_ = v.Push(make([]byte, 4))
	if !v.SelfAllocated() {
		t.Fatal("a freshly pushed-to Vector should be self-allocated in memory")
	}
	_, _, _, selfAlloc := DecodeVectorMeta(v.Meta(offset.Null(), false), false)
	if selfAlloc {
		t.Fatal("Meta() must clear the self-allocated byte regardless of the in-memory flag")
	}
}

func TestVectorBorrowedIsReadOnly(t *testing.T) {
	v := BorrowVector(make([]byte, 16), 2, 8)
	if err := v.Push(make([]byte, 8)); err == nil {
		t.Fatal("Push on a borrowed vector must fail")
	}
}

func TestVectorElementWidthMismatchRejected(t *testing.T) {
	v := NewVector(4)
	if err := v.Push(make([]byte, 8)); err == nil {
		t.Fatal("Push with wrong element width must fail")
	}
}
