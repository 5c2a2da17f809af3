package container

import (
	"strings"
	"testing"

	"github.com/offsetgraph/zerocopy/offset"
)

func TestSmallStringInlineBoundary(t *testing.T) {
	for _, n := range []int{0, 1, 14, 15} {
		s := NewSmallString(strings.Repeat("x", n))
		if !s.IsInline() {
			t.Fatalf("length %d must be inline", n)
		}
		enc := s.Encode(offset.Null(), false)
		inline, _, _, isHeap, err := DecodeSmallString(enc, false)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if isHeap {
			t.Fatalf("length %d decoded as heap variant", n)
		}
		if inline != s.String() {
			t.Fatalf("length %d round trip: got %q, want %q", n, inline, s.String())
		}
	}
}

func TestSmallStringHeapBoundary(t *testing.T) {
	s := NewSmallString(strings.Repeat("y", 16))
	if s.IsInline() {
		t.Fatal("length 16 must spill to the heap variant")
	}
	enc := s.Encode(offset.Relative(40, 64), false)
	_, dataPtr, heapLen, isHeap, err := DecodeSmallString(enc, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !isHeap {
		t.Fatal("length 16 must decode as heap variant")
	}
	if heapLen != 16 {
		t.Fatalf("heapLen = %d, want 16", heapLen)
	}
	if dataPtr.Target(40) != 64 {
		t.Fatalf("dataPtr resolves to %d, want 64", dataPtr.Target(40))
	}
}

// TestSmallStringDiscriminatorStoresRemainingCapacity is spec.md §8
// scenario 3: the inline discriminator byte is remaining capacity, not
// length, so a 14-byte string leaves 1 byte of capacity and a 15-byte
// string leaves 0.
func TestSmallStringDiscriminatorStoresRemainingCapacity(t *testing.T) {
	for n, wantRemaining := range map[int]byte{14: 1, 15: 0} {
		enc := NewSmallString(strings.Repeat("x", n)).Encode(offset.Null(), false)
		if got := enc[SmallStringSize-1]; got != wantRemaining {
			t.Fatalf("length %d: discriminator byte = %d, want remaining capacity %d", n, got, wantRemaining)
		}
	}
}

func TestSmallStringRecordSize(t *testing.T) {
	inline := NewSmallString("hi").Encode(offset.Null(), false)
	heap := NewSmallString(strings.Repeat("z", 100)).Encode(offset.Null(), false)
	if len(inline) != SmallStringSize || len(heap) != SmallStringSize {
		t.Fatalf("both variants must encode to %d bytes, got %d and %d", SmallStringSize, len(inline), len(heap))
	}
}
