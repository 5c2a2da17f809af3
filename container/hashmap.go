package container

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/offset"
	"github.com/offsetgraph/zerocopy/zcerr"
)

// Swiss-table control byte values (spec.md §3.5 / §4.6). Full slots store
// the 7-bit H2 hash with the top bit clear; the two sentinels both set the
// top bit so a single "is this slot occupied" test is one comparison.
const (
	ctrlEmpty   byte = 0x80
	ctrlDeleted byte = 0xFE
	h2Mask      byte = 0x7F

	// GroupWidth is the probe group size (spec.md §4.6).
	GroupWidth = 8

	maxLoadNumerator   = 7
	maxLoadDenominator = 8
)

// HashMap is the swiss-style open-addressed hash table (spec.md §3.5): one
// contiguous allocation holding Capacity fixed-stride entry slots followed
// by Capacity control bytes, probed in groups of GroupWidth with
// triangular group-sequence probing. Keys and values are opaque
// fixed-width byte strings; the engine is responsible for encoding
// arbitrary Go key/value types into those fixed widths before calling
// Insert, exactly as it does for Vector elements.
type HashMap struct {
	entries       []byte
	control       []byte
	keyWidth      int
	valWidth      int
	count         int
	selfAllocated bool
}

// NewHashMap creates an empty, self-allocated table for the given key and
// value widths.
func NewHashMap(keyWidth, valWidth int) *HashMap {
	h := &HashMap{keyWidth: keyWidth, valWidth: valWidth, selfAllocated: true}
	h.resize(GroupWidth)
	return h
}

// NewHashMapSized creates an empty table pre-sized so that expectedCount
// entries can be inserted without ever growing, used by the engine when
// building a table from a source whose final size is already known (a Go
// map): growth would otherwise relocate entries already appended
// out-of-line for earlier keys/values, invalidating any self-relative
// pointer inside them.
func NewHashMapSized(keyWidth, valWidth, expectedCount int) *HashMap {
	h := &HashMap{keyWidth: keyWidth, valWidth: valWidth, selfAllocated: true}
	// Double the entry count rather than computing the tight load-factor
	// bound: the sized constructor's whole purpose is to guarantee Insert
	// never triggers grow(), so generous headroom is cheaper than an
	// off-by-one that relocates already-appended out-of-line payloads.
	needed := expectedCount*2 + GroupWidth
	h.resize(needed)
	return h
}

// BorrowHashMap wraps a combined entries+control region already validated
// by the verify package, without copying.
func BorrowHashMap(entries, control []byte, keyWidth, valWidth, count int) *HashMap {
	return &HashMap{entries: entries, control: control, keyWidth: keyWidth, valWidth: valWidth, count: count}
}

func (h *HashMap) stride() int { return h.keyWidth + h.valWidth }

// Capacity returns the number of slots.
func (h *HashMap) Capacity() int { return len(h.control) }

// Len returns the number of live entries.
func (h *HashMap) Len() int { return h.count }

func (h *HashMap) slot(i int) (key, val []byte) {
	off := i * h.stride()
	key = h.entries[off : off+h.keyWidth]
	val = h.entries[off+h.keyWidth : off+h.stride()]
	return
}

func occupied(c byte) bool { return c&0x80 == 0 }

// hash64 is FNV-1a over raw key bytes, matching the checksum algorithm used
// throughout this module for "a 64-bit hash" (spec.md §4.6 leaves the hash
// function unspecified beyond its H1/H2 split).
func hash64(key []byte) uint64 {
	h := uint64(14695981039346656037)
	for _, b := range key {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}

func h1(h uint64) uint64 { return h >> 7 }
func h2(h uint64) byte   { return byte(h & uint64(h2Mask)) }

// probeGroup returns the g'th group index to probe, starting from start,
// using triangular group-sequence probing so every group is visited
// exactly once before the sequence repeats (spec.md §4.6). That holds
// because numGroups is always a power of two: resize only produces
// power-of-two capacities of at least GroupWidth.
func probeGroup(start, g, numGroups uint64) uint64 {
	return (start + g*(g+1)/2) % numGroups
}

// Insert adds or overwrites the entry for key. It returns
// ErrOwnershipViolation if the map is borrowed.
func (h *HashMap) Insert(key, val []byte) error {
	if !h.selfAllocated {
		return fmt.Errorf("%w: cannot mutate a borrowed hash table", zcerr.ErrOwnershipViolation)
	}
	if len(key) != h.keyWidth || len(val) != h.valWidth {
		return fmt.Errorf("zcerr: key/value width mismatch")
	}
	if (h.count+1)*maxLoadDenominator > h.Capacity()*maxLoadNumerator {
		h.grow()
	}
	hash := hash64(key)
	idx, found := h.find(key, hash)
	if !found {
		idx = h.firstEmptyOrDeleted(hash)
		h.count++
	}
	h.control[idx] = h2(hash)
	k, v := h.slot(idx)
	copy(k, key)
	copy(v, val)
	return nil
}

// InsertUnique places key/val using an externally computed hash, without
// checking whether key already occupies a slot. It never grows the table
// (the caller is expected to have sized it with NewHashMapSized), and it
// panics rather than silently growing, because growth after the caller has
// started appending out-of-line payloads for earlier entries would move
// this table's slots and invalidate any self-relative pointer those
// payloads already reference.
//
// This is the path the serialization engine uses to build a table from a
// Go map: key uniqueness is already guaranteed by Go's map semantics, and
// hash is computed over the live key value rather than its encoded bytes,
// because two equal keys can encode to different bytes when they embed a
// self-relative pointer (its value depends on where the key itself ends up
// stored).
//
// It returns the byte offset within EntriesAndControl() at which this
// entry's key starts (key at entryOffset, value at entryOffset+keyWidth),
// so the engine can resolve any out-of-line field inside that key/value
// once the table's final position in the sink is known.
func (h *HashMap) InsertUnique(hash uint64, key, val []byte) (entryOffset int, err error) {
	if !h.selfAllocated {
		return 0, fmt.Errorf("%w: cannot mutate a borrowed hash table", zcerr.ErrOwnershipViolation)
	}
	if len(key) != h.keyWidth || len(val) != h.valWidth {
		return 0, fmt.Errorf("zcerr: key/value width mismatch")
	}
	if (h.count+1)*maxLoadDenominator > h.Capacity()*maxLoadNumerator {
		panic("container: InsertUnique would grow a pre-sized hash table")
	}
	idx := h.firstEmptyOrDeleted(hash)
	h.count++
	h.control[idx] = h2(hash)
	k, v := h.slot(idx)
	copy(k, key)
	copy(v, val)
	return idx * h.stride(), nil
}

// Lookup returns the value for key and whether it was found.
func (h *HashMap) Lookup(key []byte) ([]byte, bool) {
	hash := hash64(key)
	idx, found := h.find(key, hash)
	if !found {
		return nil, false
	}
	_, v := h.slot(idx)
	return v, true
}

// Delete removes key's entry if present, tombstoning its slot.
func (h *HashMap) Delete(key []byte) error {
	if !h.selfAllocated {
		return fmt.Errorf("%w: cannot mutate a borrowed hash table", zcerr.ErrOwnershipViolation)
	}
	hash := hash64(key)
	idx, found := h.find(key, hash)
	if !found {
		return nil
	}
	h.control[idx] = ctrlDeleted
	h.count--
	return nil
}

func (h *HashMap) numGroups() uint64 { return uint64(h.Capacity() / GroupWidth) }

func (h *HashMap) find(key []byte, hash uint64) (idx int, found bool) {
	numGroups := h.numGroups()
	if numGroups == 0 {
		return 0, false
	}
	start := h1(hash) % numGroups
	want := h2(hash)
	for g := uint64(0); g < numGroups; g++ {
		group := probeGroup(start, g, numGroups)
		base := int(group) * GroupWidth
		sawEmpty := false
		for i := 0; i < GroupWidth; i++ {
			c := h.control[base+i]
			if c == ctrlEmpty {
				sawEmpty = true
				continue
			}
			if c == ctrlDeleted {
				continue
			}
			if c == want {
				k, _ := h.slot(base + i)
				if string(k) == string(key) {
					return base + i, true
				}
			}
		}
		if sawEmpty {
			break
		}
	}
	return 0, false
}

func (h *HashMap) firstEmptyOrDeleted(hash uint64) int {
	numGroups := h.numGroups()
	start := h1(hash) % numGroups
	for g := uint64(0); g < numGroups; g++ {
		group := probeGroup(start, g, numGroups)
		base := int(group) * GroupWidth
		for i := 0; i < GroupWidth; i++ {
			c := h.control[base+i]
			if c == ctrlEmpty || c == ctrlDeleted {
				return base + i
			}
		}
	}
	// Unreachable under the maintained load-factor invariant (spec.md I3).
	panic("container: hash table probe exhausted capacity without finding a slot")
}

func (h *HashMap) resize(newCapacity int) {
	if newCapacity < GroupWidth {
		newCapacity = GroupWidth
	}
	newCapacity = NextPow2(newCapacity)
	if newCapacity%GroupWidth != 0 {
		newCapacity = ((newCapacity / GroupWidth) + 1) * GroupWidth
	}
	old := *h
	h.entries = make([]byte, newCapacity*h.stride())
	h.control = make([]byte, newCapacity)
	for i := range h.control {
		h.control[i] = ctrlEmpty
	}
	h.count = 0
	h.selfAllocated = true
	for i, c := range old.control {
		if occupied(c) {
			off := i * old.stride()
			k := old.entries[off : off+old.keyWidth]
			v := old.entries[off+old.keyWidth : off+old.stride()]
			_ = h.Insert(k, v)
		}
	}
}

func (h *HashMap) grow() { h.resize(h.Capacity() * 2) }

// EntriesAndControl returns the combined out-of-line payload region this
// map appends: entry slots first, then one control byte per slot, matching
// the single-pointer wire layout of spec.md §3.5.
func (h *HashMap) EntriesAndControl() []byte {
	out := make([]byte, len(h.entries)+len(h.control))
	copy(out, h.entries)
	copy(out[len(h.entries):], h.control)
	return out
}

// Meta encodes the fixed HashMapMetaSize-byte metadata record. dataPtr is
// the already-computed self-relative pointer to the appended
// entries+control region (offset.Null() if the capacity is zero, which
// never happens for a live HashMap since NewHashMap always allocates at
// least one group). The self-allocated byte is always written cleared, per
// spec.md §4.4: a hash table read back out of a buffer never owns its
// storage, regardless of the in-memory HashMap's own ownership state.
func (h *HashMap) Meta(dataPtr offset.Ptr, bigEndian bool) []byte {
	out := make([]byte, HashMapMetaSize)
	putPtr(out[0:8], dataPtr, bigEndian)
	putU64(out[8:16], uint64(h.Capacity()), bigEndian)
	putU64(out[16:24], uint64(h.count), bigEndian)
	return out
}

// DecodeHashMapMeta reads back a HashMapMetaSize-byte record written by
// Meta.
func DecodeHashMapMeta(b []byte, bigEndian bool) (dataPtr offset.Ptr, capacity, count uint64, selfAllocated bool) {
	dataPtr = getPtr(b[0:8], bigEndian)
	capacity = getU64(b[8:16], bigEndian)
	count = getU64(b[16:24], bigEndian)
	selfAllocated = b[24] != 0
	return
}
