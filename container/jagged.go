package container

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/internal/buf"
)

// Jagged is the N-deep nested array (spec.md §3.6): a flat leaf payload
// vector plus one prefix-sum index vector per nesting depth, CSR-style.
// index[d][g] is the running total of children contributed by groups
// 0..g-1 at depth d, so group g's children occupy
// index[d][g]..index[d][g+1] of depth d+1 (or of the payload, for the
// deepest index level). This is how a variable-arity "array of arrays of
// arrays" is addressed with two flat allocations per level instead of a
// pointer chain, grounded on hive/subkeys' LF/LH/LI list-index layout.
type Jagged struct {
	depth   int
	stride  int
	payload *Vector
	index   [][]uint64
}

// NewJagged creates an empty jagged array of the given nesting depth, whose
// leaf elements are elemStride bytes wide.
func NewJagged(depth, elemStride int) *Jagged {
	if depth < 1 {
		depth = 1
	}
	idx := make([][]uint64, depth)
	for d := range idx {
		idx[d] = []uint64{0}
	}
	return &Jagged{depth: depth, stride: elemStride, payload: NewVector(elemStride), index: idx}
}

// Depth returns the nesting depth.
func (j *Jagged) Depth() int { return j.depth }

// AddGroup records that the next group at the given depth contains
// childCount children (leaf elements if depth is the deepest level,
// otherwise child groups at depth+1), returning the new group's index.
func (j *Jagged) AddGroup(depth, childCount int) (int, error) {
	if depth < 0 || depth >= j.depth {
		return 0, fmt.Errorf("zcerr: jagged depth %d out of range [0,%d)", depth, j.depth)
	}
	idx := j.index[depth]
	last := idx[len(idx)-1]
	j.index[depth] = append(idx, last+uint64(childCount))
	return len(idx) - 1, nil
}

// AppendLeaf pushes one stride-wide leaf element onto the flat payload.
func (j *Jagged) AppendLeaf(elem []byte) error { return j.payload.Push(elem) }

// Payload returns the flat leaf vector.
func (j *Jagged) Payload() *Vector { return j.payload }

// IndexLevels returns the raw index vectors, outermost first.
func (j *Jagged) IndexLevels() [][]uint64 { return j.index }

// Validate checks invariants I7 (index vectors are non-decreasing) and I8
// (each level's final running total equals the next level's group count,
// and the deepest level's final total equals the payload length).
func (j *Jagged) Validate() error {
	for d, idx := range j.index {
		for i := 1; i < len(idx); i++ {
			if idx[i] < idx[i-1] {
				return fmt.Errorf("zcerr: jagged index at depth %d is not monotonic at position %d", d, i)
			}
		}
		last := idx[len(idx)-1]
		if d == j.depth-1 {
			if last != uint64(j.payload.Len()) {
				return fmt.Errorf("zcerr: jagged depth %d final index %d does not match payload length %d", d, last, j.payload.Len())
			}
			continue
		}
		childGroups := uint64(len(j.index[d+1]) - 1)
		if last != childGroups {
			return fmt.Errorf("zcerr: jagged depth %d final index %d does not match depth %d group count %d", d, last, d+1, childGroups)
		}
	}
	return nil
}

// EncodeIndexLevel returns the little/big-endian uint64 byte encoding of
// one index level, suitable for appending as a Vector[uint64] out-of-line
// region.
func EncodeIndexLevel(idx []uint64, bigEndian bool) []byte {
	out := make([]byte, len(idx)*8)
	for i, v := range idx {
		if bigEndian {
			buf.PutU64BE(out[i*8:i*8+8], v)
		} else {
			buf.PutU64LE(out[i*8:i*8+8], v)
		}
	}
	return out
}

// DecodeIndexLevel is the inverse of EncodeIndexLevel.
func DecodeIndexLevel(b []byte, bigEndian bool) []uint64 {
	n := len(b) / 8
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		if bigEndian {
			out[i] = buf.U64BE(b[i*8 : i*8+8])
		} else {
			out[i] = buf.U64LE(b[i*8 : i*8+8])
		}
	}
	return out
}
