package sink

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/internal/mmio"
	"github.com/offsetgraph/zerocopy/zcerr"
)

// growthFactor controls how aggressively Mapped grows its backing file when
// Append needs more room than is currently mapped, amortizing the cost of
// unmap/truncate/remap cycles.
const growthFactor = 2

// Mapped is a sink backed by a memory-mapped file (C9); it doubles as the
// read-time source once serialization finishes, since the mapping can be
// reopened ReadOnly and handed to verify.Deserialize directly.
type Mapped struct {
	f    mmio.File
	size int64 // logical size; may be < f.Size() while over-allocated
}

// CreateMapped maps path for read-write access with an initial capacity
// hint, growing on demand as Append requires.
func CreateMapped(path string, initialCapacity int64) (*Mapped, error) {
	if initialCapacity <= 0 {
		initialCapacity = 4096
	}
	f, err := mmio.Map(path, mmio.ReadWrite, initialCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	return &Mapped{f: f}, nil
}

func (m *Mapped) Size() int64 { return m.size }

func (m *Mapped) WriteAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > m.size {
		return errOutOfRange(offset, int64(len(p)), m.size)
	}
	copy(m.f.Data()[offset:offset+int64(len(p))], p)
	return nil
}

func (m *Mapped) Append(p []byte, align int) (int64, error) {
	pad := padLen(m.size, align)
	need := m.size + int64(pad) + int64(len(p))
	if err := m.ensureCapacity(need); err != nil {
		return 0, err
	}
	if pad > 0 {
		clear(m.f.Data()[m.size : m.size+int64(pad)])
		m.size += int64(pad)
	}
	start := m.size
	copy(m.f.Data()[start:start+int64(len(p))], p)
	m.size += int64(len(p))
	return start, nil
}

func (m *Mapped) ensureCapacity(need int64) error {
	if need <= m.f.Size() {
		return nil
	}
	newCap := m.f.Size()
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < need {
		newCap *= growthFactor
	}
	if err := m.f.Resize(newCap); err != nil {
		return fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	return nil
}

func (m *Mapped) Checksum(from int64) uint64 {
	if from < 0 {
		from = 0
	}
	if from > m.size {
		return FNV1a64(nil)
	}
	return FNV1a64(m.f.Data()[from:m.size])
}

// Finish truncates the mapping down to the logical size (dropping
// over-allocated growth headroom) and syncs it to disk.
func (m *Mapped) Finish() error {
	if err := m.f.Resize(m.size); err != nil {
		return fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	if err := m.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	return nil
}

// Close releases the mapping without truncating; callers that already
// called Finish should still Close to release OS resources.
func (m *Mapped) Close() error {
	return m.f.Close()
}
