package sink

// Buffer is an in-memory contiguous sink, the default target for building a
// serialized graph before it is written to a file or handed to a caller
// directly (e.g. for the round-trip tests in spec.md §8).
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty in-memory sink.
func NewBuffer() *Buffer { return &Buffer{} }

// Bytes returns the current contents. The slice is invalidated by the next
// mutating call.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Size() int64 { return int64(len(b.data)) }

func (b *Buffer) WriteAt(offset int64, p []byte) error {
	end := offset + int64(len(p))
	if offset < 0 || end > b.Size() {
		return errOutOfRange(offset, int64(len(p)), b.Size())
	}
	copy(b.data[offset:end], p)
	return nil
}

func (b *Buffer) Append(p []byte, align int) (int64, error) {
	if pad := padLen(b.Size(), align); pad > 0 {
		b.data = append(b.data, make([]byte, pad)...)
	}
	start := b.Size()
	b.data = append(b.data, p...)
	return start, nil
}

func (b *Buffer) Checksum(from int64) uint64 {
	if from < 0 {
		from = 0
	}
	if from > b.Size() {
		return FNV1a64(nil)
	}
	return FNV1a64(b.data[from:])
}
