//go:build !unix && !windows

package mmio

import (
	"errors"
	"os"
)

// readAllFile is the non-mmap fallback: it loads/stores the whole file in a
// plain heap buffer and writes it back on Close or Sync. Correct but not
// zero-copy with the OS page cache; used only on platforms lacking a mapped
// I/O syscall in this module's build matrix.
type readAllFile struct {
	path string
	mode Mode
	data []byte
}

// Map reads path fully into memory. In ReadWrite mode a missing file is
// treated as empty and the buffer is zero-padded up to minSize; a longer
// file keeps its full length.
func Map(path string, mode Mode, minSize int64) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mode == ReadWrite && os.IsNotExist(err) {
			data = nil
		} else {
			return nil, err
		}
	}
	rf := &readAllFile{path: path, mode: mode, data: data}
	if mode == ReadWrite && int64(len(rf.data)) < minSize {
		rf.data = append(rf.data, make([]byte, minSize-int64(len(rf.data)))...)
	}
	return rf, nil
}

func (r *readAllFile) Data() []byte { return r.data }

func (r *readAllFile) Size() int64 { return int64(len(r.data)) }

func (r *readAllFile) Resize(newSize int64) error {
	if r.mode != ReadWrite {
		return errors.New("mmio: Resize requires ReadWrite mode")
	}
	switch {
	case newSize < int64(len(r.data)):
		r.data = r.data[:newSize]
	case newSize > int64(len(r.data)):
		r.data = append(r.data, make([]byte, newSize-int64(len(r.data)))...)
	}
	return nil
}

func (r *readAllFile) Sync() error {
	if r.mode != ReadWrite {
		return nil
	}
	return os.WriteFile(r.path, r.data, 0o644)
}

func (r *readAllFile) Close() error {
	return r.Sync()
}
