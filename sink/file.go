package sink

import (
	"fmt"
	"os"

	"github.com/offsetgraph/zerocopy/zcerr"
)

// File is a sink backed by positional writes to an *os.File, growing the
// file as data is appended. It mirrors the teacher's FileWriter atomic
// temp-file-plus-rename discipline at Finish time rather than writing
// directly to the final path while the buffer is still incomplete.
type File struct {
	tmp      *os.File
	finalPath string
	size     int64
}

// CreateFile opens a temp file alongside finalPath for writing. Call Finish
// to atomically rename it into place, or Abort to discard it.
func CreateFile(finalPath string) (*File, error) {
	dir := finalPath
	if idx := lastSlash(finalPath); idx >= 0 {
		dir = finalPath[:idx]
	} else {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".zerocopy-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", zcerr.ErrIOFailure, err)
	}
	return &File{tmp: tmp, finalPath: finalPath}, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func (f *File) Size() int64 { return f.size }

func (f *File) WriteAt(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > f.size {
		return errOutOfRange(offset, int64(len(p)), f.size)
	}
	if _, err := f.tmp.WriteAt(p, offset); err != nil {
		return fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	return nil
}

func (f *File) Append(p []byte, align int) (int64, error) {
	if pad := padLen(f.size, align); pad > 0 {
		if _, err := f.tmp.WriteAt(make([]byte, pad), f.size); err != nil {
			return 0, fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
		}
		f.size += int64(pad)
	}
	start := f.size
	if _, err := f.tmp.WriteAt(p, start); err != nil {
		return 0, fmt.Errorf("%w: %v", zcerr.ErrIOFailure, err)
	}
	f.size += int64(len(p))
	return start, nil
}

// Checksum reads back [from, Size()) to compute the digest. For very large
// sinks a streaming FNV-1a pass would be preferable; this mirrors the
// simplicity of Buffer.Checksum since framing checksums are computed once,
// at the end of serialization.
func (f *File) Checksum(from int64) uint64 {
	if from < 0 {
		from = 0
	}
	n := f.size - from
	if n <= 0 {
		return FNV1a64(nil)
	}
	buf := make([]byte, n)
	if _, err := f.tmp.ReadAt(buf, from); err != nil {
		return 0
	}
	return FNV1a64(buf)
}

// Finish syncs and atomically renames the temp file to finalPath.
func (f *File) Finish() error {
	if err := f.tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", zcerr.ErrIOFailure, err)
	}
	name := f.tmp.Name()
	if err := f.tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", zcerr.ErrIOFailure, err)
	}
	if err := os.Rename(name, f.finalPath); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: rename: %v", zcerr.ErrIOFailure, err)
	}
	return nil
}

// Abort closes and discards the temp file without touching finalPath.
func (f *File) Abort() error {
	name := f.tmp.Name()
	_ = f.tmp.Close()
	return os.Remove(name)
}
