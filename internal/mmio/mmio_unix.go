//go:build unix

package mmio

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// unixFile is the unix mmap-backed File implementation.
type unixFile struct {
	f    *os.File
	data []byte
	mode Mode
}

// Map opens path and maps its contents according to mode. In ReadWrite mode
// the file is created if missing and grown to at least minSize before the
// initial mapping, matching the allocator's "reserve then grow" discipline.
func Map(path string, mode Mode, minSize int64) (File, error) {
	flag := os.O_RDONLY
	prot := unix.PROT_READ
	if mode == ReadWrite {
		flag = os.O_RDWR | os.O_CREATE
		prot = unix.PROT_READ | unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	size := info.Size()
	if mode == ReadWrite && size < minSize {
		if err := f.Truncate(minSize); err != nil {
			_ = f.Close()
			return nil, err
		}
		size = minSize
	}

	uf := &unixFile{f: f, mode: mode}
	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("mmio: mmap: %w", err)
		}
		uf.data = data
	}
	return uf, nil
}

func (u *unixFile) Data() []byte { return u.data }

func (u *unixFile) Size() int64 { return int64(len(u.data)) }

func (u *unixFile) Resize(newSize int64) error {
	if u.mode != ReadWrite {
		return errors.New("mmio: Resize requires ReadWrite mode")
	}
	if err := u.unmap(); err != nil {
		return err
	}
	if err := u.f.Truncate(newSize); err != nil {
		return err
	}
	if newSize == 0 {
		u.data = nil
		return nil
	}
	data, err := unix.Mmap(int(u.f.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmio: remap: %w", err)
	}
	u.data = data
	return nil
}

func (u *unixFile) Sync() error {
	if u.data == nil {
		return nil
	}
	return unix.Msync(u.data, unix.MS_SYNC)
}

func (u *unixFile) Close() error {
	if u.mode == ReadWrite {
		if err := u.Sync(); err != nil {
			return err
		}
	}
	if err := u.unmap(); err != nil {
		return err
	}
	return u.f.Close()
}

func (u *unixFile) unmap() error {
	if u.data == nil {
		return nil
	}
	err := unix.Munmap(u.data)
	u.data = nil
	if errors.Is(err, unix.EINVAL) {
		// double-unmap is a no-op for callers
		return nil
	}
	return err
}
