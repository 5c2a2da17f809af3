// Package mmio provides the OS-neutral resizable memory-mapped file used as
// the default sink/source for the serialization engine (spec component C9).
package mmio

// Mode selects how a File is mapped.
type Mode int

const (
	// ReadOnly maps the file for reading only; Resize is rejected.
	ReadOnly Mode = iota
	// ReadWrite maps the file for reading and writing; Resize remaps.
	ReadWrite
)

// File is a memory-mapped view over a file on disk. Resize is supported only
// in ReadWrite mode, per spec.md §4.8; it unmaps, truncates or extends the
// underlying file, and remaps. Close syncs and, in ReadWrite mode, truncates
// the file to the size last requested via Resize.
type File interface {
	// Data returns the current mapped view. The slice is invalidated by the
	// next call to Resize.
	Data() []byte
	// Size returns the current mapped length.
	Size() int64
	// Resize changes the mapped length, remapping as needed. Only valid in
	// ReadWrite mode.
	Resize(newSize int64) error
	// Sync flushes dirty pages to the backing file.
	Sync() error
	// Close syncs and releases the mapping.
	Close() error
}
