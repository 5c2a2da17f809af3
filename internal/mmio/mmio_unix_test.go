//go:build unix

package mmio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMapReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.bin")
	want := []byte{0xde, 0xad, 0xbe, 0xef, 0x42}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Map(path, ReadOnly, 0)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer f.Close()
	if string(f.Data()) != string(want) {
		t.Fatalf("Data() = %v, want %v", f.Data(), want)
	}
}

func TestMapReadWriteResize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rw.bin")
	f, err := Map(path, ReadWrite, 4096)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if f.Size() != 4096 {
		t.Fatalf("Size() = %d, want 4096", f.Size())
	}
	copy(f.Data(), []byte("hello"))
	if err := f.Resize(8192); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if f.Size() != 8192 {
		t.Fatalf("Size() after resize = %d, want 8192", f.Size())
	}
	if string(f.Data()[:5]) != "hello" {
		t.Fatalf("data not preserved across resize: %v", f.Data()[:5])
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 8192 {
		t.Fatalf("file size on disk = %d, want 8192", info.Size())
	}
}

func TestMapReadOnlyZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Map(path, ReadOnly, 0)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(f.Data()) != 0 {
		t.Fatalf("expected zero-length mapping, got %d", len(f.Data()))
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
