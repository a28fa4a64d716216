package storage_test

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/momentics/hioload-evpool/internal/storage"
)

func TestRegion_AllocRelease(t *testing.T) {
	r := storage.Alloc(100*128, 64, false)
	b := r.Bytes()
	if len(b) != 100*128 {
		t.Fatalf("len: want %d, got %d", 100*128, len(b))
	}
	if addr := uintptr(unsafe.Pointer(&b[0])); addr%64 != 0 {
		t.Errorf("arena not 64-byte aligned: %#x", addr)
	}
	if runtime.GOOS == "linux" && !r.Mapped() {
		t.Log("anonymous mapping unavailable, heap fallback in use")
	}
	b[0], b[len(b)-1] = 0xAA, 0x55
	if err := r.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if r.Bytes() != nil {
		t.Error("Bytes not cleared after Release")
	}
	if err := r.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestRegion_HugePageFallback(t *testing.T) {
	r := storage.Alloc(4096, 0, true)
	defer r.Release()
	if len(r.Bytes()) != 4096 {
		t.Fatalf("len: want 4096, got %d", len(r.Bytes()))
	}
	t.Log("mapped:", r.Mapped(), "hugepage:", r.HugePage())
}

func TestRegion_Empty(t *testing.T) {
	r := storage.Alloc(0, 0, false)
	if r.Bytes() != nil {
		t.Error("zero-size arena has bytes")
	}
	if err := r.Release(); err != nil {
		t.Error(err)
	}
}

func TestStride(t *testing.T) {
	if s := storage.Stride(100, 0); s != 100 {
		t.Errorf("Stride(100,0) = %d", s)
	}
	if s := storage.Stride(100, 64); s != 128 {
		t.Errorf("Stride(100,64) = %d", s)
	}
	if s := storage.Stride(128, 64); s != 128 {
		t.Errorf("Stride(128,64) = %d", s)
	}
}
