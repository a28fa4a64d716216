// Package storage provides the backing memory arenas of buffer and packet pools.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// On Linux arenas are anonymous private mappings, optionally on 2 MiB huge
// pages; elsewhere, or when mapping fails, they come from the Go heap.

package storage

import (
	"sync"
	"unsafe"
)

const hugePageSize = 2 << 20

// Region is one contiguous arena.
type Region struct {
	mu       sync.Mutex
	raw      []byte // full allocation, handed back on Release
	data     []byte // aligned view of the requested size
	mapped   bool
	hugePage bool
}

// Alloc reserves size bytes whose start address is aligned to align
// (a power of two, 0 or 1 for none). huge requests huge-page backing.
func Alloc(size, align int, huge bool) *Region {
	if size <= 0 {
		return &Region{}
	}
	if align < 1 {
		align = 1
	}
	if raw, hp, ok := mapRegion(size, huge); ok {
		// mappings are page aligned, which covers every supported alignment
		return &Region{raw: raw, data: raw[:size], mapped: true, hugePage: hp}
	}
	raw := make([]byte, size+align-1)
	off := alignOffset(raw, align)
	return &Region{raw: raw, data: raw[off : off+size]}
}

func alignOffset(b []byte, align int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	rem := int(addr & uintptr(align-1))
	if rem == 0 {
		return 0
	}
	return align - rem
}

// Bytes returns the aligned arena. It is nil after Release.
func (r *Region) Bytes() []byte {
	return r.data
}

// Mapped reports whether the arena is an anonymous mapping.
func (r *Region) Mapped() bool { return r.mapped }

// HugePage reports whether the arena sits on huge pages.
func (r *Region) HugePage() bool { return r.hugePage }

// Release returns the arena to the OS. Slices obtained from Bytes must not be
// used afterwards. Release is idempotent.
func (r *Region) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raw == nil {
		return nil
	}
	var err error
	if r.mapped {
		err = unmapRegion(r.raw)
	}
	r.raw, r.data = nil, nil
	return err
}

// Stride rounds objSize up to align.
func Stride(objSize, align int) int {
	if align <= 1 {
		return objSize
	}
	return (objSize + align - 1) &^ (align - 1)
}
