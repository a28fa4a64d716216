//go:build linux

// File: internal/storage/storage_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package storage

import "golang.org/x/sys/unix"

// mapRegion maps size bytes anonymously. Huge pages are tried first when
// requested; the kernel refuses them when none are reserved.
func mapRegion(size int, huge bool) ([]byte, bool, bool) {
	const prot = unix.PROT_READ | unix.PROT_WRITE
	const flags = unix.MAP_ANONYMOUS | unix.MAP_PRIVATE
	if huge {
		length := ((size + hugePageSize - 1) / hugePageSize) * hugePageSize
		if b, err := unix.Mmap(-1, 0, length, prot, flags|unix.MAP_HUGETLB); err == nil {
			return b, true, true
		}
	}
	b, err := unix.Mmap(-1, 0, size, prot, flags)
	if err != nil {
		return nil, false, false
	}
	return b, false, true
}

func unmapRegion(b []byte) error {
	return unix.Munmap(b)
}
