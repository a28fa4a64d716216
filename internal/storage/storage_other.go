//go:build !linux

// File: internal/storage/storage_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package storage

// Non-Linux platforms use the Go heap.
func mapRegion(int, bool) ([]byte, bool, bool) { return nil, false, false }

func unmapRegion([]byte) error { return nil }
