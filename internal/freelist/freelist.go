// Package freelist holds the slot free-lists backing each object pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A free-list stores slot indices of objects that are available for
// allocation. Capacity equals the pool size, so Enqueue fails only when every
// slot of the pool is already on the list.

package freelist

import "github.com/momentics/hioload-evpool/api"

// List is a bounded FIFO of free slot indices.
type List interface {
	api.Ring[uint32]

	// EnqueueBatch returns every index in idx to the list and reports how many
	// were accepted.
	EnqueueBatch(idx []uint32) int
}

// New builds a list of the requested kind holding capacity slots.
// FreeListDefault resolves to the lock-free ring.
func New(kind api.FreeListKind, capacity int) List {
	switch kind {
	case api.FreeListLocked:
		return NewLocked(capacity)
	default:
		return NewLockFree(capacity)
	}
}

// Fill enqueues indices [0, n) in order.
func Fill(l List, n int) {
	for i := 0; i < n; i++ {
		l.Enqueue(uint32(i))
	}
}
