// File: internal/freelist/lockfree.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC ring of slot indices (Dmitry Vyukov's sequence-number scheme).

package freelist

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type cell struct {
	sequence atomic.Uint64
	idx      uint32
}

// LockFree is a bounded MPMC queue of slot indices.
// The storage is rounded up to a power of two, Cap reports the requested
// capacity so that a pool never holds more free slots than it owns.
type LockFree struct {
	head  atomic.Uint64
	_     cpu.CacheLinePad
	tail  atomic.Uint64
	_     cpu.CacheLinePad
	count atomic.Int64
	_     cpu.CacheLinePad
	mask  uint64
	limit int
	cells []cell
}

// NewLockFree creates a ring able to hold capacity indices.
func NewLockFree(capacity int) *LockFree {
	if capacity < 1 {
		capacity = 1
	}
	size := 2
	for size < capacity {
		size <<= 1
	}
	q := &LockFree{
		mask:  uint64(size - 1),
		limit: capacity,
		cells: make([]cell, size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// Enqueue adds idx; returns false only if every cell is occupied. A cell
// whose dequeue is still in flight is waited for.
func (q *LockFree) Enqueue(idx uint32) bool {
	for {
		tail := q.tail.Load()
		c := &q.cells[tail&q.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		if dif == 0 {
			if q.tail.CompareAndSwap(tail, tail+1) {
				c.idx = idx
				c.sequence.Store(tail + 1)
				q.count.Add(1)
				return true
			}
		} else if dif < 0 {
			// The cell still holds the previous lap. It is full only when
			// no dequeuer has claimed it yet.
			if head := q.head.Load(); head <= tail && tail-head >= uint64(len(q.cells)) {
				return false
			}
			runtime.Gosched()
		}
		// tail moved, retry
	}
}

// EnqueueBatch enqueues each index in turn.
func (q *LockFree) EnqueueBatch(idx []uint32) int {
	n := 0
	for _, i := range idx {
		if !q.Enqueue(i) {
			break
		}
		n++
	}
	return n
}

// Dequeue removes the oldest index; ok is false if empty. A cell whose
// enqueue is still in flight is waited for.
func (q *LockFree) Dequeue() (idx uint32, ok bool) {
	for {
		head := q.head.Load()
		c := &q.cells[head&q.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		if dif == 0 {
			if q.head.CompareAndSwap(head, head+1) {
				idx = c.idx
				c.sequence.Store(head + q.mask + 1)
				q.count.Add(-1)
				return idx, true
			}
		} else if dif < 0 {
			// Empty unless an enqueuer has claimed the cell and not yet
			// published it.
			if tail := q.tail.Load(); tail <= head {
				return 0, false
			}
			runtime.Gosched()
		}
		// head moved, retry
	}
}

// Len returns the number of free indices. It is exact when no operation is in
// flight.
func (q *LockFree) Len() int {
	n := q.count.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Cap returns the requested capacity.
func (q *LockFree) Cap() int {
	return q.limit
}

var _ List = (*LockFree)(nil)
