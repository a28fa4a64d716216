// File: internal/freelist/locked.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mutex-guarded FIFO of slot indices. Batch release takes the lock once,
// which is what the same-pool free path relies on.

package freelist

import (
	"sync"

	"github.com/eapache/queue"
)

// Locked is a bounded FIFO backed by eapache/queue.
type Locked struct {
	mu    sync.Mutex
	q     *queue.Queue
	limit int
}

// NewLocked creates a FIFO able to hold capacity indices.
func NewLocked(capacity int) *Locked {
	if capacity < 1 {
		capacity = 1
	}
	return &Locked{q: queue.New(), limit: capacity}
}

// Enqueue adds idx; returns false if full.
func (l *Locked) Enqueue(idx uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.q.Length() >= l.limit {
		return false
	}
	l.q.Add(idx)
	return true
}

// EnqueueBatch adds as many indices as fit under a single lock.
func (l *Locked) EnqueueBatch(idx []uint32) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, i := range idx {
		if l.q.Length() >= l.limit {
			break
		}
		l.q.Add(i)
		n++
	}
	return n
}

// Dequeue removes the oldest index; ok is false if empty.
func (l *Locked) Dequeue() (uint32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.q.Length() == 0 {
		return 0, false
	}
	return l.q.Remove().(uint32), true
}

// Len returns the number of free indices.
func (l *Locked) Len() int {
	l.mu.Lock()
	n := l.q.Length()
	l.mu.Unlock()
	return n
}

// Cap returns the capacity.
func (l *Locked) Cap() int {
	return l.limit
}

var _ List = (*Locked)(nil)
