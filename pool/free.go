// File: pool/free.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batch free engine. Events are released in runs of consecutive same-pool
// members so each run costs one free-list batch put.

package pool

import (
	"strconv"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/momentics/hioload-evpool/api"
)

const (
	errMetaOpFreeMulti = "free_multi"
	errMetaOpFreeSP    = "free_sp"
)

var runScratch = sync.Pool{
	New: func() any {
		s := make([]handle, 0, 64)
		return &s
	},
}

// FreeMulti releases events that may come from any mix of pools and kinds in
// any order. Every element is handled independently: a bad element does not
// stop the others from being freed. The first failure is returned with the
// position of the offending element attached as metadata.
func FreeMulti(events []Event) error {
	return freeMulti(events, 0, errMetaOpFreeMulti)
}

// FreeSP releases events expected to share one pool. When they do, a single
// batch put returns them all. At the first event from another pool the rest of
// the slice is handed to FreeMulti, so the result is the same as FreeMulti in
// every case.
func FreeSP(events []Event) error {
	if len(events) == 0 {
		return nil
	}
	p := events[0].h.p
	if p == nil {
		return freeMulti(events, 0, errMetaOpFreeSP)
	}
	end := len(events)
	for i := 1; i < len(events); i++ {
		if events[i].h.p != p {
			end = i
			break
		}
	}
	first := releaseEvents(p, events[:end], 0, errMetaOpFreeSP)
	if end < len(events) {
		if err := freeMulti(events[end:], end, errMetaOpFreeSP); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// freeMulti walks events in same-pool runs. base is the position of events[0]
// in the caller's slice and is used for error metadata only.
func freeMulti(events []Event, base int, op string) error {
	var first error
	for i := 0; i < len(events); {
		p := events[i].h.p
		if p == nil {
			if first == nil {
				first = batchErr(invalidHandleErr(op), op, base+i)
			}
			i++
			continue
		}
		j := i + 1
		for j < len(events) && events[j].h.p == p {
			j++
		}
		if err := releaseEvents(p, events[i:j], base+i, op); err != nil && first == nil {
			first = err
		}
		i = j
	}
	return first
}

// releaseEvents frees a run of events owned by p. A run of one skips the
// scratch slice.
func releaseEvents(p *pool, run []Event, base int, op string) error {
	if len(run) == 1 {
		if err := p.release(run[0].h); err != nil {
			return batchErr(err, op, base)
		}
		return nil
	}
	sp := runScratch.Get().(*[]handle)
	hs := (*sp)[:0]
	for _, ev := range run {
		hs = append(hs, ev.h)
	}
	at, err := p.releaseRun(hs)
	if err != nil {
		err = batchErr(err, op, base+at)
	}
	clear(hs)
	*sp = hs[:0]
	runScratch.Put(sp)
	return err
}

func batchErr(err error, op string, index int) error {
	return errors.New(
		"free failed",
		errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(api.ErrMetaOpKey, op),
		errors.WithMeta(api.ErrMetaIndexKey, strconv.Itoa(index)),
		errors.WithWrap(err),
	)
}

// EventBatch collects events for one bulk release. It is not safe for
// concurrent use.
type EventBatch struct {
	events []Event
}

// NewEventBatch creates an empty batch with room for capacity events.
func NewEventBatch(capacity int) *EventBatch {
	return &EventBatch{events: make([]Event, 0, capacity)}
}

// Append adds ev to the batch.
func (b *EventBatch) Append(ev Event) {
	b.events = append(b.events, ev)
}

// Len returns the number of events in the batch.
func (b *EventBatch) Len() int {
	return len(b.events)
}

// Get returns the event at idx.
func (b *EventBatch) Get(idx int) Event {
	return b.events[idx]
}

// Slice returns the underlying slice.
func (b *EventBatch) Slice() []Event {
	return b.events
}

// Reset empties the batch, keeping its storage.
func (b *EventBatch) Reset() {
	clear(b.events)
	b.events = b.events[:0]
}

// Free releases every event with FreeMulti and empties the batch.
func (b *EventBatch) Free() error {
	err := FreeMulti(b.events)
	b.Reset()
	return err
}

// FreeSP releases every event with FreeSP and empties the batch.
func (b *EventBatch) FreeSP() error {
	err := FreeSP(b.events)
	b.Reset()
	return err
}

var _ api.Batch[Event] = (*EventBatch)(nil)
