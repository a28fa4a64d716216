// File: pool/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event is the type-erased view over any pool object. It carries the owning
// pool, so no registry lookup is needed to classify or free it.

package pool

import "github.com/momentics/hioload-evpool/api"

// Event is a handle to one live buffer, packet or timeout. EventInvalid is its
// zero value.
type Event struct {
	h handle
}

// EventInvalid denotes no event.
var EventInvalid = Event{}

// Type returns the coarse event type.
func (ev Event) Type() api.EventType {
	t, _ := ev.Types()
	return t
}

// Subtype returns the fine classification. Buffers and timeouts report
// SubtypeNone.
func (ev Event) Subtype() api.EventSubtype {
	_, s := ev.Types()
	return s
}

// Types returns type and subtype from a single read of the slot type word.
// A freed or stale event reports EventTypeInvalid and SubtypeNone.
func (ev Event) Types() (api.EventType, api.EventSubtype) {
	if ev.h.p == nil {
		return api.EventTypeInvalid, api.SubtypeNone
	}
	// The type word is stored before the slot goes live, so it belongs to
	// this generation if the slot is still live afterwards.
	w := ev.h.p.types(ev.h.idx)
	if !ev.h.p.isLive(ev.h.idx, ev.h.gen) {
		return api.EventTypeInvalid, api.SubtypeNone
	}
	return unpackTypes(w)
}

// Pool returns the pool the event was allocated from.
func (ev Event) Pool() Pool {
	return Pool{p: ev.h.p}
}

// Valid reports whether the event still refers to a live object.
func (ev Event) Valid() bool {
	return ev.h.valid()
}

// Free releases the underlying object to its pool, whatever its kind.
func (ev Event) Free() error {
	if ev.h.p == nil {
		return invalidHandleErr(errMetaOpFree)
	}
	return ev.h.p.release(ev.h)
}
