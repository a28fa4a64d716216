// File: pool/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timeout allocator: fixed-layout timer completion objects.

package pool

import "github.com/momentics/hioload-evpool/api"

// Timeout is a handle to one timeout object. TimeoutInvalid is its zero value.
type Timeout struct {
	h handle
}

// TimeoutInvalid denotes no timeout.
var TimeoutInvalid = Timeout{}

// AllocTimeout draws one timeout. Tick and user pointer start cleared.
func (pl Pool) AllocTimeout() Timeout {
	p := pl.p
	if p == nil {
		return TimeoutInvalid
	}
	if p.kind != api.PoolTimeout {
		p.allocFails.Add(1)
		return TimeoutInvalid
	}
	h, ok := p.alloc(api.EventTimeout, api.SubtypeNone)
	if !ok {
		return TimeoutInvalid
	}
	p.tmos[h.idx] = timeoutMeta{}
	return Timeout{h: h}
}

// AllocTimeoutMulti fills out with up to len(out) timeouts and returns how many
// were allocated.
func (pl Pool) AllocTimeoutMulti(out []Timeout) int {
	for i := range out {
		t := pl.AllocTimeout()
		if t == TimeoutInvalid {
			return i
		}
		out[i] = t
	}
	return len(out)
}

// Free returns the timeout to its pool. The handle is invalid afterwards.
func (t Timeout) Free() error {
	if t.h.p == nil {
		return invalidHandleErr(errMetaOpFree)
	}
	return t.h.p.release(t.h)
}

// FreeTimeoutMulti frees every timeout in tmos.
func FreeTimeoutMulti(tmos []Timeout) error {
	var first error
	for _, t := range tmos {
		if err := t.Free(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Tick returns the expiration tick recorded by the timer.
func (t Timeout) Tick() uint64 {
	if !t.h.valid() {
		return 0
	}
	return t.h.p.tmos[t.h.idx].tick
}

// SetTick records the expiration tick.
func (t Timeout) SetTick(tick uint64) {
	if t.h.valid() {
		t.h.p.tmos[t.h.idx].tick = tick
	}
}

// UserPtr returns the user context attached to the timeout.
func (t Timeout) UserPtr() any {
	if !t.h.valid() {
		return nil
	}
	return t.h.p.tmos[t.h.idx].user
}

// SetUserPtr attaches a user context.
func (t Timeout) SetUserPtr(v any) {
	if t.h.valid() {
		t.h.p.tmos[t.h.idx].user = v
	}
}

// Pool returns the owning pool.
func (t Timeout) Pool() Pool {
	return Pool{p: t.h.p}
}

// Valid reports whether the handle still refers to a live timeout.
func (t Timeout) Valid() bool {
	return t.h.valid()
}

// ToEvent converts the timeout into an event. No allocation takes place.
func (t Timeout) ToEvent() Event {
	return Event{h: t.h}
}

// TimeoutFromEvent recovers the timeout handle of ev, or TimeoutInvalid when
// ev is not a timeout event.
func TimeoutFromEvent(ev Event) Timeout {
	if ev.h.p == nil || ev.h.p.kind != api.PoolTimeout {
		return TimeoutInvalid
	}
	return Timeout{h: ev.h}
}
