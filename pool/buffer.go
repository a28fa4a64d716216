// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer allocator: fixed-size raw byte objects.

package pool

import "github.com/momentics/hioload-evpool/api"

// Buffer is a handle to one buffer object. BufferInvalid is its zero value.
type Buffer struct {
	h handle
}

// BufferInvalid denotes no buffer.
var BufferInvalid = Buffer{}

// AllocBuffer draws one buffer. It returns BufferInvalid when the pool is
// exhausted, destroyed, or not a buffer pool.
func (pl Pool) AllocBuffer() Buffer {
	p := pl.p
	if p == nil {
		return BufferInvalid
	}
	if p.kind != api.PoolBuffer {
		p.allocFails.Add(1)
		return BufferInvalid
	}
	h, ok := p.alloc(api.EventBuffer, api.SubtypeNone)
	if !ok {
		return BufferInvalid
	}
	return Buffer{h: h}
}

// AllocBufferMulti fills out with up to len(out) buffers and returns how many
// were allocated.
func (pl Pool) AllocBufferMulti(out []Buffer) int {
	for i := range out {
		b := pl.AllocBuffer()
		if b == BufferInvalid {
			return i
		}
		out[i] = b
	}
	return len(out)
}

// Free returns the buffer to its pool. The handle is invalid afterwards.
func (b Buffer) Free() error {
	if b.h.p == nil {
		return invalidHandleErr(errMetaOpFree)
	}
	return b.h.p.release(b.h)
}

// FreeBufferMulti frees every buffer in bufs.
func FreeBufferMulti(bufs []Buffer) error {
	var first error
	for _, b := range bufs {
		if err := b.Free(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Bytes returns the buffer storage, or nil for a stale handle.
func (b Buffer) Bytes() []byte {
	if !b.h.valid() {
		return nil
	}
	return b.h.p.object(b.h.idx)
}

// Size returns the configured buffer size.
func (b Buffer) Size() int {
	if b.h.p == nil {
		return 0
	}
	return b.h.p.objSize
}

// Pool returns the owning pool.
func (b Buffer) Pool() Pool {
	return Pool{p: b.h.p}
}

// Valid reports whether the handle still refers to a live buffer.
func (b Buffer) Valid() bool {
	return b.h.valid()
}

// ToEvent converts the buffer into an event. No allocation takes place.
func (b Buffer) ToEvent() Event {
	return Event{h: b.h}
}

// BufferFromEvent recovers the buffer handle of ev, or BufferInvalid when ev
// is not a buffer event.
func BufferFromEvent(ev Event) Buffer {
	if ev.h.p == nil || ev.h.p.kind != api.PoolBuffer {
		return BufferInvalid
	}
	return Buffer{h: ev.h}
}
