// File: pool/packet.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Packet allocator: byte storage with a logical length, headroom and tailroom.

package pool

import (
	"strconv"

	"github.com/brickingsoft/errors"
	"github.com/momentics/hioload-evpool/api"
)

const errMetaOpReset = "reset"

// Packet is a handle to one packet object. PacketInvalid is its zero value.
type Packet struct {
	h handle
}

// PacketInvalid denotes no packet.
var PacketInvalid = Packet{}

// AllocPacket draws one packet of length bytes. length must not exceed the
// pool maximum. Freshly allocated packets have subtype SubtypePacketBasic.
func (pl Pool) AllocPacket(length int) Packet {
	p := pl.p
	if p == nil || p.kind != api.PoolPacket || length < 0 || length > p.maxLen {
		if p != nil {
			p.allocFails.Add(1)
		}
		return PacketInvalid
	}
	h, ok := p.alloc(api.EventPacket, api.SubtypePacketBasic)
	if !ok {
		return PacketInvalid
	}
	p.pkts[h.idx].length = length
	return Packet{h: h}
}

// AllocPacketMulti fills out with up to len(out) packets of length bytes and
// returns how many were allocated.
func (pl Pool) AllocPacketMulti(length int, out []Packet) int {
	for i := range out {
		pkt := pl.AllocPacket(length)
		if pkt == PacketInvalid {
			return i
		}
		out[i] = pkt
	}
	return len(out)
}

// Free returns the packet to its pool. The handle is invalid afterwards.
func (pk Packet) Free() error {
	if pk.h.p == nil {
		return invalidHandleErr(errMetaOpFree)
	}
	return pk.h.p.release(pk.h)
}

// FreePacketMulti frees every packet in pkts.
func FreePacketMulti(pkts []Packet) error {
	var first error
	for _, pk := range pkts {
		if err := pk.Free(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len returns the packet data length.
func (pk Packet) Len() int {
	if !pk.h.valid() {
		return 0
	}
	return pk.h.p.pkts[pk.h.idx].length
}

// Data returns the packet data, or nil for a stale handle.
func (pk Packet) Data() []byte {
	if !pk.h.valid() {
		return nil
	}
	p := pk.h.p
	obj := p.object(pk.h.idx)
	if obj == nil {
		return nil
	}
	return obj[p.headroom : p.headroom+p.pkts[pk.h.idx].length]
}

// Headroom returns the bytes available in front of the data.
func (pk Packet) Headroom() int {
	if pk.h.p == nil {
		return 0
	}
	return pk.h.p.headroom
}

// Tailroom returns the bytes available after the data.
func (pk Packet) Tailroom() int {
	if !pk.h.valid() {
		return 0
	}
	return pk.h.p.maxLen - pk.h.p.pkts[pk.h.idx].length
}

// Reset sets the data length back to length, as if freshly allocated.
func (pk Packet) Reset(length int) error {
	if !pk.h.valid() {
		return invalidHandleErr(errMetaOpReset)
	}
	p := pk.h.p
	if length < 0 || length > p.maxLen {
		return errors.From(
			api.ErrInvalidParam,
			errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(api.ErrMetaOpKey, errMetaOpReset),
			errors.WithMeta(api.ErrMetaPoolKey, p.name),
			errors.WithMeta("len", strconv.Itoa(length)),
		)
	}
	p.pkts[pk.h.idx].length = length
	return nil
}

// Subtype returns the packet representation.
func (pk Packet) Subtype() api.EventSubtype {
	return pk.ToEvent().Subtype()
}

// Pool returns the owning pool.
func (pk Packet) Pool() Pool {
	return Pool{p: pk.h.p}
}

// Valid reports whether the handle still refers to a live packet.
func (pk Packet) Valid() bool {
	return pk.h.valid()
}

// ToEvent converts the packet into an event. No allocation takes place.
func (pk Packet) ToEvent() Event {
	return Event{h: pk.h}
}

// PacketFromEvent recovers the packet handle of ev, or PacketInvalid when ev
// is not a packet event.
func PacketFromEvent(ev Event) Packet {
	if ev.h.p == nil || ev.h.p.kind != api.PoolPacket {
		return PacketInvalid
	}
	return Packet{h: ev.h}
}
