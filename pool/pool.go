// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool internals: slot state, live accounting and free-list plumbing shared by
// the buffer, packet and timeout allocators.

package pool

import (
	"math"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/internal/freelist"
	"github.com/momentics/hioload-evpool/internal/storage"
)

// liveDestroyed marks a destroyed pool in the live counter.
const liveDestroyed = math.MinInt64

const (
	errMetaPkgVal = "pool"
	errMetaOpFree = "free"
)

// slot is the per-object control word pair.
type slot struct {
	// state packs generation<<1 | live.
	state atomic.Uint64
	// types packs EventType<<16 | EventSubtype, written on allocation.
	types atomic.Uint32
}

func packState(gen uint32, live bool) uint64 {
	s := uint64(gen) << 1
	if live {
		s |= 1
	}
	return s
}

func packTypes(t api.EventType, s api.EventSubtype) uint32 {
	return uint32(t)<<16 | uint32(s)
}

func unpackTypes(v uint32) (api.EventType, api.EventSubtype) {
	return api.EventType(v >> 16), api.EventSubtype(v & 0xffff)
}

func nextGen(gen uint32) uint32 {
	gen++
	if gen == 0 {
		gen = 1
	}
	return gen
}

type packetMeta struct {
	length int
}

type timeoutMeta struct {
	tick uint64
	user any
}

// pool is the shared state behind a Pool handle.
type pool struct {
	id    uint64
	name  string
	param api.PoolParam
	kind  api.PoolType

	stride   int // distance between objects in the arena
	objSize  int // usable bytes per object
	headroom int
	maxLen   int

	arena *storage.Region
	slots []slot
	pkts  []packetMeta
	tmos  []timeoutMeta
	free  freelist.List

	live       atomic.Int64
	allocOps   atomic.Uint64
	freeOps    atomic.Uint64
	allocFails atomic.Uint64
	freeErrors atomic.Uint64
}

// handle addresses one object slot of one pool at one generation.
type handle struct {
	p   *pool
	idx uint32
	gen uint32
}

func (h handle) valid() bool {
	return h.p != nil && h.p.isLive(h.idx, h.gen)
}

func (p *pool) isLive(idx, gen uint32) bool {
	if int(idx) >= len(p.slots) {
		return false
	}
	return p.slots[idx].state.Load() == packState(gen, true)
}

func (p *pool) types(idx uint32) uint32 {
	if int(idx) >= len(p.slots) {
		return 0
	}
	return p.slots[idx].types.Load()
}

// acquire reserves one unit of live count unless the pool is destroyed.
func (p *pool) acquire() bool {
	for {
		n := p.live.Load()
		if n < 0 {
			return false
		}
		if p.live.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// alloc takes one slot off the free-list and marks it live.
func (p *pool) alloc(t api.EventType, s api.EventSubtype) (handle, bool) {
	if !p.acquire() {
		p.allocFails.Add(1)
		return handle{}, false
	}
	idx, ok := p.free.Dequeue()
	if !ok {
		p.live.Add(-1)
		p.allocFails.Add(1)
		return handle{}, false
	}
	sl := &p.slots[idx]
	gen := uint32(sl.state.Load() >> 1)
	sl.types.Store(packTypes(t, s))
	sl.state.Store(packState(gen, true))
	p.allocOps.Add(1)
	return handle{p: p, idx: idx, gen: gen}, true
}

// retire flips a live slot to the next free generation. Only one caller can
// win the CAS, so a racing double free releases the slot once.
func (p *pool) retire(idx, gen uint32) bool {
	if int(idx) >= len(p.slots) {
		return false
	}
	return p.slots[idx].state.CompareAndSwap(packState(gen, true), packState(nextGen(gen), false))
}

func (p *pool) release(h handle) error {
	if !p.retire(h.idx, h.gen) {
		p.freeErrors.Add(1)
		return p.staleErr(errMetaOpFree, h.idx)
	}
	p.scrub(h.idx)
	p.put(h.idx)
	p.live.Add(-1)
	p.freeOps.Add(1)
	return nil
}

var idxScratch = sync.Pool{
	New: func() any {
		s := make([]uint32, 0, 64)
		return &s
	},
}

// releaseRun frees handles that all belong to p with one free-list batch.
// Stale members are skipped; the first failure and its position in hs are
// returned, with at = -1 when every member was released.
func (p *pool) releaseRun(hs []handle) (at int, err error) {
	sp := idxScratch.Get().(*[]uint32)
	idx := (*sp)[:0]
	at = -1
	for i, h := range hs {
		if !p.retire(h.idx, h.gen) {
			p.freeErrors.Add(1)
			if err == nil {
				at, err = i, p.staleErr(errMetaOpFree, h.idx)
			}
			continue
		}
		p.scrub(h.idx)
		idx = append(idx, h.idx)
	}
	if n := len(idx); n > 0 {
		p.putBatch(idx)
		p.live.Add(-int64(n))
		p.freeOps.Add(uint64(n))
	}
	*sp = idx[:0]
	idxScratch.Put(sp)
	return at, err
}

// put returns a retired slot to the free-list. The list holds every slot of
// the pool, so a rejection is transient and is retried.
func (p *pool) put(idx uint32) {
	for !p.free.Enqueue(idx) {
		runtime.Gosched()
	}
}

// putBatch returns retired slots to the free-list, retrying the remainder of a
// partially accepted batch.
func (p *pool) putBatch(idx []uint32) {
	for len(idx) > 0 {
		n := p.free.EnqueueBatch(idx)
		idx = idx[n:]
		if len(idx) > 0 {
			runtime.Gosched()
		}
	}
}

// scrub drops references held by a retired slot.
func (p *pool) scrub(idx uint32) {
	if p.tmos != nil {
		p.tmos[idx].user = nil
	}
}

// object returns the arena bytes of slot idx.
func (p *pool) object(idx uint32) []byte {
	arena := p.arena.Bytes()
	off := int(idx) * p.stride
	if arena == nil || off+p.objSize > len(arena) {
		return nil
	}
	return arena[off : off+p.objSize : off+p.objSize]
}

func (p *pool) liveCount() int64 {
	n := p.live.Load()
	if n < 0 {
		return 0
	}
	return n
}

func (p *pool) stats() api.PoolStats {
	return api.PoolStats{
		Capacity:   int64(len(p.slots)),
		Live:       p.liveCount(),
		Available:  int64(p.free.Len()),
		AllocOps:   p.allocOps.Load(),
		FreeOps:    p.freeOps.Load(),
		AllocFails: p.allocFails.Load(),
		FreeErrors: p.freeErrors.Load(),
	}
}

func (p *pool) staleErr(op string, idx uint32) error {
	return errors.From(
		api.ErrStaleHandle,
		errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(api.ErrMetaOpKey, op),
		errors.WithMeta(api.ErrMetaPoolKey, p.name),
		errors.WithMeta(api.ErrMetaSlotKey, strconv.FormatUint(uint64(idx), 10)),
	)
}

func invalidHandleErr(op string) error {
	return errors.From(
		api.ErrInvalidHandle,
		errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(api.ErrMetaOpKey, op),
	)
}
