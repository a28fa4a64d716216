// File: pool/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Manager creates, tracks and destroys typed pools.

package pool

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/internal/freelist"
	"github.com/momentics/hioload-evpool/internal/storage"
)

// maxAlign is the largest alignment an anonymous mapping guarantees.
const maxAlign = 4096

const (
	errMetaOpCreate  = "create"
	errMetaOpDestroy = "destroy"
)

// Pool is an opaque pool handle. PoolInvalid is its zero value.
type Pool struct {
	p *pool
}

// PoolInvalid denotes no pool.
var PoolInvalid = Pool{}

// ID returns the numeric identity; ids are never reused by a manager.
func (pl Pool) ID() uint64 {
	if pl.p == nil {
		return 0
	}
	return pl.p.id
}

// Name returns the name given at creation.
func (pl Pool) Name() string {
	if pl.p == nil {
		return ""
	}
	return pl.p.name
}

// Type returns the object kind of the pool.
func (pl Pool) Type() api.PoolType {
	if pl.p == nil {
		return api.PoolTypeInvalid
	}
	return pl.p.kind
}

// Info describes the pool configuration.
func (pl Pool) Info() api.PoolInfo {
	if pl.p == nil {
		return api.PoolInfo{}
	}
	p := pl.p
	return api.PoolInfo{
		ID:       p.id,
		Name:     p.name,
		Param:    p.param,
		ObjSize:  p.objSize,
		HugePage: p.arena.HugePage(),
		Mapped:   p.arena.Mapped(),
	}
}

// Stats returns a point-in-time accounting snapshot.
func (pl Pool) Stats() api.PoolStats {
	if pl.p == nil {
		return api.PoolStats{}
	}
	return pl.p.stats()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithCapability sets the limits enforced on Create.
func WithCapability(c api.PoolCapability) Option {
	return func(m *Manager) { m.capa = c }
}

// WithHugePages asks for huge-page backed arenas.
func WithHugePages(on bool) Option {
	return func(m *Manager) { m.hugePages = on }
}

// WithDefaultFreeList selects the free-list used when a PoolParam leaves
// FreeList at its default.
func WithDefaultFreeList(k api.FreeListKind) Option {
	return func(m *Manager) { m.freeList = k }
}

// Manager owns a set of pools.
type Manager struct {
	mu        sync.RWMutex
	pools     map[uint64]*pool
	capa      api.PoolCapability
	hugePages bool
	freeList  api.FreeListKind
	log       zerolog.Logger
	nextID    atomic.Uint64
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		pools:    make(map[uint64]*pool),
		capa:     api.DefaultPoolCapability(),
		freeList: api.FreeListLockFree,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Capability returns the limits currently enforced.
func (m *Manager) Capability() api.PoolCapability {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.capa
}

// SetCapability replaces the limits for subsequent Create calls. Existing
// pools are unaffected.
func (m *Manager) SetCapability(c api.PoolCapability) {
	m.mu.Lock()
	m.capa = c
	m.mu.Unlock()
}

// SetHugePages changes the arena preference of subsequently created pools.
func (m *Manager) SetHugePages(on bool) {
	m.mu.Lock()
	m.hugePages = on
	m.mu.Unlock()
}

// SetDefaultFreeList changes the free-list of subsequently created pools whose
// PoolParam leaves FreeList at its default. FreeListDefault restores the
// lock-free ring.
func (m *Manager) SetDefaultFreeList(k api.FreeListKind) {
	if k == api.FreeListDefault {
		k = api.FreeListLockFree
	}
	m.mu.Lock()
	m.freeList = k
	m.mu.Unlock()
}

// SetLogger replaces the lifecycle logger.
func (m *Manager) SetLogger(l zerolog.Logger) {
	m.mu.Lock()
	m.log = l
	m.mu.Unlock()
}

// Create builds a pool from param. On failure it returns PoolInvalid and the
// reason; nothing is left allocated.
func (m *Manager) Create(name string, param *api.PoolParam) (Pool, error) {
	if param == nil {
		return PoolInvalid, paramErr(name, "param", "nil")
	}
	prm := *param

	m.mu.Lock()
	if err := validate(name, &prm, &m.capa); err != nil {
		log := m.log
		m.mu.Unlock()
		log.Warn().Err(err).Str("pool", name).Str("type", prm.Type.String()).Msg("pool rejected")
		return PoolInvalid, err
	}
	if len(m.pools) >= m.capa.MaxPools {
		log := m.log
		m.mu.Unlock()
		err := errors.From(
			api.ErrResourceExhausted,
			errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(api.ErrMetaOpKey, errMetaOpCreate),
			errors.WithMeta(api.ErrMetaPoolKey, name),
			errors.WithMeta("max_pools", strconv.Itoa(m.capa.MaxPools)),
		)
		log.Warn().Err(err).Str("pool", name).Msg("pool limit reached")
		return PoolInvalid, err
	}
	if prm.FreeList == api.FreeListDefault {
		prm.FreeList = m.freeList
	}
	p := build(m.nextID.Add(1), name, prm, m.hugePages)
	m.pools[p.id] = p
	log := m.log
	m.mu.Unlock()

	log.Debug().
		Str("pool", name).
		Uint64("id", p.id).
		Str("type", p.kind.String()).
		Int("num", len(p.slots)).
		Int("obj_size", p.objSize).
		Str("freelist", prm.FreeList.String()).
		Bool("mapped", p.arena.Mapped()).
		Msg("pool created")
	return Pool{p: p}, nil
}

// build allocates slots, arena and free-list of a validated configuration.
func build(id uint64, name string, prm api.PoolParam, huge bool) *pool {
	num := prm.Num()
	p := &pool{
		id:    id,
		name:  name,
		param: prm,
		kind:  prm.Type,
		slots: make([]slot, num),
		free:  freelist.New(prm.FreeList, num),
	}
	align := 0
	switch prm.Type {
	case api.PoolBuffer:
		p.objSize = prm.Buf.Size
		align = prm.Buf.Align
	case api.PoolPacket:
		p.headroom = prm.Pkt.Headroom
		p.maxLen = prm.PktMaxLen()
		p.objSize = p.headroom + p.maxLen
		p.pkts = make([]packetMeta, num)
	case api.PoolTimeout:
		p.tmos = make([]timeoutMeta, num)
	}
	p.stride = storage.Stride(p.objSize, align)
	p.arena = storage.Alloc(p.stride*num, align, huge)
	for i := range p.slots {
		p.slots[i].state.Store(packState(1, false))
	}
	freelist.Fill(p.free, num)
	return p
}

func validate(name string, prm *api.PoolParam, c *api.PoolCapability) error {
	switch prm.Type {
	case api.PoolBuffer:
		b := prm.Buf
		if b.Num <= 0 || b.Num > c.Buf.MaxNum {
			return paramErr(name, "buf.num", strconv.Itoa(b.Num))
		}
		if b.Size <= 0 || b.Size > c.Buf.MaxSize {
			return paramErr(name, "buf.size", strconv.Itoa(b.Size))
		}
		if b.Align < 0 || b.Align > c.Buf.MaxAlign || b.Align > maxAlign || b.Align&(b.Align-1) != 0 {
			return paramErr(name, "buf.align", strconv.Itoa(b.Align))
		}
	case api.PoolPacket:
		k := prm.Pkt
		if k.Num <= 0 || k.Num > c.Pkt.MaxNum {
			return paramErr(name, "pkt.num", strconv.Itoa(k.Num))
		}
		if k.Len <= 0 || k.Len > c.Pkt.MaxLen {
			return paramErr(name, "pkt.len", strconv.Itoa(k.Len))
		}
		if k.MaxLen != 0 && (k.MaxLen < k.Len || k.MaxLen > c.Pkt.MaxLen) {
			return paramErr(name, "pkt.max_len", strconv.Itoa(k.MaxLen))
		}
		if k.Headroom < 0 || k.Headroom > c.Pkt.MaxHeadroom {
			return paramErr(name, "pkt.headroom", strconv.Itoa(k.Headroom))
		}
	case api.PoolTimeout:
		if n := prm.Tmo.Num; n <= 0 || n > c.Tmo.MaxNum {
			return paramErr(name, "tmo.num", strconv.Itoa(n))
		}
	default:
		return paramErr(name, "type", prm.Type.String())
	}
	switch prm.FreeList {
	case api.FreeListDefault, api.FreeListLockFree, api.FreeListLocked:
	default:
		return paramErr(name, "freelist", prm.FreeList.String())
	}
	return nil
}

func paramErr(name, field, value string) error {
	return errors.From(
		api.ErrInvalidParam,
		errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(api.ErrMetaOpKey, errMetaOpCreate),
		errors.WithMeta(api.ErrMetaPoolKey, name),
		errors.WithMeta(api.ErrMetaFieldKey, field),
		errors.WithMeta("value", value),
	)
}

// Destroy releases an idle pool. It fails with api.ErrPoolBusy while objects
// are allocated and the pool stays usable; the invalid handle and an already
// destroyed pool yield api.ErrInvalidHandle.
func (m *Manager) Destroy(pl Pool) error {
	p := pl.p
	if p == nil {
		return invalidHandleErr(errMetaOpDestroy)
	}
	m.mu.RLock()
	owned := m.pools[p.id] == p
	log := m.log
	m.mu.RUnlock()
	if !owned {
		return invalidHandleErr(errMetaOpDestroy)
	}
	if !p.live.CompareAndSwap(0, liveDestroyed) {
		n := p.live.Load()
		if n < 0 {
			return invalidHandleErr(errMetaOpDestroy)
		}
		err := errors.From(
			api.ErrPoolBusy,
			errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(api.ErrMetaOpKey, errMetaOpDestroy),
			errors.WithMeta(api.ErrMetaPoolKey, p.name),
			errors.WithMeta("live", strconv.FormatInt(n, 10)),
		)
		log.Warn().Str("pool", p.name).Uint64("id", p.id).Int64("live", n).Msg("pool busy")
		return err
	}

	m.mu.Lock()
	delete(m.pools, p.id)
	m.mu.Unlock()

	if err := p.arena.Release(); err != nil {
		log.Warn().Err(err).Str("pool", p.name).Uint64("id", p.id).Msg("arena release failed")
	}
	log.Debug().Str("pool", p.name).Uint64("id", p.id).Msg("pool destroyed")
	return nil
}

// Lookup returns the live pool with the given name, or PoolInvalid. When
// several pools share a name the one created first wins.
func (m *Manager) Lookup(name string) Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *pool
	for _, p := range m.pools {
		if p.name == name && (found == nil || p.id < found.id) {
			found = p
		}
	}
	if found == nil {
		return PoolInvalid
	}
	return Pool{p: found}
}

// Pools lists live pools in creation order.
func (m *Manager) Pools() []Pool {
	m.mu.RLock()
	out := make([]Pool, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, Pool{p: p})
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Pool) int { return cmp.Compare(a.p.id, b.p.id) })
	return out
}
