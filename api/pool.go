// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Pool configuration, capability limits and accounting snapshots.

package api

// BufferParam configures a buffer pool.
type BufferParam struct {
	Num   int // number of buffers
	Size  int // bytes per buffer
	Align int // buffer alignment, power of two; 0 for none
}

// PacketParam configures a packet pool.
type PacketParam struct {
	Num      int // number of packets
	Len      int // packet length every packet must support
	MaxLen   int // upper bound on allocated length; 0 means Len
	Headroom int // bytes reserved in front of packet data
}

// TimeoutParam configures a timeout pool.
type TimeoutParam struct {
	Num int // number of timeouts
}

// PoolParam is the declarative pool configuration. Only the section matching
// Type is consulted.
type PoolParam struct {
	Type     PoolType
	Buf      BufferParam
	Pkt      PacketParam
	Tmo      TimeoutParam
	FreeList FreeListKind
}

// PoolParamInit resets p to defaults. Callers fill Type and the per-kind
// section afterwards.
func PoolParamInit(p *PoolParam) {
	*p = PoolParam{
		Type:     PoolTypeInvalid,
		FreeList: FreeListDefault,
	}
}

// Num returns the configured capacity for the selected kind.
func (p *PoolParam) Num() int {
	switch p.Type {
	case PoolBuffer:
		return p.Buf.Num
	case PoolPacket:
		return p.Pkt.Num
	case PoolTimeout:
		return p.Tmo.Num
	}
	return 0
}

// PktMaxLen resolves the effective maximum packet length.
func (p *PoolParam) PktMaxLen() int {
	if p.Pkt.MaxLen == 0 {
		return p.Pkt.Len
	}
	return p.Pkt.MaxLen
}

// PoolCapability bounds what a manager accepts.
type PoolCapability struct {
	MaxPools int

	Buf struct {
		MaxNum   int
		MaxSize  int
		MaxAlign int
	}
	Pkt struct {
		MaxNum      int
		MaxLen      int
		MaxHeadroom int
	}
	Tmo struct {
		MaxNum int
	}
}

// DefaultPoolCapability returns limits suitable for tests and small deployments.
func DefaultPoolCapability() PoolCapability {
	var c PoolCapability
	c.MaxPools = 64
	c.Buf.MaxNum = 1 << 20
	c.Buf.MaxSize = 1 << 20
	c.Buf.MaxAlign = 4096
	c.Pkt.MaxNum = 1 << 20
	c.Pkt.MaxLen = 64 * 1024
	c.Pkt.MaxHeadroom = 512
	c.Tmo.MaxNum = 1 << 20
	return c
}

// PoolInfo describes a live pool.
type PoolInfo struct {
	ID       uint64
	Name     string
	Param    PoolParam
	ObjSize  int  // bytes reserved per object; 0 for timeouts
	HugePage bool // arena backed by huge pages
	Mapped   bool // arena backed by an anonymous mapping
}

// PoolStats aggregates allocation accounting of one pool.
type PoolStats struct {
	Capacity   int64
	Live       int64
	Available  int64
	AllocOps   uint64
	FreeOps    uint64
	AllocFails uint64
	FreeErrors uint64
}
