// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-evpool components.

package benchmarks

import (
	"testing"

	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/internal/freelist"
	"github.com/momentics/hioload-evpool/pool"
)

const burst = 32

func newPools(b *testing.B, kind api.FreeListKind) (*pool.Manager, []pool.Pool) {
	b.Helper()
	m := pool.NewManager(pool.WithDefaultFreeList(kind))
	var out []pool.Pool
	for _, typ := range []api.PoolType{api.PoolBuffer, api.PoolPacket, api.PoolTimeout} {
		var prm api.PoolParam
		api.PoolParamInit(&prm)
		prm.Type = typ
		prm.Buf = api.BufferParam{Num: 4096, Size: 2048}
		prm.Pkt = api.PacketParam{Num: 4096, Len: 1500, Headroom: 128}
		prm.Tmo = api.TimeoutParam{Num: 4096}
		pl, err := m.Create(typ.String(), &prm)
		if err != nil {
			b.Fatal(err)
		}
		out = append(out, pl)
	}
	return m, out
}

// BenchmarkBufferAllocFree measures single alloc/free pairs under contention.
func BenchmarkBufferAllocFree(b *testing.B) {
	for _, kind := range []api.FreeListKind{api.FreeListLockFree, api.FreeListLocked} {
		b.Run(kind.String(), func(b *testing.B) {
			_, pools := newPools(b, kind)
			bp := pools[0]
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					buf := bp.AllocBuffer()
					if buf == pool.BufferInvalid {
						continue
					}
					_ = buf.Free()
				}
			})
		})
	}
}

// BenchmarkFreeSP measures same-pool batch release.
func BenchmarkFreeSP(b *testing.B) {
	_, pools := newPools(b, api.FreeListLockFree)
	pp := pools[1]
	events := make([]pool.Event, burst)
	pkts := make([]pool.Packet, burst)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := pp.AllocPacketMulti(1500, pkts)
		for j := 0; j < n; j++ {
			events[j] = pkts[j].ToEvent()
		}
		if err := pool.FreeSP(events[:n]); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFreeMultiMixed measures release of a round-robin mix of kinds.
func BenchmarkFreeMultiMixed(b *testing.B) {
	_, pools := newPools(b, api.FreeListLockFree)
	batch := pool.NewEventBatch(burst)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < burst; j++ {
			switch pl := pools[j%3]; pl.Type() {
			case api.PoolBuffer:
				batch.Append(pl.AllocBuffer().ToEvent())
			case api.PoolPacket:
				batch.Append(pl.AllocPacket(64).ToEvent())
			default:
				batch.Append(pl.AllocTimeout().ToEvent())
			}
		}
		if err := batch.Free(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFreeListThroughput measures raw free-list enqueue/dequeue.
func BenchmarkFreeListThroughput(b *testing.B) {
	for _, kind := range []api.FreeListKind{api.FreeListLockFree, api.FreeListLocked} {
		b.Run(kind.String(), func(b *testing.B) {
			l := freelist.New(kind, 1024)
			freelist.Fill(l, 512)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if idx, ok := l.Dequeue(); ok {
						l.Enqueue(idx)
					}
				}
			})
		})
	}
}
