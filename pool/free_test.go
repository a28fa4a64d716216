package pool_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/pool"
)

func TestFreeEmpty(t *testing.T) {
	if err := pool.FreeMulti(nil); err != nil {
		t.Errorf("FreeMulti(nil) = %v", err)
	}
	if err := pool.FreeSP([]pool.Event{}); err != nil {
		t.Errorf("FreeSP(empty) = %v", err)
	}
}

// mixedEvents allocates n events spread over pools in a repeating pattern.
func mixedEvents(t *testing.T, pools []pool.Pool, n int) []pool.Event {
	t.Helper()
	out := make([]pool.Event, n)
	for i := range out {
		pl := pools[(i/3)%len(pools)]
		switch pl.Type() {
		case api.PoolBuffer:
			out[i] = pl.AllocBuffer().ToEvent()
		case api.PoolPacket:
			out[i] = pl.AllocPacket(eventSize).ToEvent()
		case api.PoolTimeout:
			out[i] = pl.AllocTimeout().ToEvent()
		}
		if out[i] == pool.EventInvalid {
			t.Fatalf("alloc %d from %s failed", i, pl.Name())
		}
	}
	return out
}

func TestFreeMultiMatchesFreeSP(t *testing.T) {
	m := pool.NewManager()
	pools := []pool.Pool{
		mustCreate(t, m, "buf", bufferParam(numEvents, eventSize)),
		mustCreate(t, m, "pkt", packetParam(numEvents, eventSize)),
		mustCreate(t, m, "tmo", timeoutParam(numEvents)),
	}

	for _, free := range []func([]pool.Event) error{pool.FreeMulti, pool.FreeSP} {
		// Same-pool prefix followed by a mixed tail.
		events := append(mixedEvents(t, pools[:1], 7), mixedEvents(t, pools, 20)...)
		if err := free(events); err != nil {
			t.Fatal(err)
		}
		for _, ev := range events {
			if ev.Valid() {
				t.Fatal("event still valid after batch free")
			}
		}
		for _, pl := range pools {
			st := pl.Stats()
			if st.Live != 0 || st.Available != numEvents {
				t.Fatalf("%s stats = %+v", pl.Name(), st)
			}
		}
	}

	for _, pl := range pools {
		mustDestroy(t, m, pl)
	}
}

func TestFreeMultiReportsBadElements(t *testing.T) {
	m := pool.NewManager()
	bp := mustCreate(t, m, "buf", bufferParam(8, 32))
	tp := mustCreate(t, m, "tmo", timeoutParam(8))

	for _, free := range []func([]pool.Event) error{pool.FreeMulti, pool.FreeSP} {
		stale := bp.AllocBuffer().ToEvent()
		if err := stale.Free(); err != nil {
			t.Fatal(err)
		}
		events := []pool.Event{
			bp.AllocBuffer().ToEvent(),
			stale,
			bp.AllocBuffer().ToEvent(),
			pool.EventInvalid,
			tp.AllocTimeout().ToEvent(),
		}
		err := free(events)
		if !api.IsStaleHandle(err) {
			t.Fatalf("got %v, want stale handle reported first", err)
		}
		for i, ev := range events {
			if ev.Valid() {
				t.Errorf("good event %d not freed", i)
			}
		}
		if bp.Stats().Live != 0 || tp.Stats().Live != 0 {
			t.Fatalf("live objects left: buf %d tmo %d", bp.Stats().Live, tp.Stats().Live)
		}
	}

	if err := pool.FreeMulti([]pool.Event{pool.EventInvalid}); !api.IsInvalidHandle(err) {
		t.Errorf("invalid only: %v", err)
	}
	if err := pool.FreeSP([]pool.Event{pool.EventInvalid, pool.EventInvalid}); !api.IsInvalidHandle(err) {
		t.Errorf("invalid only sp: %v", err)
	}
	mustDestroy(t, m, bp)
	mustDestroy(t, m, tp)
}

func TestFreeDuplicateInBatch(t *testing.T) {
	m := pool.NewManager()
	bp := mustCreate(t, m, "buf", bufferParam(4, 32))

	ev := bp.AllocBuffer().ToEvent()
	err := pool.FreeSP([]pool.Event{ev, ev})
	if !api.IsStaleHandle(err) {
		t.Fatalf("duplicate in batch: got %v", err)
	}
	if st := bp.Stats(); st.Live != 0 || st.Available != 4 || st.FreeOps != 1 {
		t.Errorf("stats = %+v", st)
	}
	mustDestroy(t, m, bp)
}

func TestEventBatch(t *testing.T) {
	m := pool.NewManager()
	bp := mustCreate(t, m, "buf", bufferParam(eventBurst, 16))
	pp := mustCreate(t, m, "pkt", packetParam(eventBurst, 16))

	var batch api.Batch[pool.Event]
	b := pool.NewEventBatch(eventBurst)
	batch = b
	for i := 0; i < eventBurst; i++ {
		b.Append(bp.AllocBuffer().ToEvent())
	}
	if batch.Len() != eventBurst || batch.Get(0).Type() != api.EventBuffer || len(batch.Slice()) != eventBurst {
		t.Fatal("batch contents mismatch")
	}
	if err := b.FreeSP(); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 || bp.Stats().Live != 0 {
		t.Fatal("batch not drained")
	}

	for i := 0; i < eventBurst; i++ {
		b.Append(bp.AllocBuffer().ToEvent())
		b.Append(pp.AllocPacket(8).ToEvent())
	}
	if err := b.Free(); err != nil {
		t.Fatal(err)
	}
	if bp.Stats().Live != 0 || pp.Stats().Live != 0 {
		t.Fatal("mixed batch not freed")
	}
	mustDestroy(t, m, bp)
	mustDestroy(t, m, pp)
}

func testConcurrentAllocFree(t *testing.T, kind api.FreeListKind) {
	const (
		workers = 8
		rounds  = 2000
		burst   = 8
		num     = 64
	)
	m := pool.NewManager(pool.WithDefaultFreeList(kind))
	bp := mustCreate(t, m, "buf", bufferParam(num, 64))
	tp := mustCreate(t, m, "tmo", timeoutParam(num))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			events := make([]pool.Event, 0, burst)
			for r := 0; r < rounds; r++ {
				events = events[:0]
				for i := 0; i < burst; i++ {
					var ev pool.Event
					if (w+i)%2 == 0 {
						ev = bp.AllocBuffer().ToEvent()
					} else {
						ev = tp.AllocTimeout().ToEvent()
					}
					if ev == pool.EventInvalid {
						runtime.Gosched()
						continue
					}
					events = append(events, ev)
				}
				var err error
				if r%2 == 0 {
					err = pool.FreeMulti(events)
				} else {
					err = pool.FreeSP(events)
				}
				if err != nil {
					t.Errorf("worker %d round %d: %v", w, r, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, pl := range []pool.Pool{bp, tp} {
		st := pl.Stats()
		if st.Live != 0 || st.Available != num || st.AllocOps != st.FreeOps || st.FreeErrors != 0 {
			t.Errorf("%s stats = %+v", pl.Name(), st)
		}
		mustDestroy(t, m, pl)
	}
}

func TestConcurrentAllocFreeLockFree(t *testing.T) {
	testConcurrentAllocFree(t, api.FreeListLockFree)
}

func TestConcurrentAllocFreeLocked(t *testing.T) {
	testConcurrentAllocFree(t, api.FreeListLocked)
}

// testChurnKeepsSlots cycles events of every pool type through both batch
// free paths. Each pool has room for every event in flight, so no allocation
// may fail and every slot must be back on the free-list afterwards.
func testChurnKeepsSlots(t *testing.T, kind api.FreeListKind) {
	const (
		workers = 8
		rounds  = 5000
		burst   = 24
		num     = 400
	)
	m := pool.NewManager(pool.WithDefaultFreeList(kind))
	pools := []pool.Pool{
		mustCreate(t, m, "buf", bufferParam(num, 64)),
		mustCreate(t, m, "pkt", packetParam(num, 64)),
		mustCreate(t, m, "tmo", timeoutParam(num)),
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			events := make([]pool.Event, burst)
			for r := 0; r < rounds; r++ {
				for i := range events {
					pl := pools[(w+r+i)%len(pools)]
					switch pl.Type() {
					case api.PoolBuffer:
						events[i] = pl.AllocBuffer().ToEvent()
					case api.PoolPacket:
						events[i] = pl.AllocPacket(32).ToEvent()
					case api.PoolTimeout:
						events[i] = pl.AllocTimeout().ToEvent()
					}
					if events[i] == pool.EventInvalid {
						t.Errorf("worker %d round %d: alloc from %s failed", w, r, pl.Name())
						return
					}
				}
				var err error
				switch r % 3 {
				case 0:
					err = pool.FreeMulti(events)
				case 1:
					err = pool.FreeSP(events)
				default:
					for _, ev := range events {
						if err = ev.Free(); err != nil {
							break
						}
					}
				}
				if err != nil {
					t.Errorf("worker %d round %d: %v", w, r, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, pl := range pools {
		st := pl.Stats()
		if st.Live != 0 || st.Available != st.Capacity || st.Capacity != num {
			t.Errorf("%s lost slots: %+v", pl.Name(), st)
		}
		if st.AllocFails != 0 || st.FreeErrors != 0 || st.AllocOps != st.FreeOps {
			t.Errorf("%s counters = %+v", pl.Name(), st)
		}
		mustDestroy(t, m, pl)
	}
}

func TestChurnKeepsSlotsLockFree(t *testing.T) {
	testChurnKeepsSlots(t, api.FreeListLockFree)
}

func TestChurnKeepsSlotsLocked(t *testing.T) {
	testChurnKeepsSlots(t, api.FreeListLocked)
}

func TestConcurrentDestroyRace(t *testing.T) {
	m := pool.NewManager()
	for i := 0; i < 100; i++ {
		bp := mustCreate(t, m, "race", bufferParam(4, 16))
		var wg sync.WaitGroup
		var got pool.Buffer
		wg.Add(1)
		go func() {
			defer wg.Done()
			got = bp.AllocBuffer()
		}()
		err := m.Destroy(bp)
		wg.Wait()
		switch {
		case err == nil:
			if got != pool.BufferInvalid {
				t.Fatal("allocation succeeded on a destroyed pool")
			}
		case api.IsPoolBusy(err):
			if got == pool.BufferInvalid {
				t.Fatal("destroy reported busy but allocation failed")
			}
			if err := got.Free(); err != nil {
				t.Fatal(err)
			}
			mustDestroy(t, m, bp)
		default:
			t.Fatalf("destroy: %v", err)
		}
	}
}
