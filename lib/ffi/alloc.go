package ffi

import (
	"fmt"
	"sort"
	"sync/atomic"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Allocator hands out the raw memory that foreign structures own.
// Alloc must return zeroed memory aligned for pointers, or nil if size is zero
// or memory is exhausted. Free must accept nil.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
}

// --------------------------------------------------------------------------
// Go heap allocator
// --------------------------------------------------------------------------

// GoHeap allocates from the Go heap and keeps every block reachable until it
// is freed. The blocks are pointer-free to the garbage collector, which is
// fine because everything they point to is kept alive by the same map.
// Memory from a GoHeap must never be handed to C code.
type GoHeap struct {
	blocks *xsync.MapOf[uintptr, []uint64]
}

// NewGoHeap creates an empty GoHeap
func NewGoHeap() *GoHeap {
	return &GoHeap{blocks: xsync.NewMapOf[uintptr, []uint64]()}
}

// Alloc implements Allocator
func (h *GoHeap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	buf := make([]uint64, (size+7)/8)
	p := unsafe.Pointer(&buf[0])
	h.blocks.Store(uintptr(p), buf)
	return p
}

// Free implements Allocator. Unknown pointers are ignored.
func (h *GoHeap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.blocks.Delete(uintptr(p))
}

// Live returns the number of blocks not yet freed
func (h *GoHeap) Live() int {
	return h.blocks.Size()
}

// --------------------------------------------------------------------------
// Tracking allocator
// --------------------------------------------------------------------------

// AllocStats is a snapshot of the counters of a TrackingAllocator
type AllocStats struct {
	Allocs       int64
	Frees        int64
	Live         int64
	LiveBytes    int64
	DoubleFrees  int64
	UnknownFrees int64
	MeanSize     float64
	MaxSize      int64
}

// String returns a one line summary
func (s AllocStats) String() string {
	return fmt.Sprintf("allocs=%d frees=%d live=%d (%d bytes) double-frees=%d unknown-frees=%d mean-size=%.1f max-size=%d",
		s.Allocs, s.Frees, s.Live, s.LiveBytes, s.DoubleFrees, s.UnknownFrees, s.MeanSize, s.MaxSize)
}

// TrackingAllocator wraps another allocator and records every live block.
// Double frees and frees of unknown pointers are counted and logged but never
// forwarded to the inner allocator.
type TrackingAllocator struct {
	inner Allocator
	live  *xsync.MapOf[uintptr, uintptr]
	freed *xsync.MapOf[uintptr, struct{}]
	sizes gometrics.Histogram

	allocs       atomic.Int64
	frees        atomic.Int64
	liveBytes    atomic.Int64
	doubleFrees  atomic.Int64
	unknownFrees atomic.Int64
}

// NewTrackingAllocator wraps inner
func NewTrackingAllocator(inner Allocator) *TrackingAllocator {
	return &TrackingAllocator{
		inner: inner,
		live:  xsync.NewMapOf[uintptr, uintptr](),
		freed: xsync.NewMapOf[uintptr, struct{}](),
		sizes: gometrics.NewHistogram(gometrics.NewUniformSample(1028)),
	}
}

// Alloc implements Allocator
func (t *TrackingAllocator) Alloc(size uintptr) unsafe.Pointer {
	p := t.inner.Alloc(size)
	if p == nil {
		return nil
	}
	t.live.Store(uintptr(p), size)
	t.freed.Delete(uintptr(p))
	t.allocs.Add(1)
	t.liveBytes.Add(int64(size))
	t.sizes.Update(int64(size))
	return p
}

// Free implements Allocator
func (t *TrackingAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	addr := uintptr(p)
	if size, ok := t.live.LoadAndDelete(addr); ok {
		t.freed.Store(addr, struct{}{})
		t.frees.Add(1)
		t.liveBytes.Add(-int64(size))
		t.inner.Free(p)
		return
	}
	if _, ok := t.freed.Load(addr); ok {
		t.doubleFrees.Add(1)
		log.Errorf("double free of %#x", addr)
		return
	}
	t.unknownFrees.Add(1)
	log.Errorf("free of unknown pointer %#x", addr)
}

// Stats returns a snapshot of the counters
func (t *TrackingAllocator) Stats() AllocStats {
	snap := t.sizes.Snapshot()
	return AllocStats{
		Allocs:       t.allocs.Load(),
		Frees:        t.frees.Load(),
		Live:         int64(t.live.Size()),
		LiveBytes:    t.liveBytes.Load(),
		DoubleFrees:  t.doubleFrees.Load(),
		UnknownFrees: t.unknownFrees.Load(),
		MeanSize:     snap.Mean(),
		MaxSize:      snap.Max(),
	}
}

// Leaks returns the addresses of all live blocks in ascending order
func (t *TrackingAllocator) Leaks() []uintptr {
	var out []uintptr
	t.live.Range(func(addr, _ uintptr) bool {
		out = append(out, addr)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Check returns an error if any block is live or any free was rejected
func (t *TrackingAllocator) Check() error {
	s := t.Stats()
	if s.Live != 0 || s.DoubleFrees != 0 || s.UnknownFrees != 0 {
		return fmt.Errorf("allocation check failed: %s", s)
	}
	return nil
}
