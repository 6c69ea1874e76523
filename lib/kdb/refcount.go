package kdb

import (
	"math"
	"sync/atomic"
)

// MaxRefs is the largest value a reference counter can hold
const MaxRefs = math.MaxUint16

// RefCount is a manual shared-ownership counter clamped to [0, MaxRefs].
// Increase and Decrease saturate instead of wrapping. It is safe for
// concurrent use, unlike the collections that embed it.
type RefCount struct {
	n atomic.Uint32
}

// Get returns the current count
func (r *RefCount) Get() uint16 {
	return uint16(r.n.Load())
}

// Increase adds one unless the counter is at MaxRefs and returns the new count
func (r *RefCount) Increase() uint16 {
	for {
		old := r.n.Load()
		if old >= MaxRefs {
			return MaxRefs
		}
		if r.n.CompareAndSwap(old, old+1) {
			return uint16(old + 1)
		}
	}
}

// Decrease subtracts one unless the counter is at zero and returns the new count
func (r *RefCount) Decrease() uint16 {
	for {
		old := r.n.Load()
		if old == 0 {
			return 0
		}
		if r.n.CompareAndSwap(old, old-1) {
			return uint16(old - 1)
		}
	}
}

// Set overwrites the count unconditionally
func (r *RefCount) Set(n uint16) {
	r.n.Store(uint32(n))
}

// SaturatingInc returns n+1 clamped to MaxRefs. Used for counters that live in foreign memory.
func SaturatingInc[T ~uint16 | ~uint32 | ~uint64 | ~uintptr](n T) T {
	if n >= MaxRefs {
		return MaxRefs
	}
	return n + 1
}

// SaturatingDec returns n-1 clamped to zero
func SaturatingDec[T ~uint16 | ~uint32 | ~uint64 | ~uintptr](n T) T {
	if n == 0 {
		return 0
	}
	return n - 1
}
