package ffi

// DefaultMinAlloc is the smallest capacity of a foreign key set array
const DefaultMinAlloc = 16

// Bridge converts between the managed model and the foreign layout. Every
// block it creates comes from its allocator and is returned to the same
// allocator, so one Bridge must be used for the whole lifetime of a structure.
type Bridge struct {
	alloc    Allocator
	minAlloc uintptr
}

// Option configures a Bridge
type Option func(*Bridge)

// WithMinAlloc sets the smallest array capacity of new key sets. Values below 2 are ignored.
func WithMinAlloc(n int) Option {
	return func(b *Bridge) {
		if n >= 2 {
			b.minAlloc = uintptr(n)
		}
	}
}

// NewBridge creates a bridge on top of alloc
func NewBridge(alloc Allocator, opts ...Option) *Bridge {
	b := &Bridge{alloc: alloc, minAlloc: DefaultMinAlloc}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allocator returns the allocator of the bridge
func (b *Bridge) Allocator() Allocator { return b.alloc }
