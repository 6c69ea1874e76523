// Package ffi converts keys and key sets between the managed model of package
// kdb and the fixed C layout used at the shared library boundary.
//
// Ownership rules:
//
//   - Every raw block reachable from a ForeignKey or ForeignKeySet is owned by
//     that structure. Blocks come from the Allocator of a Bridge and go back to
//     the same Allocator.
//
//   - ToForeign consumes the managed key. FromForeign only reads and copies.
//
//   - Overwrite captures the old blocks, writes the new ones and frees the
//     captured blocks last. The same order is used when a key set array grows.
//
//   - Destroy and DestroySet free unconditionally. Reference counting is the
//     job of the caller (package abi). A key set drops one reference of each of
//     its keys when it is cleared or destroyed and destroys the keys that
//     reach zero.
//
// Allocators:
//
//	GoHeap keeps blocks on the Go heap and is meant for tests and tooling.
//	TrackingAllocator wraps any allocator, records live blocks and rejects
//	double frees, which makes leak checks in tests a one-liner.
//	The C allocator lives in the capi package, next to the cgo exports.
package ffi
