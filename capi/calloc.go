package main

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// cHeap allocates foreign memory with calloc so that C callers may keep and
// pass around every pointer the library hands out
type cHeap struct{}

// Alloc implements ffi.Allocator
func (cHeap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	return C.calloc(1, C.size_t(size))
}

// Free implements ffi.Allocator
func (cHeap) Free(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}
