package ffi

import (
	"unicode/utf8"
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
)

// ----------------------------------------------------------------------------
// Helper functions for raw memory
// ----------------------------------------------------------------------------

// CStrLen returns the length of the NUL-terminated string at p
func CStrLen(p unsafe.Pointer) int {
	if p == nil {
		return 0
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return n
}

// GoString copies the NUL-terminated string at p
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), CStrLen(p)))
}

// GoBytes copies n bytes starting at p
func GoBytes(p unsafe.Pointer, n uintptr) []byte {
	if p == nil || n == 0 {
		return []byte{}
	}
	return append([]byte{}, unsafe.Slice((*byte)(p), n)...)
}

// CheckedString copies the C string at p and verifies it is valid UTF-8
func CheckedString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", kdb.ErrNullArgument
	}
	s := GoString(p)
	if !utf8.ValidString(s) {
		return "", kdb.Errorf(kdb.RetCConversionFailure, "string is not valid UTF-8")
	}
	return s, nil
}

// CopyInto copies src to the memory at dst, which must hold len(src) bytes
func CopyInto(dst unsafe.Pointer, src []byte) {
	if len(src) == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), len(src)), src)
}

// allocBytes copies b into a new block. With terminate a NUL is appended.
// An empty b without terminator yields nil.
func allocBytes(a Allocator, b []byte, terminate bool) (unsafe.Pointer, uintptr) {
	size := uintptr(len(b))
	if terminate {
		size++
	}
	if size == 0 {
		return nil, 0
	}
	p := a.Alloc(size)
	if p == nil {
		return nil, 0
	}
	CopyInto(p, b)
	return p, size
}

// AllocCString copies s into a new NUL-terminated block from a
func AllocCString(a Allocator, s string) unsafe.Pointer {
	p, _ := allocBytes(a, []byte(s), true)
	return p
}
