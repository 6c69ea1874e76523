package main

/*
#include "kdbtypes.h"
*/
import "C"

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/abi"
	"github.com/ValentinKolb/kdb/lib/ffi"
)

// --------------------------------------------------------------------------
// Conversion helper
// --------------------------------------------------------------------------

func goKey(k *C.Key) *ffi.ForeignKey { return (*ffi.ForeignKey)(unsafe.Pointer(k)) }
func cKey(k *ffi.ForeignKey) *C.Key { return (*C.Key)(unsafe.Pointer(k)) }
func goSet(ks *C.KeySet) *ffi.ForeignKeySet { return (*ffi.ForeignKeySet)(unsafe.Pointer(ks)) }
func cSet(ks *ffi.ForeignKeySet) *C.KeySet { return (*C.KeySet)(unsafe.Pointer(ks)) }
func cChar(p unsafe.Pointer) *C.char { return (*C.char)(p) }
func goPtr[T any](p *T) unsafe.Pointer { return unsafe.Pointer(p) }
func sizeArg(n C.size_t) int { return clampInt(uint64(n)) }
func refArg(n C.ssize_t) int { return int(n) }
func cSize(n int) C.ssize_t { return C.ssize_t(n) }
func cInt(n int) C.int { return C.int(n) }
func cNamespace(ns int32) C.elektraNamespace { return C.elektraNamespace(ns) }

// clampInt converts a C size to int, saturating at the int maximum
func clampInt(n uint64) int {
	const maxInt = int(^uint(0) >> 1)
	if n > uint64(maxInt) {
		return maxInt
	}
	return int(n)
}

// guard recovers from a panic in an exported function. It must be deferred
// directly. onPanic sets the sentinel result; pointer results stay nil.
func guard(op string, onPanic func()) {
	if r := recover(); r != nil {
		log.Errorf("%s: recovered from panic: %v", op, r)
		if onPanic != nil {
			onPanic()
		}
	}
}

// --------------------------------------------------------------------------
// Construction (called by the variadic adapters in variadic.c)
// --------------------------------------------------------------------------

//export elektraKeyNewFromArgs
func elektraKeyNewFromArgs(name *C.char, args *C.KeyNewArg, n C.int) (ret *C.Key) {
	defer guard("keyNew", nil)
	var list []abi.KeyNewArg
	if args != nil && n > 0 {
		list = unsafe.Slice((*abi.KeyNewArg)(unsafe.Pointer(args)), int(n))
	}
	return cKey(api.KeyNew(goPtr(name), list))
}

//export elektraKsNewFromArray
func elektraKsNewFromArray(alloc C.size_t, keys **C.Key, n C.size_t) (ret *C.KeySet) {
	defer guard("ksNew", nil)
	var list []*ffi.ForeignKey
	if keys != nil && n > 0 {
		list = unsafe.Slice((**ffi.ForeignKey)(unsafe.Pointer(keys)), sizeArg(n))
	}
	return cSet(api.KsNew(sizeArg(alloc), list))
}

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

//export keyDup
func keyDup(source *C.Key, flags C.int) (ret *C.Key) {
	defer guard("keyDup", nil)
	return cKey(api.KeyDup(goKey(source), int(flags)))
}

//export keyCopy
func keyCopy(dest, source *C.Key, flags C.int) (ret *C.Key) {
	defer guard("keyCopy", nil)
	return cKey(api.KeyCopy(goKey(dest), goKey(source), int(flags)))
}

//export keyClear
func keyClear(key *C.Key) (ret C.int) {
	defer guard("keyClear", func() { ret = -1 })
	return cInt(api.KeyClear(goKey(key)))
}

//export keyDel
func keyDel(key *C.Key) (ret C.int) {
	defer guard("keyDel", func() { ret = -1 })
	return cInt(api.KeyDel(goKey(key)))
}

//export keyIncRef
func keyIncRef(key *C.Key) (ret C.ssize_t) {
	defer guard("keyIncRef", func() { ret = -1 })
	return cSize(api.KeyIncRef(goKey(key)))
}

//export keyDecRef
func keyDecRef(key *C.Key) (ret C.ssize_t) {
	defer guard("keyDecRef", func() { ret = -1 })
	return cSize(api.KeyDecRef(goKey(key)))
}

//export keyGetRef
func keyGetRef(key *C.Key) (ret C.ssize_t) {
	defer guard("keyGetRef", func() { ret = -1 })
	return cSize(api.KeyGetRef(goKey(key)))
}

//export keySetRef
func keySetRef(key *C.Key, refs C.ssize_t) (ret C.ssize_t) {
	defer guard("keySetRef", func() { ret = -1 })
	return cSize(api.KeySetRef(goKey(key), refArg(refs)))
}

//export keyCmp
func keyCmp(k1, k2 *C.Key) (ret C.int) {
	defer guard("keyCmp", nil)
	return cInt(api.KeyCmp(goKey(k1), goKey(k2)))
}

//export keyIsBelow
func keyIsBelow(key, check *C.Key) (ret C.int) {
	defer guard("keyIsBelow", func() { ret = -1 })
	return cInt(api.KeyIsBelow(goKey(key), goKey(check)))
}

//export keyIsBelowOrSame
func keyIsBelowOrSame(key, check *C.Key) (ret C.int) {
	defer guard("keyIsBelowOrSame", func() { ret = -1 })
	return cInt(api.KeyIsBelowOrSame(goKey(key), goKey(check)))
}

//export keyIsDirectlyBelow
func keyIsDirectlyBelow(key, check *C.Key) (ret C.int) {
	defer guard("keyIsDirectlyBelow", func() { ret = -1 })
	return cInt(api.KeyIsDirectlyBelow(goKey(key), goKey(check)))
}

// --------------------------------------------------------------------------
// Names
// --------------------------------------------------------------------------

//export keyName
func keyName(key *C.Key) (ret *C.char) {
	defer guard("keyName", nil)
	return cChar(api.KeyName(goKey(key)))
}

//export keyGetNameSize
func keyGetNameSize(key *C.Key) (ret C.ssize_t) {
	defer guard("keyGetNameSize", func() { ret = -1 })
	return cSize(api.KeyGetNameSize(goKey(key)))
}

//export keySetName
func keySetName(key *C.Key, name *C.char) (ret C.ssize_t) {
	defer guard("keySetName", func() { ret = -1 })
	return cSize(api.KeySetName(goKey(key), goPtr(name)))
}

//export keyAddName
func keyAddName(key *C.Key, name *C.char) (ret C.ssize_t) {
	defer guard("keyAddName", func() { ret = -1 })
	return cSize(api.KeyAddName(goKey(key), goPtr(name)))
}

//export keyUnescapedName
func keyUnescapedName(key *C.Key) (ret unsafe.Pointer) {
	defer guard("keyUnescapedName", nil)
	return api.KeyUnescapedName(goKey(key))
}

//export keyGetUnescapedNameSize
func keyGetUnescapedNameSize(key *C.Key) (ret C.ssize_t) {
	defer guard("keyGetUnescapedNameSize", func() { ret = -1 })
	return cSize(api.KeyGetUnescapedNameSize(goKey(key)))
}

//export keyBaseName
func keyBaseName(key *C.Key) (ret *C.char) {
	defer guard("keyBaseName", nil)
	return cChar(api.KeyBaseName(goKey(key)))
}

//export keyGetBaseNameSize
func keyGetBaseNameSize(key *C.Key) (ret C.ssize_t) {
	defer guard("keyGetBaseNameSize", func() { ret = -1 })
	return cSize(api.KeyGetBaseNameSize(goKey(key)))
}

//export keySetBaseName
func keySetBaseName(key *C.Key, base *C.char) (ret C.ssize_t) {
	defer guard("keySetBaseName", func() { ret = -1 })
	return cSize(api.KeySetBaseName(goKey(key), goPtr(base)))
}

//export keyAddBaseName
func keyAddBaseName(key *C.Key, base *C.char) (ret C.ssize_t) {
	defer guard("keyAddBaseName", func() { ret = -1 })
	return cSize(api.KeyAddBaseName(goKey(key), goPtr(base)))
}

//export keyGetNamespace
func keyGetNamespace(key *C.Key) (ret C.elektraNamespace) {
	defer guard("keyGetNamespace", nil)
	return cNamespace(api.KeyGetNamespace(goKey(key)))
}

//export keySetNamespace
func keySetNamespace(key *C.Key, ns C.elektraNamespace) (ret C.ssize_t) {
	defer guard("keySetNamespace", func() { ret = -1 })
	return cSize(api.KeySetNamespace(goKey(key), int32(ns)))
}

// --------------------------------------------------------------------------
// Values and locks
// --------------------------------------------------------------------------

//export keyValue
func keyValue(key *C.Key) (ret unsafe.Pointer) {
	defer guard("keyValue", nil)
	return api.KeyValue(goKey(key))
}

//export keyGetValueSize
func keyGetValueSize(key *C.Key) (ret C.ssize_t) {
	defer guard("keyGetValueSize", func() { ret = -1 })
	return cSize(api.KeyGetValueSize(goKey(key)))
}

//export keyString
func keyString(key *C.Key) (ret *C.char) {
	defer guard("keyString", nil)
	return cChar(api.KeyString(goKey(key)))
}

//export keyGetString
func keyGetString(key *C.Key, buf *C.char, maxSize C.size_t) (ret C.ssize_t) {
	defer guard("keyGetString", func() { ret = -1 })
	return cSize(api.KeyGetString(goKey(key), goPtr(buf), sizeArg(maxSize)))
}

//export keySetString
func keySetString(key *C.Key, s *C.char) (ret C.ssize_t) {
	defer guard("keySetString", func() { ret = -1 })
	return cSize(api.KeySetString(goKey(key), goPtr(s)))
}

//export keyGetBinary
func keyGetBinary(key *C.Key, buf unsafe.Pointer, maxSize C.size_t) (ret C.ssize_t) {
	defer guard("keyGetBinary", func() { ret = -1 })
	return cSize(api.KeyGetBinary(goKey(key), buf, sizeArg(maxSize)))
}

//export keySetBinary
func keySetBinary(key *C.Key, data unsafe.Pointer, size C.size_t) (ret C.ssize_t) {
	defer guard("keySetBinary", func() { ret = -1 })
	return cSize(api.KeySetBinary(goKey(key), data, sizeArg(size)))
}

//export keyIsBinary
func keyIsBinary(key *C.Key) (ret C.int) {
	defer guard("keyIsBinary", func() { ret = -1 })
	return cInt(api.KeyIsBinary(goKey(key)))
}

//export keyIsString
func keyIsString(key *C.Key) (ret C.int) {
	defer guard("keyIsString", func() { ret = -1 })
	return cInt(api.KeyIsString(goKey(key)))
}

//export keyLock
func keyLock(key *C.Key, what C.int) (ret C.int) {
	defer guard("keyLock", func() { ret = -1 })
	return cInt(api.KeyLock(goKey(key), int(what)))
}

//export keyIsLocked
func keyIsLocked(key *C.Key, what C.int) (ret C.int) {
	defer guard("keyIsLocked", func() { ret = -1 })
	return cInt(api.KeyIsLocked(goKey(key), int(what)))
}

//export keyNeedSync
func keyNeedSync(key *C.Key) (ret C.int) {
	defer guard("keyNeedSync", func() { ret = -1 })
	return cInt(api.KeyNeedSync(goKey(key)))
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

//export keyMeta
func keyMeta(key *C.Key) (ret *C.KeySet) {
	defer guard("keyMeta", nil)
	return cSet(api.KeyMeta(goKey(key)))
}

//export keyGetMeta
func keyGetMeta(key *C.Key, name *C.char) (ret *C.Key) {
	defer guard("keyGetMeta", nil)
	return cKey(api.KeyGetMeta(goKey(key), goPtr(name)))
}

//export keySetMeta
func keySetMeta(key *C.Key, name, value *C.char) (ret C.ssize_t) {
	defer guard("keySetMeta", func() { ret = -1 })
	return cSize(api.KeySetMeta(goKey(key), goPtr(name), goPtr(value)))
}

//export keyCopyMeta
func keyCopyMeta(dest, source *C.Key, name *C.char) (ret C.int) {
	defer guard("keyCopyMeta", func() { ret = -1 })
	return cInt(api.KeyCopyMeta(goKey(dest), goKey(source), goPtr(name)))
}

//export keyCopyAllMeta
func keyCopyAllMeta(dest, source *C.Key) (ret C.int) {
	defer guard("keyCopyAllMeta", func() { ret = -1 })
	return cInt(api.KeyCopyAllMeta(goKey(dest), goKey(source)))
}

// --------------------------------------------------------------------------
// Key sets
// --------------------------------------------------------------------------

//export ksDup
func ksDup(source *C.KeySet) (ret *C.KeySet) {
	defer guard("ksDup", nil)
	return cSet(api.KsDup(goSet(source)))
}

//export ksCopy
func ksCopy(dest, source *C.KeySet) (ret C.int) {
	defer guard("ksCopy", func() { ret = -1 })
	return cInt(api.KsCopy(goSet(dest), goSet(source)))
}

//export ksClear
func ksClear(ks *C.KeySet) (ret C.int) {
	defer guard("ksClear", func() { ret = -1 })
	return cInt(api.KsClear(goSet(ks)))
}

//export ksDel
func ksDel(ks *C.KeySet) (ret C.int) {
	defer guard("ksDel", func() { ret = -1 })
	return cInt(api.KsDel(goSet(ks)))
}

//export ksGetSize
func ksGetSize(ks *C.KeySet) (ret C.ssize_t) {
	defer guard("ksGetSize", func() { ret = -1 })
	return cSize(api.KsGetSize(goSet(ks)))
}

//export ksAppendKey
func ksAppendKey(ks *C.KeySet, key *C.Key) (ret C.ssize_t) {
	defer guard("ksAppendKey", func() { ret = -1 })
	return cSize(api.KsAppendKey(goSet(ks), goKey(key)))
}

//export ksAppend
func ksAppend(ks, other *C.KeySet) (ret C.ssize_t) {
	defer guard("ksAppend", func() { ret = -1 })
	return cSize(api.KsAppend(goSet(ks), goSet(other)))
}

//export ksCut
func ksCut(ks *C.KeySet, cutpoint *C.Key) (ret *C.KeySet) {
	defer guard("ksCut", nil)
	return cSet(api.KsCut(goSet(ks), goKey(cutpoint)))
}

//export ksPop
func ksPop(ks *C.KeySet) (ret *C.Key) {
	defer guard("ksPop", nil)
	return cKey(api.KsPop(goSet(ks)))
}

//export ksLookup
func ksLookup(ks *C.KeySet, key *C.Key, options C.int) (ret *C.Key) {
	defer guard("ksLookup", nil)
	return cKey(api.KsLookup(goSet(ks), goKey(key), int(options)))
}

//export ksLookupByName
func ksLookupByName(ks *C.KeySet, name *C.char, options C.int) (ret *C.Key) {
	defer guard("ksLookupByName", nil)
	return cKey(api.KsLookupByName(goSet(ks), goPtr(name), int(options)))
}

//export ksAtCursor
func ksAtCursor(ks *C.KeySet, pos C.ssize_t) (ret *C.Key) {
	defer guard("ksAtCursor", nil)
	return cKey(api.KsAtCursor(goSet(ks), int(pos)))
}

//export ksRewind
func ksRewind(ks *C.KeySet) (ret C.int) {
	defer guard("ksRewind", func() { ret = -1 })
	return cInt(api.KsRewind(goSet(ks)))
}

//export ksNext
func ksNext(ks *C.KeySet) (ret *C.Key) {
	defer guard("ksNext", nil)
	return cKey(api.KsNext(goSet(ks)))
}

//export ksCurrent
func ksCurrent(ks *C.KeySet) (ret *C.Key) {
	defer guard("ksCurrent", nil)
	return cKey(api.KsCurrent(goSet(ks)))
}

//export ksGetCursor
func ksGetCursor(ks *C.KeySet) (ret C.ssize_t) {
	defer guard("ksGetCursor", func() { ret = -1 })
	return cSize(api.KsGetCursor(goSet(ks)))
}

//export ksSetCursor
func ksSetCursor(ks *C.KeySet, pos C.ssize_t) (ret C.int) {
	defer guard("ksSetCursor", func() { ret = -1 })
	return cInt(api.KsSetCursor(goSet(ks), int(pos)))
}

//export ksIncRef
func ksIncRef(ks *C.KeySet) (ret C.ssize_t) {
	defer guard("ksIncRef", func() { ret = -1 })
	return cSize(api.KsIncRef(goSet(ks)))
}

//export ksDecRef
func ksDecRef(ks *C.KeySet) (ret C.ssize_t) {
	defer guard("ksDecRef", func() { ret = -1 })
	return cSize(api.KsDecRef(goSet(ks)))
}

//export ksGetRef
func ksGetRef(ks *C.KeySet) (ret C.ssize_t) {
	defer guard("ksGetRef", func() { ret = -1 })
	return cSize(api.KsGetRef(goSet(ks)))
}

//export ksSetRef
func ksSetRef(ks *C.KeySet, refs C.ssize_t) (ret C.ssize_t) {
	defer guard("ksSetRef", func() { ret = -1 })
	return cSize(api.KsSetRef(goSet(ks), refArg(refs)))
}
