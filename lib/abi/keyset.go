package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Construction and destruction
// --------------------------------------------------------------------------

// KsNew creates a set with room for hint keys and appends keys in order.
// The caller has no handle on the keys, so a key rejected as duplicate is
// destroyed unless something references it.
func (a *API) KsNew(hint int, keys []*ffi.ForeignKey) *ffi.ForeignKeySet {
	if hint < len(keys) {
		hint = len(keys)
	}
	ks := a.bridge.NewForeignKeySet(hint)
	if ks == nil {
		failNil("ksNew", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
		return nil
	}
	for _, k := range keys {
		if k == nil {
			continue
		}
		if a.KsAppendKey(ks, k) >= 0 && ks.IndexOfPointer(k) < 0 && k.KSReference == 0 {
			a.bridge.Destroy(k)
		}
	}
	return ks
}

// KsDup returns a new set holding the same keys. Every key gains a reference.
func (a *API) KsDup(source *ffi.ForeignKeySet) *ffi.ForeignKeySet {
	if source == nil {
		failNil("ksDup", kdb.ErrNullArgument)
		return nil
	}
	ks := a.bridge.NewForeignKeySet(int(source.Size))
	if ks == nil {
		failNil("ksDup", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
		return nil
	}
	for _, k := range source.Keys() {
		a.bridge.Insert(ks, k)
	}
	return ks
}

// KsCopy replaces the content of dest with the keys of source. A NULL source
// only clears dest. It returns 1 if keys were copied, 0 for a NULL source.
func (a *API) KsCopy(dest, source *ffi.ForeignKeySet) int {
	if dest == nil {
		return fail("ksCopy", kdb.ErrNullArgument)
	}
	if dest == source {
		return 1
	}
	// take the references of the new content before dropping the old one,
	// keys in both sets must not reach zero in between
	var keys []*ffi.ForeignKey
	if source != nil {
		keys = source.Keys()
		for _, k := range keys {
			ffi.IncRef(k)
		}
	}
	a.bridge.ClearSet(dest)
	for _, k := range keys {
		a.bridge.Insert(dest, k)
		ffi.DecRef(k)
	}
	if source == nil {
		return 0
	}
	return 1
}

// KsClear drops all keys. Keys without other references are destroyed.
func (a *API) KsClear(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksClear", kdb.ErrNullArgument)
	}
	a.bridge.ClearSet(ks)
	return 0
}

// KsDel destroys the set if nothing references it. Otherwise nothing is freed
// and the reference count is returned.
func (a *API) KsDel(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksDel", kdb.ErrNullArgument)
	}
	if ks.Refs > 0 {
		return int(ks.Refs)
	}
	a.bridge.DestroySet(ks)
	return 0
}

// KsGetSize returns the number of keys
func (a *API) KsGetSize(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksGetSize", kdb.ErrNullArgument)
	}
	return int(ks.Size)
}

// --------------------------------------------------------------------------
// Insertion and removal
// --------------------------------------------------------------------------

// KsAppendKey appends key and takes a reference on it. If a key with the same
// path is already present the set and key stay unchanged, the key still
// belongs to the caller. It returns the new size.
func (a *API) KsAppendKey(ks *ffi.ForeignKeySet, key *ffi.ForeignKey) int {
	if ks == nil || key == nil {
		return fail("ksAppendKey", kdb.ErrNullArgument)
	}
	kn, err := ffi.ForeignName(key)
	if err != nil {
		return fail("ksAppendKey", err)
	}
	if idx := ks.Find(kn); idx >= 0 {
		if ks.At(idx) != key {
			log.Debugf("ksAppendKey: %s already present, ignoring", kn)
		}
		return int(ks.Size)
	}
	if !a.bridge.Insert(ks, key) {
		return fail("ksAppendKey", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
	}
	return int(ks.Size)
}

// KsAppend appends every key of other that is not present yet. It returns the new size.
func (a *API) KsAppend(ks, other *ffi.ForeignKeySet) int {
	if ks == nil || other == nil {
		return fail("ksAppend", kdb.ErrNullArgument)
	}
	if ks == other {
		return int(ks.Size)
	}
	for _, k := range other.Keys() {
		kn, err := ffi.ForeignName(k)
		if err != nil {
			return fail("ksAppend", err)
		}
		if ks.Find(kn) >= 0 {
			continue
		}
		if !a.bridge.Insert(ks, k) {
			return fail("ksAppend", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
		}
	}
	return int(ks.Size)
}

// KsCut moves every key at or below cutpoint into a new set. If the new set
// cannot grow, the remaining keys stay in ks and the partial result is returned.
func (a *API) KsCut(ks *ffi.ForeignKeySet, cutpoint *ffi.ForeignKey) *ffi.ForeignKeySet {
	if ks == nil {
		failNil("ksCut", kdb.ErrNullArgument)
		return nil
	}
	cp, err := load(cutpoint)
	if err != nil {
		failNil("ksCut", err)
		return nil
	}
	out := a.bridge.NewForeignKeySet(0)
	if out == nil {
		failNil("ksCut", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
		return nil
	}
	for i := 0; i < int(ks.Size); {
		k := ks.At(i)
		kn, err := ffi.ForeignName(k)
		if err != nil || !kdb.IsBelowOrSame(cp, kdb.NewKeyWithName(kn)) {
			i++
			continue
		}
		// the reference moves with the key, so it never drops to zero
		ffi.IncRef(k)
		a.bridge.RemoveAt(ks, i)
		if !a.bridge.Insert(out, k) {
			// the slot just freed in ks needs no allocation
			a.bridge.InsertAt(ks, i, k)
			ffi.DecRef(k)
			failNil("ksCut", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
			return out
		}
		ffi.DecRef(k)
	}
	return out
}

// KsPop removes the last key and hands it to the caller, who must keyDel it
func (a *API) KsPop(ks *ffi.ForeignKeySet) *ffi.ForeignKey {
	if ks == nil {
		failNil("ksPop", kdb.ErrNullArgument)
		return nil
	}
	if ks.Size == 0 {
		return nil
	}
	return a.bridge.RemoveAt(ks, int(ks.Size)-1)
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// lookup finds kn and applies LookupPop
func (a *API) lookup(ks *ffi.ForeignKeySet, kn kdb.KeyName, options int) *ffi.ForeignKey {
	idx := ks.Find(kn)
	if idx < 0 {
		return nil
	}
	if options&LookupPop != 0 {
		return a.bridge.RemoveAt(ks, idx)
	}
	return ks.At(idx)
}

// KsLookup returns the member with the path of key. LookupPop removes it from
// the set, LookupDel deletes the search key afterwards (unless it is the result).
func (a *API) KsLookup(ks *ffi.ForeignKeySet, key *ffi.ForeignKey, options int) *ffi.ForeignKey {
	if ks == nil || key == nil {
		failNil("ksLookup", kdb.ErrNullArgument)
		return nil
	}
	kn, err := ffi.ForeignName(key)
	if err != nil {
		failNil("ksLookup", err)
		return nil
	}
	found := a.lookup(ks, kn, options)
	if options&LookupDel != 0 && found != key {
		a.KeyDel(key)
	}
	return found
}

// KsLookupByName returns the member with the path of name
func (a *API) KsLookupByName(ks *ffi.ForeignKeySet, name unsafe.Pointer, options int) *ffi.ForeignKey {
	if ks == nil {
		failNil("ksLookupByName", kdb.ErrNullArgument)
		return nil
	}
	s, err := cstring(name)
	if err != nil {
		failNil("ksLookupByName", err)
		return nil
	}
	kn, err := kdb.ParseKeyName(s)
	if err != nil {
		failNil("ksLookupByName", err)
		return nil
	}
	return a.lookup(ks, kn, options)
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

// KsAtCursor returns the key at position pos, nil if out of range
func (a *API) KsAtCursor(ks *ffi.ForeignKeySet, pos int) *ffi.ForeignKey {
	if ks == nil {
		failNil("ksAtCursor", kdb.ErrNullArgument)
		return nil
	}
	return ks.At(pos)
}

// KsRewind resets the internal cursor
func (a *API) KsRewind(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksRewind", kdb.ErrNullArgument)
	}
	ks.Rewind()
	return 0
}

// KsNext advances the internal cursor and returns the key under it. At the
// end it returns nil and rewinds.
func (a *API) KsNext(ks *ffi.ForeignKeySet) *ffi.ForeignKey {
	if ks == nil {
		failNil("ksNext", kdb.ErrNullArgument)
		return nil
	}
	next := uintptr(0)
	if ks.Cursor != nil {
		next = ks.Current + 1
	}
	if next >= ks.Size {
		ks.Rewind()
		return nil
	}
	ks.Cursor = ks.At(int(next))
	ks.Current = next
	return ks.Cursor
}

// KsCurrent returns the key under the internal cursor
func (a *API) KsCurrent(ks *ffi.ForeignKeySet) *ffi.ForeignKey {
	if ks == nil {
		failNil("ksCurrent", kdb.ErrNullArgument)
		return nil
	}
	return ks.Cursor
}

// KsGetCursor returns the position of the internal cursor, -1 if it is not set
func (a *API) KsGetCursor(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksGetCursor", kdb.ErrNullArgument)
	}
	if ks.Cursor == nil {
		return -1
	}
	return int(ks.Current)
}

// KsSetCursor moves the internal cursor. Positions out of range rewind and return 0.
func (a *API) KsSetCursor(ks *ffi.ForeignKeySet, pos int) int {
	if ks == nil {
		return fail("ksSetCursor", kdb.ErrNullArgument)
	}
	if pos < 0 || pos >= int(ks.Size) {
		ks.Rewind()
		return 0
	}
	ks.Cursor = ks.At(pos)
	ks.Current = uintptr(pos)
	return 1
}

// --------------------------------------------------------------------------
// Reference counting
// --------------------------------------------------------------------------

// KsIncRef increments the reference count of the set, clamped at the maximum
func (a *API) KsIncRef(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksIncRef", kdb.ErrNullArgument)
	}
	ks.Refs = kdb.SaturatingInc(ks.Refs)
	return int(ks.Refs)
}

// KsDecRef decrements the reference count of the set, clamped at zero. It never frees.
func (a *API) KsDecRef(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksDecRef", kdb.ErrNullArgument)
	}
	ks.Refs = kdb.SaturatingDec(ks.Refs)
	return int(ks.Refs)
}

// KsGetRef returns the reference count of the set
func (a *API) KsGetRef(ks *ffi.ForeignKeySet) int {
	if ks == nil {
		return fail("ksGetRef", kdb.ErrNullArgument)
	}
	return int(ks.Refs)
}

// KsSetRef overwrites the reference count of the set
func (a *API) KsSetRef(ks *ffi.ForeignKeySet, refs int) int {
	if ks == nil {
		return fail("ksSetRef", kdb.ErrNullArgument)
	}
	if refs < 0 || refs > kdb.MaxRefs {
		return fail("ksSetRef", kdb.Errorf(kdb.RetCInvalidValue, "reference count %d out of range", refs))
	}
	ks.Refs = uint16(refs)
	return refs
}
