package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
)

// Metadata is stored as a plain key set of meta:/ keys hanging off the key.
// Nothing here interprets it.

// KeyMeta returns the metadata set of the key, creating an empty one if needed
func (a *API) KeyMeta(key *ffi.ForeignKey) *ffi.ForeignKeySet {
	if key == nil {
		failNil("keyMeta", kdb.ErrNullArgument)
		return nil
	}
	if key.Meta == nil {
		key.Meta = a.bridge.NewForeignKeySet(0)
	}
	return key.Meta
}

// metaName parses a C metadata name ("x/y" or "meta:/x/y")
func metaName(p unsafe.Pointer) (kdb.KeyName, error) {
	s, err := cstring(p)
	if err != nil {
		return kdb.KeyName{}, err
	}
	return kdb.MetaName(s)
}

// KeyGetMeta returns the metadata key with the given name, owned by the key
func (a *API) KeyGetMeta(key *ffi.ForeignKey, name unsafe.Pointer) *ffi.ForeignKey {
	if key == nil {
		failNil("keyGetMeta", kdb.ErrNullArgument)
		return nil
	}
	kn, err := metaName(name)
	if err != nil {
		failNil("keyGetMeta", err)
		return nil
	}
	if key.Meta == nil {
		return nil
	}
	return key.Meta.At(key.Meta.Find(kn))
}

// setMeta sets or removes (value == nil) one metadata entry. The meta lock
// must have been checked by the caller.
func (a *API) setMeta(key *ffi.ForeignKey, kn kdb.KeyName, value *string) int {
	idx := -1
	if key.Meta != nil {
		idx = key.Meta.Find(kn)
	}

	if value == nil {
		if idx >= 0 {
			if removed := a.bridge.RemoveAt(key.Meta, idx); removed.KSReference == 0 {
				a.bridge.Destroy(removed)
			}
			key.Flags |= ffi.FlagSync
		}
		return 0
	}

	mk := kdb.AssembleKey(kn, kdb.TextValue(*value), nil, 0)
	if idx >= 0 {
		a.bridge.Overwrite(key.Meta.At(idx), mk)
	} else {
		if key.Meta == nil {
			if key.Meta = a.bridge.NewForeignKeySet(0); key.Meta == nil {
				return fail("keySetMeta", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
			}
		}
		fk := a.bridge.ToForeign(mk)
		if fk == nil || !a.bridge.Insert(key.Meta, fk) {
			a.bridge.Destroy(fk)
			return fail("keySetMeta", kdb.Errorf(kdb.RetCInvalidValue, "out of memory"))
		}
	}
	key.Flags |= ffi.FlagSync
	return len(*value) + 1
}

// KeySetMeta sets a metadata entry. A NULL value removes it. It returns the
// size of the new value, 0 on removal.
func (a *API) KeySetMeta(key *ffi.ForeignKey, name, value unsafe.Pointer) int {
	if key == nil {
		return fail("keySetMeta", kdb.ErrNullArgument)
	}
	if key.Flags&ffi.FlagROMeta != 0 {
		return fail("keySetMeta", kdb.Errorf(kdb.RetCLocked, "metadata is locked"))
	}
	kn, err := metaName(name)
	if err != nil {
		return fail("keySetMeta", err)
	}
	if value == nil {
		return a.setMeta(key, kn, nil)
	}
	v, err := cstring(value)
	if err != nil {
		return fail("keySetMeta", err)
	}
	return a.setMeta(key, kn, &v)
}

// metaValue reads the text of a metadata key
func metaValue(fk *ffi.ForeignKey) (string, error) {
	v, err := ffi.ForeignValue(fk)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// KeyCopyMeta copies one metadata entry from source to dest. If source lacks
// it, it is removed from dest. It returns 1 if copied and 0 if removed.
func (a *API) KeyCopyMeta(dest, source *ffi.ForeignKey, name unsafe.Pointer) int {
	if dest == nil {
		return fail("keyCopyMeta", kdb.ErrNullArgument)
	}
	if dest.Flags&ffi.FlagROMeta != 0 {
		return fail("keyCopyMeta", kdb.Errorf(kdb.RetCLocked, "metadata is locked"))
	}
	kn, err := metaName(name)
	if err != nil {
		return fail("keyCopyMeta", err)
	}
	if dest == source {
		return 1
	}

	var found *ffi.ForeignKey
	if source != nil && source.Meta != nil {
		found = source.Meta.At(source.Meta.Find(kn))
	}
	if found == nil {
		a.setMeta(dest, kn, nil)
		return 0
	}
	v, err := metaValue(found)
	if err != nil {
		return fail("keyCopyMeta", err)
	}
	if a.setMeta(dest, kn, &v) < 0 {
		return -1
	}
	return 1
}

// KeyCopyAllMeta copies every metadata entry of source into dest, replacing
// entries with the same name. It returns 1 if anything was copied.
func (a *API) KeyCopyAllMeta(dest, source *ffi.ForeignKey) int {
	if dest == nil || source == nil {
		return fail("keyCopyAllMeta", kdb.ErrNullArgument)
	}
	if dest.Flags&ffi.FlagROMeta != 0 {
		return fail("keyCopyAllMeta", kdb.Errorf(kdb.RetCLocked, "metadata is locked"))
	}
	if dest == source || source.Meta == nil || source.Meta.Size == 0 {
		return 0
	}
	for _, mk := range source.Meta.Keys() {
		kn, err := ffi.ForeignName(mk)
		if err != nil {
			return fail("keyCopyAllMeta", err)
		}
		v, err := metaValue(mk)
		if err != nil {
			return fail("keyCopyAllMeta", err)
		}
		if a.setMeta(dest, kn, &v) < 0 {
			return -1
		}
	}
	return 1
}
