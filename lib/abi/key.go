package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Construction and destruction
// --------------------------------------------------------------------------

// KeyNew creates a key from a C name and the decoded argument list.
func (a *API) KeyNew(name unsafe.Pointer, args []KeyNewArg) *ffi.ForeignKey {
	s, err := cstring(name)
	if err != nil {
		failNil("keyNew", err)
		return nil
	}
	conf, err := DecodeKeyNewArgs(args)
	if err != nil {
		failNil("keyNew", err)
		return nil
	}
	k, err := kdb.NewKey(s, conf.Options()...)
	if err != nil {
		failNil("keyNew", err)
		return nil
	}
	return a.bridge.ToForeign(k)
}

// copyParts builds the key that results from copying the parts selected by
// flags from src (which may be nil) onto base
func copyParts(base, src *kdb.Key, flags int) *kdb.Key {
	name := base.Name()
	value := base.Value()
	meta := base.Meta()

	if flags&CopyName != 0 {
		name = kdb.RootName(kdb.NamespaceCascading)
		if src != nil {
			name = src.Name()
		}
	}
	switch {
	case flags&CopyValue != 0:
		value = kdb.Value{}
		if src != nil {
			value = src.Value()
		}
	case flags&CopyString != 0:
		value = kdb.Value{}
		if src != nil && src.Value().IsText() {
			value = src.Value()
		}
	}
	if flags&CopyMeta != 0 {
		meta = nil
		if src != nil {
			meta = src.Meta()
		}
	}
	return kdb.AssembleKey(name, value, meta, base.Flags()|kdb.FlagSync)
}

// KeyDup returns a new key with the parts of source selected by flags. Parts
// that are not copied keep their defaults: the cascading root name, no value
// and no metadata. The copy has no references and no locks.
func (a *API) KeyDup(source *ffi.ForeignKey, flags int) *ffi.ForeignKey {
	src, err := load(source)
	if err != nil {
		failNil("keyDup", err)
		return nil
	}
	base := kdb.NewKeyWithName(kdb.RootName(kdb.NamespaceCascading))
	return a.bridge.ToForeign(copyParts(base, src, flags))
}

// KeyCopy copies the parts of source selected by flags into dest. A NULL
// source clears the selected parts. It returns dest, or nil if a selected
// part of dest is locked.
func (a *API) KeyCopy(dest, source *ffi.ForeignKey, flags int) *ffi.ForeignKey {
	dk, err := load(dest)
	if err != nil {
		failNil("keyCopy", err)
		return nil
	}
	var src *kdb.Key
	if source != nil {
		if src, err = ffi.FromForeign(source); err != nil {
			failNil("keyCopy", err)
			return nil
		}
	}
	if dest == source {
		return dest
	}

	if flags&CopyName != 0 {
		if err := nameWritable(dest); err != nil {
			failNil("keyCopy", err)
			return nil
		}
	}
	if flags&(CopyValue|CopyString) != 0 && dest.Flags&ffi.FlagROValue != 0 {
		failNil("keyCopy", kdb.Errorf(kdb.RetCLocked, "value is locked"))
		return nil
	}
	if flags&CopyMeta != 0 && dest.Flags&ffi.FlagROMeta != 0 {
		failNil("keyCopy", kdb.Errorf(kdb.RetCLocked, "metadata is locked"))
		return nil
	}

	result := copyParts(dk, src, flags)
	a.bridge.Overwrite(dest, result)
	if flags&CopyMeta != 0 {
		a.bridge.ReplaceMeta(dest, result.Meta())
	}
	return dest
}

// KeyClear resets the key to the cascading root without value and metadata.
// The reference count is kept, all other flags are cleared.
func (a *API) KeyClear(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyClear", kdb.ErrNullArgument)
	}
	if err := nameWritable(key); err != nil {
		return fail("keyClear", err)
	}
	a.bridge.Overwrite(key, kdb.NewKeyWithName(kdb.RootName(kdb.NamespaceCascading)))
	a.bridge.ReplaceMeta(key, nil)
	return 0
}

// KeyDel destroys the key if nothing references it. Otherwise nothing is
// freed and the reference count is returned.
func (a *API) KeyDel(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyDel", kdb.ErrNullArgument)
	}
	if key.KSReference > 0 {
		return int(key.KSReference)
	}
	a.bridge.Destroy(key)
	return 0
}

// --------------------------------------------------------------------------
// Reference counting
// --------------------------------------------------------------------------

// KeyIncRef increments the reference count, clamped at the maximum
func (a *API) KeyIncRef(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyIncRef", kdb.ErrNullArgument)
	}
	return int(ffi.IncRef(key))
}

// KeyDecRef decrements the reference count, clamped at zero. It never frees.
func (a *API) KeyDecRef(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyDecRef", kdb.ErrNullArgument)
	}
	return int(ffi.DecRef(key))
}

// KeyGetRef returns the reference count
func (a *API) KeyGetRef(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyGetRef", kdb.ErrNullArgument)
	}
	return int(key.KSReference)
}

// KeySetRef overwrites the reference count
func (a *API) KeySetRef(key *ffi.ForeignKey, refs int) int {
	if key == nil {
		return fail("keySetRef", kdb.ErrNullArgument)
	}
	if refs < 0 || refs > kdb.MaxRefs {
		return fail("keySetRef", kdb.Errorf(kdb.RetCInvalidValue, "reference count %d out of range", refs))
	}
	key.KSReference = uintptr(refs)
	return refs
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// KeyCmp orders two keys by path. NULL sorts first, keys that cannot be read are treated as NULL.
func (a *API) KeyCmp(k1, k2 *ffi.ForeignKey) int {
	m1, err := load(k1)
	if err != nil && k1 != nil {
		failNil("keyCmp", err)
	}
	m2, err := load(k2)
	if err != nil && k2 != nil {
		failNil("keyCmp", err)
	}
	c := kdb.Compare(m1, m2)
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	default:
		return 0
	}
}

// hierarchy runs a containment predicate on two foreign keys
func hierarchy(op string, key, check *ffi.ForeignKey, pred func(a, b *kdb.Key) bool) int {
	mk, err := load(key)
	if err != nil {
		return fail(op, err)
	}
	mc, err := load(check)
	if err != nil {
		return fail(op, err)
	}
	return boolInt(pred(mk, mc))
}

// KeyIsBelow returns 1 if check is a strict descendant of key
func (a *API) KeyIsBelow(key, check *ffi.ForeignKey) int {
	return hierarchy("keyIsBelow", key, check, kdb.IsBelow)
}

// KeyIsBelowOrSame returns 1 if check is key or one of its descendants
func (a *API) KeyIsBelowOrSame(key, check *ffi.ForeignKey) int {
	return hierarchy("keyIsBelowOrSame", key, check, kdb.IsBelowOrSame)
}

// KeyIsDirectlyBelow returns 1 if check is exactly one level below key
func (a *API) KeyIsDirectlyBelow(key, check *ffi.ForeignKey) int {
	return hierarchy("keyIsDirectlyBelow", key, check, kdb.IsDirectlyBelow)
}

// --------------------------------------------------------------------------
// Names
// --------------------------------------------------------------------------

// KeyName returns the escaped name, owned by the key
func (a *API) KeyName(key *ffi.ForeignKey) unsafe.Pointer {
	if key == nil {
		failNil("keyName", kdb.ErrNullArgument)
		return nil
	}
	return key.Key
}

// KeyGetNameSize returns the size of the escaped name including the terminator
func (a *API) KeyGetNameSize(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyGetNameSize", kdb.ErrNullArgument)
	}
	return int(key.KeySize)
}

// KeyUnescapedName returns the unescaped name, owned by the key
func (a *API) KeyUnescapedName(key *ffi.ForeignKey) unsafe.Pointer {
	if key == nil {
		failNil("keyUnescapedName", kdb.ErrNullArgument)
		return nil
	}
	return key.UKey
}

// KeyGetUnescapedNameSize returns the size of the unescaped name
func (a *API) KeyGetUnescapedNameSize(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyGetUnescapedNameSize", kdb.ErrNullArgument)
	}
	return int(key.KeyUSize)
}

// renameOp loads key, applies op to the managed copy and writes it back.
// It returns the new size of the escaped name.
func (a *API) renameOp(op string, key *ffi.ForeignKey, arg unsafe.Pointer, argRequired bool, f func(k *kdb.Key, arg string, isNull bool) error) int {
	if key == nil {
		return fail(op, kdb.ErrNullArgument)
	}
	var s string
	if arg != nil {
		var err error
		if s, err = cstring(arg); err != nil {
			return fail(op, err)
		}
	} else if argRequired {
		return fail(op, kdb.ErrNullArgument)
	}
	if err := nameWritable(key); err != nil {
		return fail(op, err)
	}
	k, err := ffi.FromForeign(key)
	if err != nil {
		return fail(op, err)
	}
	if err := f(k, s, arg == nil); err != nil {
		return fail(op, err)
	}
	a.bridge.Overwrite(key, k)
	return int(key.KeySize)
}

// KeySetName replaces the name
func (a *API) KeySetName(key *ffi.ForeignKey, name unsafe.Pointer) int {
	return a.renameOp("keySetName", key, name, true, func(k *kdb.Key, s string, _ bool) error {
		return k.SetNameString(s)
	})
}

// KeyAddName appends an escaped relative path
func (a *API) KeyAddName(key *ffi.ForeignKey, rel unsafe.Pointer) int {
	return a.renameOp("keyAddName", key, rel, true, func(k *kdb.Key, s string, _ bool) error {
		return k.AddName(s)
	})
}

// KeySetBaseName replaces the last part. NULL removes the last part.
func (a *API) KeySetBaseName(key *ffi.ForeignKey, base unsafe.Pointer) int {
	return a.renameOp("keySetBaseName", key, base, false, func(k *kdb.Key, s string, isNull bool) error {
		if isNull {
			return k.RemoveBaseName()
		}
		return k.SetBaseName(s)
	})
}

// KeyAddBaseName appends a literal part
func (a *API) KeyAddBaseName(key *ffi.ForeignKey, base unsafe.Pointer) int {
	return a.renameOp("keyAddBaseName", key, base, true, func(k *kdb.Key, s string, _ bool) error {
		return k.AddBaseName(s)
	})
}

// KeyBaseName returns a pointer to the last part inside the unescaped name.
// The root yields the empty string.
func (a *API) KeyBaseName(key *ffi.ForeignKey) unsafe.Pointer {
	_, parts, ok := ffi.UnescapedParts(key)
	if !ok {
		failNil("keyBaseName", kdb.ErrConversionFailure)
		return nil
	}
	last := 0
	if len(parts) > 0 {
		last = len(parts[len(parts)-1])
	}
	return unsafe.Add(key.UKey, key.KeyUSize-1-uintptr(last))
}

// KeyGetBaseNameSize returns the size of the base name including the terminator
func (a *API) KeyGetBaseNameSize(key *ffi.ForeignKey) int {
	_, parts, ok := ffi.UnescapedParts(key)
	if !ok {
		return fail("keyGetBaseNameSize", kdb.ErrConversionFailure)
	}
	if len(parts) == 0 {
		return 1
	}
	return len(parts[len(parts)-1]) + 1
}

// KeyGetNamespace returns the namespace, NamespaceNone for NULL
func (a *API) KeyGetNamespace(key *ffi.ForeignKey) int32 {
	ns, _, ok := ffi.UnescapedParts(key)
	if !ok {
		return ffi.EncodeNamespace(kdb.NamespaceNone)
	}
	return ffi.EncodeNamespace(ns)
}

// KeySetNamespace replaces the namespace. NamespaceNone and unknown values are rejected.
func (a *API) KeySetNamespace(key *ffi.ForeignKey, ns int32) int {
	n, ok := ffi.DecodeNamespace(ns)
	if !ok || n == kdb.NamespaceNone {
		return fail("keySetNamespace", kdb.Errorf(kdb.RetCInvalidNamespace, "namespace %d", ns))
	}
	return a.renameOp("keySetNamespace", key, nil, false, func(k *kdb.Key, _ string, _ bool) error {
		return k.SetNamespace(n)
	})
}
