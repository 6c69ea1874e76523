package ffi

import (
	"bytes"
	"unicode/utf8"
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Payload (the owned buffers of a foreign key)
// --------------------------------------------------------------------------

// payload is the set of blocks and sizes a key owns, apart from its metadata
type payload struct {
	data      unsafe.Pointer
	dataSize  uintptr
	name      unsafe.Pointer
	nameSize  uintptr
	uname     unsafe.Pointer
	unameSize uintptr
	flags     int32
}

// buildPayload allocates exactly the buffers k needs
func (b *Bridge) buildPayload(k *kdb.Key) payload {
	p := payload{flags: encodeFlags(k)}
	p.name, p.nameSize = allocBytes(b.alloc, []byte(k.Name().String()), true)
	p.uname, p.unameSize = allocBytes(b.alloc, k.Name().Unescaped(), false)

	v := k.Value()
	switch v.Kind() {
	case kdb.ValueText:
		p.data, p.dataSize = allocBytes(b.alloc, v.Bytes(), true)
	case kdb.ValueBinary:
		p.data, p.dataSize = allocBytes(b.alloc, v.Bytes(), false)
	}
	return p
}

// capture reads the owned blocks of fk
func capture(fk *ForeignKey) payload {
	return payload{
		data:      fk.Data,
		dataSize:  fk.DataSize,
		name:      fk.Key,
		nameSize:  fk.KeySize,
		uname:     fk.UKey,
		unameSize: fk.KeyUSize,
		flags:     fk.Flags,
	}
}

// install writes p into fk. KSReference and Meta are left alone.
func (p payload) install(fk *ForeignKey) {
	fk.Data = p.data
	fk.DataSize = p.dataSize
	fk.Key = p.name
	fk.KeySize = p.nameSize
	fk.UKey = p.uname
	fk.KeyUSize = p.unameSize
	fk.Flags = p.flags
}

// release frees the blocks of p
func (b *Bridge) release(p payload) {
	b.alloc.Free(p.data)
	b.alloc.Free(p.name)
	b.alloc.Free(p.uname)
}

// --------------------------------------------------------------------------
// Managed -> foreign
// --------------------------------------------------------------------------

// ToForeign moves k into a newly allocated foreign key. The caller must not
// use k afterwards, the foreign key is the only owner of the data from now on.
// The returned key has no references. It returns nil if memory is exhausted.
func (b *Bridge) ToForeign(k *kdb.Key) *ForeignKey {
	if k == nil {
		return nil
	}
	fk := (*ForeignKey)(b.alloc.Alloc(SizeofKey))
	if fk == nil {
		return nil
	}
	b.buildPayload(k).install(fk)
	if k.Meta().Len() > 0 {
		fk.Meta = b.ToForeignSet(k.Meta())
	}
	keysCreated.Inc()
	return fk
}

// Overwrite replaces name, value and flags of fk with those of k. The old
// blocks are captured first, the new ones are written, and only then the
// captured blocks are freed, so fk never points to freed memory.
// KSReference and Meta stay with fk, use ReplaceMeta for the metadata.
func (b *Bridge) Overwrite(fk *ForeignKey, k *kdb.Key) {
	old := capture(fk)
	b.buildPayload(k).install(fk)
	b.release(old)
	overwrites.Inc()
}

// ReplaceMeta replaces the metadata of fk with a foreign copy of ms.
// An empty or nil ms removes the metadata.
func (b *Bridge) ReplaceMeta(fk *ForeignKey, ms *kdb.KeySet) {
	old := fk.Meta
	if ms.Len() > 0 {
		fk.Meta = b.ToForeignSet(ms)
	} else {
		fk.Meta = nil
	}
	if old != nil {
		b.DestroySet(old)
	}
}

// Destroy frees everything fk owns and then fk itself. The reference count
// is not consulted, that is the job of the caller. Calling Destroy twice on
// the same pointer is a caller error.
func (b *Bridge) Destroy(fk *ForeignKey) {
	if fk == nil {
		return
	}
	old := capture(fk)
	meta := fk.Meta
	*fk = ForeignKey{}
	b.release(old)
	if meta != nil {
		b.DestroySet(meta)
	}
	b.alloc.Free(unsafe.Pointer(fk))
	keysDestroyed.Inc()
}

// --------------------------------------------------------------------------
// Foreign -> managed
// --------------------------------------------------------------------------

func conversionError(msg string, err error) error {
	conversionFailures.Inc()
	if err != nil {
		return kdb.WrapError(kdb.RetCConversionFailure, err, msg)
	}
	return kdb.NewError(kdb.RetCConversionFailure, msg)
}

// FromForeign copies fk into a new managed key, including its metadata.
// fk is only read, it stays the owner of all its blocks.
func FromForeign(fk *ForeignKey) (*kdb.Key, error) {
	if fk == nil {
		return nil, kdb.ErrNullArgument
	}
	name, err := ForeignName(fk)
	if err != nil {
		return nil, err
	}
	value, err := ForeignValue(fk)
	if err != nil {
		return nil, err
	}
	var meta *kdb.KeySet
	if fk.Meta != nil {
		if meta, err = FromForeignSet(fk.Meta); err != nil {
			return nil, err
		}
	}
	return kdb.AssembleKey(name, value, meta, decodeFlags(fk.Flags)), nil
}

// ForeignName parses the escaped name of fk
func ForeignName(fk *ForeignKey) (kdb.KeyName, error) {
	if fk.Key == nil || fk.KeySize == 0 {
		return kdb.KeyName{}, conversionError("key has no name", nil)
	}
	raw := unsafe.Slice((*byte)(fk.Key), fk.KeySize-1)
	if !utf8.Valid(raw) {
		return kdb.KeyName{}, conversionError("name is not valid UTF-8", nil)
	}
	kn, err := kdb.ParseKeyName(string(raw))
	if err != nil {
		return kdb.KeyName{}, conversionError("name does not parse", err)
	}
	return kn, nil
}

// ForeignValue copies the value of fk. The binary flag decides the kind,
// a key without the flag and without data has no value.
func ForeignValue(fk *ForeignKey) (kdb.Value, error) {
	if fk.Flags&FlagBinary != 0 {
		if fk.DataSize > 0 && fk.Data == nil {
			return kdb.Value{}, conversionError("binary value without data", nil)
		}
		return kdb.BinaryValue(GoBytes(fk.Data, fk.DataSize)), nil
	}
	if fk.DataSize == 0 {
		return kdb.Value{}, nil
	}
	if fk.Data == nil {
		return kdb.Value{}, conversionError("text value without data", nil)
	}
	return kdb.TextValue(string(unsafe.Slice((*byte)(fk.Data), fk.DataSize-1))), nil
}

// unescapedPath returns the namespace of fk and its unescaped name without
// the namespace prefix, that is every part followed by a zero byte. The slice
// points into the foreign block.
func unescapedPath(fk *ForeignKey) (kdb.Namespace, []byte, bool) {
	if fk == nil || fk.UKey == nil || fk.KeyUSize < 3 {
		return kdb.NamespaceNone, nil, false
	}
	raw := unsafe.Slice((*byte)(fk.UKey), fk.KeyUSize)
	ns, ok := kdb.NamespaceFromInt(int(raw[0]))
	if !ok || raw[1] != 0 || raw[len(raw)-1] != 0 {
		return kdb.NamespaceNone, nil, false
	}
	return ns, raw[2:], true
}

// UnescapedParts splits the unescaped name of fk into its namespace and parts
// without allocating a managed key.
func UnescapedParts(fk *ForeignKey) (kdb.Namespace, [][]byte, bool) {
	ns, path, ok := unescapedPath(fk)
	if !ok {
		return kdb.NamespaceNone, nil, false
	}
	body := path[:len(path)-1]
	if len(body) == 0 {
		return ns, nil, true
	}
	return ns, bytes.Split(body, []byte{0}), true
}

// --------------------------------------------------------------------------
// Reference counting
// --------------------------------------------------------------------------

// IncRef increments the reference count of fk, clamped at kdb.MaxRefs
func IncRef(fk *ForeignKey) uintptr {
	fk.KSReference = kdb.SaturatingInc(fk.KSReference)
	return fk.KSReference
}

// DecRef decrements the reference count of fk, clamped at zero
func DecRef(fk *ForeignKey) uintptr {
	fk.KSReference = kdb.SaturatingDec(fk.KSReference)
	return fk.KSReference
}
