package ffi

import (
	"bytes"
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Raw array access
// --------------------------------------------------------------------------

// slots returns all Alloc slots of the array
func (ks *ForeignKeySet) slots() []*ForeignKey {
	if ks.Array == nil || ks.Alloc == 0 {
		return nil
	}
	return unsafe.Slice((**ForeignKey)(ks.Array), ks.Alloc)
}

// Keys returns the used slots in order
func (ks *ForeignKeySet) Keys() []*ForeignKey {
	if ks == nil || ks.Size == 0 {
		return nil
	}
	return append([]*ForeignKey(nil), ks.slots()[:ks.Size]...)
}

// At returns the key at position i, nil if i is out of range
func (ks *ForeignKeySet) At(i int) *ForeignKey {
	if ks == nil || i < 0 || uintptr(i) >= ks.Size {
		return nil
	}
	return ks.slots()[i]
}

// IndexOfPointer returns the position of exactly fk, or -1
func (ks *ForeignKeySet) IndexOfPointer(fk *ForeignKey) int {
	if ks == nil || fk == nil {
		return -1
	}
	for i, c := range ks.slots()[:ks.Size] {
		if c == fk {
			return i
		}
	}
	return -1
}

// Find returns the position of the key whose path equals name, or -1.
// The array keeps insertion order, so this is a linear scan; members are
// compared in place against the unescaped name, without allocating.
func (ks *ForeignKeySet) Find(name kdb.KeyName) int {
	if ks == nil {
		return -1
	}
	want := name.Unescaped()[2:]
	for i, c := range ks.slots()[:ks.Size] {
		if _, path, ok := unescapedPath(c); ok && bytes.Equal(path, want) {
			return i
		}
	}
	return -1
}

// Rewind resets the internal cursor
func (ks *ForeignKeySet) Rewind() {
	ks.Cursor = nil
	ks.Current = 0
}

// --------------------------------------------------------------------------
// Creation and destruction
// --------------------------------------------------------------------------

// capacityFor returns the array capacity for n keys plus the terminator
func (b *Bridge) capacityFor(n uintptr) uintptr {
	c := b.minAlloc
	for c < n+1 {
		c *= 2
	}
	return c
}

// NewForeignKeySet allocates an empty set with room for at least hint keys.
// It returns nil if memory is exhausted.
func (b *Bridge) NewForeignKeySet(hint int) *ForeignKeySet {
	if hint < 0 {
		hint = 0
	}
	ks := (*ForeignKeySet)(b.alloc.Alloc(SizeofKeySet))
	if ks == nil {
		return nil
	}
	capacity := b.capacityFor(uintptr(hint))
	ks.Array = b.alloc.Alloc(capacity * ptrSize)
	if ks.Array == nil {
		b.alloc.Free(unsafe.Pointer(ks))
		return nil
	}
	ks.Alloc = capacity
	keySetsCreated.Inc()
	return ks
}

// ClearSet drops every key of ks. Keys whose count drops to zero are destroyed.
// The array and its capacity are kept.
func (b *Bridge) ClearSet(ks *ForeignKeySet) {
	ks.Rewind()
	slots := ks.slots()
	for i := uintptr(0); i < ks.Size; i++ {
		fk := slots[i]
		slots[i] = nil
		if DecRef(fk) == 0 {
			b.Destroy(fk)
		}
	}
	ks.Size = 0
	ks.Flags |= SetFlagSync
}

// DestroySet drops every key of ks and frees the array and ks itself.
// The reference count of the set is not consulted.
func (b *Bridge) DestroySet(ks *ForeignKeySet) {
	if ks == nil {
		return
	}
	b.ClearSet(ks)
	arr := ks.Array
	*ks = ForeignKeySet{}
	b.alloc.Free(arr)
	b.alloc.Free(unsafe.Pointer(ks))
	keySetsDestroyed.Inc()
}

// --------------------------------------------------------------------------
// Mutation
// --------------------------------------------------------------------------

// reserve makes room for n keys plus the terminator. The new array is written
// into ks before the old one is freed.
func (b *Bridge) reserve(ks *ForeignKeySet, n uintptr) bool {
	if n+1 <= ks.Alloc {
		return true
	}
	capacity := ks.Alloc
	if capacity < b.minAlloc {
		capacity = b.minAlloc
	}
	for capacity < n+1 {
		capacity *= 2
	}
	arr := b.alloc.Alloc(capacity * ptrSize)
	if arr == nil {
		return false
	}
	copy(unsafe.Slice((**ForeignKey)(arr), capacity), ks.slots()[:ks.Size])

	old := ks.Array
	ks.Array = arr
	ks.Alloc = capacity
	b.alloc.Free(old)
	keySetGrowths.Inc()
	return true
}

// Insert appends fk at the end of ks and takes a reference on it.
// It does not check for duplicates, see abi for the append policy.
func (b *Bridge) Insert(ks *ForeignKeySet, fk *ForeignKey) bool {
	if !b.reserve(ks, ks.Size+1) {
		return false
	}
	slots := ks.slots()
	slots[ks.Size] = fk
	ks.Size++
	slots[ks.Size] = nil
	IncRef(fk)
	ks.Flags |= SetFlagSync
	return true
}

// InsertAt puts fk at position i of ks, shifting later keys, and takes a
// reference on it. Positions past the end append.
func (b *Bridge) InsertAt(ks *ForeignKeySet, i int, fk *ForeignKey) bool {
	if i < 0 || uintptr(i) > ks.Size {
		i = int(ks.Size)
	}
	if !b.reserve(ks, ks.Size+1) {
		return false
	}
	slots := ks.slots()
	copy(slots[i+1:ks.Size+1], slots[i:ks.Size])
	slots[i] = fk
	ks.Size++
	slots[ks.Size] = nil
	if ks.Cursor != nil && uintptr(i) <= ks.Current {
		ks.Current++
	}
	IncRef(fk)
	ks.Flags |= SetFlagSync
	return true
}

// RemoveAt takes the key at position i out of ks and drops the reference of
// the set. The key is returned even if its count is zero now, the caller
// decides whether to keep or destroy it.
func (b *Bridge) RemoveAt(ks *ForeignKeySet, i int) *ForeignKey {
	if i < 0 || uintptr(i) >= ks.Size {
		return nil
	}
	slots := ks.slots()
	fk := slots[i]
	copy(slots[i:ks.Size], slots[i+1:ks.Size])
	ks.Size--
	slots[ks.Size] = nil

	if ks.Cursor != nil {
		switch {
		case uintptr(i) == ks.Current:
			ks.Rewind()
		case uintptr(i) < ks.Current:
			ks.Current--
		}
	}
	DecRef(fk)
	ks.Flags |= SetFlagSync
	return fk
}

// --------------------------------------------------------------------------
// Set conversions
// --------------------------------------------------------------------------

// ToForeignSet converts every key of ms into a new foreign set. The managed
// keys are copied, ms stays usable. The reference count of ms is carried over.
func (b *Bridge) ToForeignSet(ms *kdb.KeySet) *ForeignKeySet {
	fs := b.NewForeignKeySet(ms.Len())
	if fs == nil {
		return nil
	}
	for _, k := range ms.All() {
		fk := b.ToForeign(k.Clone())
		if fk == nil || !b.Insert(fs, fk) {
			b.Destroy(fk)
			b.DestroySet(fs)
			return nil
		}
	}
	if ms != nil {
		fs.Refs = ms.Refs().Get()
	}
	return fs
}

// FromForeignSet copies fs into a new managed set. Keys that compare equal
// to an earlier key are dropped like in kdb.KeySet.Append.
func FromForeignSet(fs *ForeignKeySet) (*kdb.KeySet, error) {
	if fs == nil {
		return nil, kdb.ErrNullArgument
	}
	ms := kdb.NewKeySet()
	for _, fk := range fs.Keys() {
		k, err := FromForeign(fk)
		if err != nil {
			return nil, err
		}
		ms.Append(k)
	}
	ms.Refs().Set(fs.Refs)
	return ms, nil
}
