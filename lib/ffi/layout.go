package ffi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Foreign layout (must match capi/kdbtypes.h byte for byte)
// --------------------------------------------------------------------------

// ForeignKey mirrors the C struct _Key.
//
// Data is the value union: a NUL-terminated string for text values (DataSize
// counts the terminator) or a raw buffer for binary values (DataSize is the
// exact length). FlagBinary is the tag that tells both apart. Key and UKey are
// the escaped and the unescaped name, KeySize counts the terminator.
// KSReference counts the key sets (and other holders) referencing the key.
type ForeignKey struct {
	Data        unsafe.Pointer
	DataSize    uintptr
	Key         unsafe.Pointer
	KeySize     uintptr
	UKey        unsafe.Pointer
	KeyUSize    uintptr
	KSReference uintptr
	Flags       int32
	_           [4]byte
	Meta        *ForeignKeySet
}

// ForeignKeySet mirrors the C struct _KeySet.
//
// Array holds Alloc slots of *ForeignKey, the first Size are used and the slot
// at Size is always NULL. Cursor and Current are the internal iterator.
type ForeignKeySet struct {
	Array    unsafe.Pointer
	Size     uintptr
	Alloc    uintptr
	Cursor   *ForeignKey
	Current  uintptr
	Flags    int32
	Refs     uint16
	Reserved uint16
}

const (
	// SizeofKey is the size of the C struct _Key on 64-bit platforms
	SizeofKey = unsafe.Sizeof(ForeignKey{})
	// SizeofKeySet is the size of the C struct _KeySet on 64-bit platforms
	SizeofKeySet = unsafe.Sizeof(ForeignKeySet{})

	ptrSize = unsafe.Sizeof(uintptr(0))
)

// --------------------------------------------------------------------------
// Flag bits
// --------------------------------------------------------------------------

// Bits of ForeignKey.Flags. The low four bits match kdb.KeyFlags.
const (
	FlagSync    int32 = 1
	FlagROName  int32 = 1 << 1
	FlagROValue int32 = 1 << 2
	FlagROMeta  int32 = 1 << 3
	FlagBinary  int32 = 1 << 4

	keyFlagMask = FlagSync | FlagROName | FlagROValue | FlagROMeta
)

// Bits of ForeignKeySet.Flags
const (
	SetFlagSync int32 = 1
)

// encodeFlags builds the foreign flag word for a managed key
func encodeFlags(k *kdb.Key) int32 {
	f := int32(k.Flags()) & keyFlagMask
	if k.Value().IsBinary() {
		f |= FlagBinary
	}
	return f
}

// decodeFlags returns the managed flags of a foreign flag word
func decodeFlags(f int32) kdb.KeyFlags {
	return kdb.KeyFlags(f & keyFlagMask)
}

// --------------------------------------------------------------------------
// Namespace encoding
// --------------------------------------------------------------------------

// EncodeNamespace returns the integer used at the boundary
func EncodeNamespace(ns kdb.Namespace) int32 {
	if !ns.Valid() {
		return int32(kdb.NamespaceNone)
	}
	return int32(ns)
}

// DecodeNamespace maps a boundary integer back. Unknown values yield NamespaceNone and false.
func DecodeNamespace(i int32) (kdb.Namespace, bool) {
	return kdb.NamespaceFromInt(int(i))
}

// --------------------------------------------------------------------------
// Layout description (used by the CLI)
// --------------------------------------------------------------------------

// Field describes one field of a foreign struct
type Field struct {
	Name   string
	Offset uintptr
	Size   uintptr
}

// KeyFields lists the fields of ForeignKey in memory order
func KeyFields() []Field {
	var k ForeignKey
	return []Field{
		{"data", unsafe.Offsetof(k.Data), unsafe.Sizeof(k.Data)},
		{"dataSize", unsafe.Offsetof(k.DataSize), unsafe.Sizeof(k.DataSize)},
		{"key", unsafe.Offsetof(k.Key), unsafe.Sizeof(k.Key)},
		{"keySize", unsafe.Offsetof(k.KeySize), unsafe.Sizeof(k.KeySize)},
		{"ukey", unsafe.Offsetof(k.UKey), unsafe.Sizeof(k.UKey)},
		{"keyUSize", unsafe.Offsetof(k.KeyUSize), unsafe.Sizeof(k.KeyUSize)},
		{"ksReference", unsafe.Offsetof(k.KSReference), unsafe.Sizeof(k.KSReference)},
		{"flags", unsafe.Offsetof(k.Flags), unsafe.Sizeof(k.Flags)},
		{"meta", unsafe.Offsetof(k.Meta), unsafe.Sizeof(k.Meta)},
	}
}

// KeySetFields lists the fields of ForeignKeySet in memory order
func KeySetFields() []Field {
	var ks ForeignKeySet
	return []Field{
		{"array", unsafe.Offsetof(ks.Array), unsafe.Sizeof(ks.Array)},
		{"size", unsafe.Offsetof(ks.Size), unsafe.Sizeof(ks.Size)},
		{"alloc", unsafe.Offsetof(ks.Alloc), unsafe.Sizeof(ks.Alloc)},
		{"cursor", unsafe.Offsetof(ks.Cursor), unsafe.Sizeof(ks.Cursor)},
		{"current", unsafe.Offsetof(ks.Current), unsafe.Sizeof(ks.Current)},
		{"flags", unsafe.Offsetof(ks.Flags), unsafe.Sizeof(ks.Flags)},
		{"refs", unsafe.Offsetof(ks.Refs), unsafe.Sizeof(ks.Refs)},
		{"reserved", unsafe.Offsetof(ks.Reserved), unsafe.Sizeof(ks.Reserved)},
	}
}
