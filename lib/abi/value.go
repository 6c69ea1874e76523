package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
)

// --------------------------------------------------------------------------
// Values
// --------------------------------------------------------------------------

// KeyValue returns the raw value, owned by the key. Keys without value yield nil.
func (a *API) KeyValue(key *ffi.ForeignKey) unsafe.Pointer {
	if key == nil {
		failNil("keyValue", kdb.ErrNullArgument)
		return nil
	}
	return key.Data
}

// KeyGetValueSize returns the size of the value. Text counts the terminator.
func (a *API) KeyGetValueSize(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyGetValueSize", kdb.ErrNullArgument)
	}
	return int(key.DataSize)
}

// KeyString returns the text value. NULL keys yield "(null)", binary values
// "(binary)" and keys without value "". The constants belong to the API.
func (a *API) KeyString(key *ffi.ForeignKey) unsafe.Pointer {
	switch {
	case key == nil:
		return a.nullString
	case key.Flags&ffi.FlagBinary != 0:
		return a.binaryString
	case key.DataSize == 0 || key.Data == nil:
		return a.emptyString
	default:
		return key.Data
	}
}

// KeyGetString copies the text value including the terminator into buf,
// which holds maxSize bytes. It returns the number of bytes written.
func (a *API) KeyGetString(key *ffi.ForeignKey, buf unsafe.Pointer, maxSize int) int {
	if key == nil || buf == nil {
		return fail("keyGetString", kdb.ErrNullArgument)
	}
	if key.Flags&ffi.FlagBinary != 0 {
		return fail("keyGetString", kdb.Errorf(kdb.RetCInvalidValue, "value is binary"))
	}
	if maxSize <= 0 {
		return fail("keyGetString", kdb.Errorf(kdb.RetCInvalidValue, "buffer size %d", maxSize))
	}
	if key.DataSize == 0 {
		*(*byte)(buf) = 0
		return 1
	}
	if int(key.DataSize) > maxSize {
		return fail("keyGetString", kdb.Errorf(kdb.RetCInvalidValue, "buffer of %d bytes too small for %d", maxSize, key.DataSize))
	}
	ffi.CopyInto(buf, unsafe.Slice((*byte)(key.Data), key.DataSize))
	return int(key.DataSize)
}

// valueOp loads key, checks the value lock, sets v and writes the key back.
// It returns the new value size.
func (a *API) valueOp(op string, key *ffi.ForeignKey, v kdb.Value) int {
	if key.Flags&ffi.FlagROValue != 0 {
		return fail(op, kdb.Errorf(kdb.RetCLocked, "value is locked"))
	}
	k, err := ffi.FromForeign(key)
	if err != nil {
		return fail(op, err)
	}
	if err := k.SetValue(v); err != nil {
		return fail(op, err)
	}
	a.bridge.Overwrite(key, k)
	return int(key.DataSize)
}

// KeySetString sets a text value. NULL sets the empty string.
func (a *API) KeySetString(key *ffi.ForeignKey, s unsafe.Pointer) int {
	if key == nil {
		return fail("keySetString", kdb.ErrNullArgument)
	}
	str := ""
	if s != nil {
		var err error
		if str, err = cstring(s); err != nil {
			return fail("keySetString", err)
		}
	}
	return a.valueOp("keySetString", key, kdb.TextValue(str))
}

// KeyGetBinary copies the binary value into buf, which holds maxSize bytes.
// It returns the number of bytes written, 0 for keys without value.
func (a *API) KeyGetBinary(key *ffi.ForeignKey, buf unsafe.Pointer, maxSize int) int {
	if key == nil {
		return fail("keyGetBinary", kdb.ErrNullArgument)
	}
	if key.Flags&ffi.FlagBinary == 0 {
		if key.DataSize == 0 {
			return 0
		}
		return fail("keyGetBinary", kdb.Errorf(kdb.RetCInvalidValue, "value is text"))
	}
	if maxSize < 0 {
		return fail("keyGetBinary", kdb.Errorf(kdb.RetCInvalidValue, "buffer size %d", maxSize))
	}
	if key.DataSize == 0 {
		return 0
	}
	if buf == nil {
		return fail("keyGetBinary", kdb.ErrNullArgument)
	}
	if int(key.DataSize) > maxSize {
		return fail("keyGetBinary", kdb.Errorf(kdb.RetCInvalidValue, "buffer of %d bytes too small for %d", maxSize, key.DataSize))
	}
	ffi.CopyInto(buf, unsafe.Slice((*byte)(key.Data), key.DataSize))
	return int(key.DataSize)
}

// KeySetBinary sets a binary value of size bytes. NULL with size 0 sets an empty binary value.
func (a *API) KeySetBinary(key *ffi.ForeignKey, data unsafe.Pointer, size int) int {
	if key == nil {
		return fail("keySetBinary", kdb.ErrNullArgument)
	}
	if size < 0 || (data == nil && size > 0) {
		return fail("keySetBinary", kdb.Errorf(kdb.RetCInvalidValue, "invalid buffer of size %d", size))
	}
	return a.valueOp("keySetBinary", key, kdb.BinaryValue(ffi.GoBytes(data, uintptr(size))))
}

// KeyIsBinary returns 1 for binary values
func (a *API) KeyIsBinary(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyIsBinary", kdb.ErrNullArgument)
	}
	return boolInt(key.Flags&ffi.FlagBinary != 0)
}

// KeyIsString returns 1 unless the value is binary
func (a *API) KeyIsString(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyIsString", kdb.ErrNullArgument)
	}
	return boolInt(key.Flags&ffi.FlagBinary == 0)
}

// --------------------------------------------------------------------------
// Locks and sync state
// --------------------------------------------------------------------------

var lockBits = [...]struct {
	public  int
	foreign int32
}{
	{LockName, ffi.FlagROName},
	{LockValue, ffi.FlagROValue},
	{LockMeta, ffi.FlagROMeta},
}

// lockedMask returns the public lock bits of key that are also in what
func lockedMask(key *ffi.ForeignKey, what int) int {
	out := 0
	for _, b := range lockBits {
		if what&b.public != 0 && key.Flags&b.foreign != 0 {
			out |= b.public
		}
	}
	return out
}

// KeyLock locks the parts in what. Locks cannot be removed. It returns all locked parts.
func (a *API) KeyLock(key *ffi.ForeignKey, what int) int {
	if key == nil {
		return fail("keyLock", kdb.ErrNullArgument)
	}
	if what&^LockAll != 0 {
		return fail("keyLock", kdb.Errorf(kdb.RetCInvalidValue, "unknown lock bits %#x", what&^LockAll))
	}
	for _, b := range lockBits {
		if what&b.public != 0 {
			key.Flags |= b.foreign
		}
	}
	return lockedMask(key, LockAll)
}

// KeyIsLocked returns the parts of what that are locked
func (a *API) KeyIsLocked(key *ffi.ForeignKey, what int) int {
	if key == nil {
		return fail("keyIsLocked", kdb.ErrNullArgument)
	}
	return lockedMask(key, what)
}

// KeyNeedSync returns 1 if the key was modified since it was created
func (a *API) KeyNeedSync(key *ffi.ForeignKey) int {
	if key == nil {
		return fail("keyNeedSync", kdb.ErrNullArgument)
	}
	return boolInt(key.Flags&ffi.FlagSync != 0)
}
