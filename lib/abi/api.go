package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("abi")

// --------------------------------------------------------------------------
// Public constants of the C interface
// --------------------------------------------------------------------------

// Flags of the variadic keyNew argument list
const (
	KeyNewEnd   = 0
	KeyNewName  = 1
	KeyNewValue = 2
	KeyNewFlags = KeyNewName | KeyNewValue
)

// Flags of keyDup and keyCopy
const (
	CopyName   = 1
	CopyString = 1 << 1
	CopyValue  = 1 << 2
	CopyMeta   = 1 << 3
	CopyAll    = CopyName | CopyValue | CopyMeta
)

// Flags of keyLock and keyIsLocked
const (
	LockName  = 1 << 17
	LockValue = 1 << 18
	LockMeta  = 1 << 19
	LockAll   = LockName | LockValue | LockMeta
)

// Options of ksLookup and ksLookupByName
const (
	LookupDel = 1
	LookupPop = 1 << 1
)

// --------------------------------------------------------------------------
// API
// --------------------------------------------------------------------------

// API implements every entry point of the C interface in Go. It validates all
// arguments, never panics on bad input and turns every failure into the
// sentinel of the entry point: -1 for integer results and nil for pointers.
//
// An API is not safe for concurrent use on the same keys or key sets, just
// like the C interface it backs.
type API struct {
	bridge *ffi.Bridge
	alloc  ffi.Allocator

	// constant strings returned by keyString, owned by the API
	emptyString  unsafe.Pointer
	binaryString unsafe.Pointer
	nullString   unsafe.Pointer
}

// New creates an API that allocates all foreign memory from alloc
func New(alloc ffi.Allocator, opts ...ffi.Option) *API {
	return &API{
		bridge:       ffi.NewBridge(alloc, opts...),
		alloc:        alloc,
		emptyString:  ffi.AllocCString(alloc, ""),
		binaryString: ffi.AllocCString(alloc, "(binary)"),
		nullString:   ffi.AllocCString(alloc, "(null)"),
	}
}

// Close frees the constant strings. Pointers returned by KeyString are invalid afterwards.
func (a *API) Close() {
	for _, p := range []*unsafe.Pointer{&a.emptyString, &a.binaryString, &a.nullString} {
		old := *p
		*p = nil
		a.alloc.Free(old)
	}
}

// Bridge returns the bridge used by the API
func (a *API) Bridge() *ffi.Bridge { return a.bridge }

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// fail logs err and returns the integer sentinel
func fail(op string, err error) int {
	log.Debugf("%s: %v", op, err)
	return -1
}

// failNil logs err, the caller returns nil
func failNil(op string, err error) {
	log.Debugf("%s: %v", op, err)
}

// load copies fk into a managed key
func load(fk *ffi.ForeignKey) (*kdb.Key, error) {
	if fk == nil {
		return nil, kdb.ErrNullArgument
	}
	return ffi.FromForeign(fk)
}

// nameWritable reports an error if the name of fk must not change.
// Keys referenced by a key set (or any other holder) keep their name.
func nameWritable(fk *ffi.ForeignKey) error {
	if fk.KSReference > 0 {
		return kdb.Errorf(kdb.RetCLocked, "name of a referenced key cannot change")
	}
	if fk.Flags&ffi.FlagROName != 0 {
		return kdb.Errorf(kdb.RetCLocked, "name is locked")
	}
	return nil
}

// cstring copies a C string argument and validates it
func cstring(p unsafe.Pointer) (string, error) {
	return ffi.CheckedString(p)
}

// boolInt converts a predicate result
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
