// Package abi implements the entry points of the C interface on top of the
// foreign bridge.
//
// Every method of API mirrors one C function. Arguments arrive as foreign
// structs and raw C strings, results leave as foreign structs, pointers into
// them, or integers. Failures never escape as errors: integer results use -1
// and pointer results use nil, and the cause is logged at debug level under
// the "abi" logger.
//
// Ownership follows reference counts:
//
//   - a key appended to a key set gains one reference
//   - keyDel and ksDel free nothing while references remain and return the count
//   - a key removed from a set loses its reference; it is destroyed only if the
//     count drops to zero and the key is not handed to the caller
//   - a key rejected as duplicate by ksAppendKey stays with the caller, one
//     rejected by ksNew is destroyed unless referenced
//
// The package does not depend on cgo; the capi package only translates C
// types and forwards here.
package abi
