// Package kdb implements the in-memory model of a hierarchical configuration
// store: namespaces, key names, keys and key sets.
//
// Key names have the canonical form "<namespace>:/<path>", for example
// "user:/app/timeout". The path is normalized on parsing: empty and "."
// segments are dropped, ".." removes the previous segment and a backslash
// escapes the next character. A literal "." or ".." part is written "\." or
// "\..".
//
// Key Components:
//
//   - Namespace: closed enumeration (none, cascading, meta, spec, proc, dir,
//     user, system, default) with a fixed integer encoding 0..8.
//
//   - KeyName: namespace plus normalized path, with parsing, formatting and
//     the unescaped binary form used by foreign callers.
//
//   - Key: a name, an optional Value (text or binary) and opaque metadata.
//     Keys are ordered and compared by their path only. The namespace takes
//     no part in it, so "user:/p" and "system:/p" are the same key for every
//     collection.
//
//   - KeySet: insertion-ordered collection with at most one key per path,
//     positional and name based access and a clamped manual reference counter.
//
// Nothing in this package touches foreign memory. The conversion to the
// fixed C layout lives in package ffi.
package kdb
