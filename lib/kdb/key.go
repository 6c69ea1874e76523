package kdb

import (
	"strings"
)

// KeyFlags carries the state bits of a key. The values match the low bits of
// the foreign flag word.
type KeyFlags uint32

const (
	// FlagSync is set by every successful mutation
	FlagSync KeyFlags = 1 << iota
	// FlagLockName forbids changes of the name
	FlagLockName
	// FlagLockValue forbids changes of the value
	FlagLockValue
	// FlagLockMeta forbids changes of the metadata
	FlagLockMeta

	// FlagLockAll is the union of all lock bits
	FlagLockAll = FlagLockName | FlagLockValue | FlagLockMeta
)

// Key is a KeyName plus an optional value and an opaque metadata collection.
//
// Equality and ordering of keys only look at the path of the name, see Compare.
// The name of a key cannot change while the key is a member of a KeySet,
// take it out of the set, rename it and append it again.
type Key struct {
	name    KeyName
	value   Value
	meta    *KeySet
	flags   KeyFlags
	members int
}

// KeyOption configures a key at construction time
type KeyOption func(*keyBuilder)

type keyBuilder struct {
	value Value
	meta  [][2]string
	flags KeyFlags
}

// WithValue attaches a binary value
func WithValue(b []byte) KeyOption {
	return func(kb *keyBuilder) { kb.value = BinaryValue(b) }
}

// WithString attaches a text value
func WithString(s string) KeyOption {
	return func(kb *keyBuilder) { kb.value = TextValue(s) }
}

// WithMeta attaches a metadata entry
func WithMeta(name, value string) KeyOption {
	return func(kb *keyBuilder) { kb.meta = append(kb.meta, [2]string{name, value}) }
}

// WithFlags sets the initial flags, e.g. locks
func WithFlags(f KeyFlags) KeyOption {
	return func(kb *keyBuilder) { kb.flags |= f }
}

// NewKey parses name and applies the options. It fails only if the name (or a metadata name) is invalid.
func NewKey(name string, opts ...KeyOption) (*Key, error) {
	kn, err := ParseKeyName(name)
	if err != nil {
		return nil, err
	}
	kb := keyBuilder{}
	for _, opt := range opts {
		opt(&kb)
	}
	k := &Key{name: kn, value: kb.value}
	for _, m := range kb.meta {
		if err := k.SetMeta(m[0], m[1]); err != nil {
			return nil, err
		}
	}
	k.flags = kb.flags
	return k, nil
}

// MustNewKey is like NewKey but panics on error. Only meant for tests and constants.
func MustNewKey(name string, opts ...KeyOption) *Key {
	k, err := NewKey(name, opts...)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey builds a key from its textual name and an optional value.
// A nil value means no value, any other byte sequence becomes a binary value.
func ParseKey(text string, value []byte) (*Key, error) {
	kn, err := ParseKeyName(text)
	if err != nil {
		return nil, err
	}
	k := &Key{name: kn}
	if value != nil {
		k.value = BinaryValue(value)
	}
	return k, nil
}

// NewKeyWithName creates a key without value from an already parsed name
func NewKeyWithName(name KeyName) *Key {
	return &Key{name: name.Clone()}
}

// AssembleKey builds a key from its parts without any lock checks.
// The metadata set is used as is, not copied.
func AssembleKey(name KeyName, value Value, meta *KeySet, flags KeyFlags) *Key {
	if meta != nil && meta.Len() == 0 {
		meta = nil
	}
	return &Key{name: name.Clone(), value: value.Clone(), meta: meta, flags: flags}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Name returns a copy of the name
func (k *Key) Name() KeyName { return k.name.Clone() }

// String returns the canonical name
func (k *Key) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.name.String()
}

// Namespace returns the namespace of the name
func (k *Key) Namespace() Namespace { return k.name.namespace }

// BaseName returns the last part of the name
func (k *Key) BaseName() (string, bool) { return k.name.BaseName() }

// Value returns the value
func (k *Key) Value() Value { return k.value }

// Flags returns the flag bits
func (k *Key) Flags() KeyFlags { return k.flags }

// NeedsSync reports whether the key was modified since ClearSync
func (k *Key) NeedsSync() bool { return k.flags&FlagSync != 0 }

// ClearSync resets the sync flag
func (k *Key) ClearSync() { k.flags &^= FlagSync }

// IsLocked returns the subset of what that is locked
func (k *Key) IsLocked(what KeyFlags) KeyFlags { return k.flags & what & FlagLockAll }

// Lock locks the given parts. Locks can never be removed.
func (k *Key) Lock(what KeyFlags) KeyFlags {
	k.flags |= what & FlagLockAll
	return k.flags & FlagLockAll
}

// IsMember reports whether the key belongs to at least one KeySet
func (k *Key) IsMember() bool { return k.members > 0 }

// --------------------------------------------------------------------------
// Name mutators
// --------------------------------------------------------------------------

func (k *Key) checkName() error {
	if k.members > 0 {
		return Errorf(RetCLocked, "name of %s cannot change while it is in a key set", k.name)
	}
	if k.flags&FlagLockName != 0 {
		return Errorf(RetCLocked, "name of %s is locked", k.name)
	}
	return nil
}

// SetName replaces the name
func (k *Key) SetName(name KeyName) error {
	if err := k.checkName(); err != nil {
		return err
	}
	k.name = name.Clone()
	k.flags |= FlagSync
	return nil
}

// SetNameString parses and replaces the name
func (k *Key) SetNameString(name string) error {
	kn, err := ParseKeyName(name)
	if err != nil {
		return err
	}
	return k.SetName(kn)
}

// nameOp applies op to a copy of the name and installs it on success
func (k *Key) nameOp(op func(*KeyName) error) error {
	if err := k.checkName(); err != nil {
		return err
	}
	n := k.name.Clone()
	if err := op(&n); err != nil {
		return err
	}
	k.name = n
	k.flags |= FlagSync
	return nil
}

// AddName appends an escaped relative path
func (k *Key) AddName(rel string) error {
	return k.nameOp(func(n *KeyName) error { return n.AddName(rel) })
}

// SetBaseName replaces the last part
func (k *Key) SetBaseName(base string) error {
	return k.nameOp(func(n *KeyName) error { return n.SetBaseName(base) })
}

// AddBaseName appends a literal part
func (k *Key) AddBaseName(base string) error {
	return k.nameOp(func(n *KeyName) error { return n.AddBaseName(base) })
}

// RemoveBaseName drops the last part, a no-op on the root
func (k *Key) RemoveBaseName() error {
	return k.nameOp(func(n *KeyName) error { n.RemoveBaseName(); return nil })
}

// SetNamespace replaces the namespace
func (k *Key) SetNamespace(ns Namespace) error {
	if !ns.Valid() {
		return Errorf(RetCInvalidNamespace, "namespace %d", int32(ns))
	}
	return k.nameOp(func(n *KeyName) error { n.SetNamespace(ns); return nil })
}

// --------------------------------------------------------------------------
// Value mutators
// --------------------------------------------------------------------------

// SetValue replaces the value
func (k *Key) SetValue(v Value) error {
	if k.flags&FlagLockValue != 0 {
		return Errorf(RetCLocked, "value of %s is locked", k.name)
	}
	k.value = v.Clone()
	k.flags |= FlagSync
	return nil
}

// SetString replaces the value with text
func (k *Key) SetString(s string) error { return k.SetValue(TextValue(s)) }

// SetBinary replaces the value with binary data
func (k *Key) SetBinary(b []byte) error { return k.SetValue(BinaryValue(b)) }

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// MetaName turns "x/y" or "meta:/x/y" into the name of a metadata key
func MetaName(name string) (KeyName, error) {
	if strings.HasPrefix(name, "meta:") {
		return ParseKeyName(name)
	}
	kn := RootName(NamespaceMeta)
	if err := kn.AddName(name); err != nil {
		return KeyName{}, err
	}
	if kn.IsRoot() {
		return KeyName{}, Errorf(RetCInvalidName, "empty metadata name %q", name)
	}
	return kn, nil
}

// Meta returns the metadata collection, nil if the key has none
func (k *Key) Meta() *KeySet { return k.meta }

// GetMeta returns the metadata entry with the given name
func (k *Key) GetMeta(name string) (*Key, bool) {
	if k.meta == nil {
		return nil, false
	}
	kn, err := MetaName(name)
	if err != nil {
		return nil, false
	}
	return k.meta.LookupName(kn)
}

// SetMeta sets a text metadata entry, replacing an existing one
func (k *Key) SetMeta(name, value string) error {
	if k.flags&FlagLockMeta != 0 {
		return Errorf(RetCLocked, "metadata of %s is locked", k.name)
	}
	kn, err := MetaName(name)
	if err != nil {
		return err
	}
	if k.meta == nil {
		k.meta = NewKeySet()
	}
	k.meta.TakeName(kn)
	k.meta.Append(&Key{name: kn, value: TextValue(value)})
	k.flags |= FlagSync
	return nil
}

// RemoveMeta deletes a metadata entry and reports whether it existed
func (k *Key) RemoveMeta(name string) (bool, error) {
	if k.flags&FlagLockMeta != 0 {
		return false, Errorf(RetCLocked, "metadata of %s is locked", k.name)
	}
	kn, err := MetaName(name)
	if err != nil {
		return false, err
	}
	if k.meta == nil {
		return false, nil
	}
	_, ok := k.meta.TakeName(kn)
	if ok {
		k.flags |= FlagSync
	}
	return ok, nil
}

// SetMetaSet replaces the whole metadata collection with a deep copy of ms
func (k *Key) SetMetaSet(ms *KeySet) error {
	if k.flags&FlagLockMeta != 0 {
		return Errorf(RetCLocked, "metadata of %s is locked", k.name)
	}
	if ms == nil || ms.Len() == 0 {
		k.meta = nil
	} else {
		k.meta = ms.Clone()
	}
	k.flags |= FlagSync
	return nil
}

// Clone returns a deep copy. The copy is not a member of any set and keeps the flags.
func (k *Key) Clone() *Key {
	c := &Key{
		name:  k.name.Clone(),
		value: k.value.Clone(),
		flags: k.flags,
	}
	if k.meta != nil {
		c.meta = k.meta.Clone()
	}
	return c
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// Compare orders keys by the path of their names, segment by segment.
// The namespace is ignored: "user:/p" and "system:/p" compare equal.
// A nil key sorts before every other key.
func Compare(a, b *Key) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return ComparePaths(a.name, b.name)
}

// IsBelow reports whether check is a strict descendant of key
func IsBelow(key, check *Key) bool {
	if key == nil || check == nil {
		return false
	}
	return len(check.name.parts) > len(key.name.parts) && check.name.hasPrefix(key.name)
}

// IsBelowOrSame reports whether check is key or one of its descendants
func IsBelowOrSame(key, check *Key) bool {
	if key == nil || check == nil {
		return false
	}
	return check.name.hasPrefix(key.name)
}

// IsDirectlyBelow reports whether check is exactly one level below key
func IsDirectlyBelow(key, check *Key) bool {
	if key == nil || check == nil {
		return false
	}
	return len(check.name.parts) == len(key.name.parts)+1 && check.name.hasPrefix(key.name)
}
