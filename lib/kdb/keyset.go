package kdb

import (
	"iter"

	"github.com/emirpasic/gods/maps/treemap"
)

// KeySet is an insertion-ordered collection of keys that holds at most one
// key per path (see Compare). Next to the ordered slice it keeps a tree index
// ordered by path, which serves lookups and hierarchy queries.
//
// Positional access accepts negative indices counting from the end: -1 is the
// last key, -Len() the first. Any index outside [-Len(), Len()) yields no key.
//
// A KeySet is not safe for concurrent use. Only its reference counter is.
type KeySet struct {
	keys  []*Key
	index *treemap.Map
	refs  RefCount
}

func keyComparator(a, b interface{}) int {
	return Compare(a.(*Key), b.(*Key))
}

// NewKeySet creates a set and appends the given keys in order
func NewKeySet(keys ...*Key) *KeySet {
	ks := &KeySet{index: treemap.NewWith(keyComparator)}
	for _, k := range keys {
		ks.Append(k)
	}
	return ks
}

// NewKeySetFromSeq creates a set from an iterator of keys
func NewKeySetFromSeq(seq iter.Seq[*Key]) *KeySet {
	ks := NewKeySet()
	for k := range seq {
		ks.Append(k)
	}
	return ks
}

// Refs returns the manual reference counter of the set
func (ks *KeySet) Refs() *RefCount { return &ks.refs }

// Len returns the number of keys
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keys)
}

// ----------------------------------------------------------------------------
// Insertion
// ----------------------------------------------------------------------------

// Append inserts k unless a key with the same path is already present.
// Duplicates are ignored silently, the existing key stays. It reports whether k was inserted.
func (ks *KeySet) Append(k *Key) bool {
	if k == nil {
		return false
	}
	if _, found := ks.tree().Get(k); found {
		return false
	}
	ks.keys = append(ks.keys, k)
	ks.tree().Put(k, k)
	k.members++
	return true
}

// AppendAll appends every key of other in order and returns how many were inserted.
// The keys are shared between both sets afterwards.
func (ks *KeySet) AppendAll(other *KeySet) int {
	if other == nil {
		return 0
	}
	n := 0
	for _, k := range other.keys {
		if ks.Append(k) {
			n++
		}
	}
	return n
}

// ----------------------------------------------------------------------------
// Lookup
// ----------------------------------------------------------------------------

// Lookup parses name and returns the member with the same path. The key stays owned by the set.
func (ks *KeySet) Lookup(name string) (*Key, bool) {
	kn, err := ParseKeyName(name)
	if err != nil {
		return nil, false
	}
	return ks.LookupName(kn)
}

// LookupName returns the member with the path of kn
func (ks *KeySet) LookupName(kn KeyName) (*Key, bool) {
	return ks.LookupKey(&Key{name: kn})
}

// LookupKey returns the member that compares equal to k
func (ks *KeySet) LookupKey(k *Key) (*Key, bool) {
	if ks == nil || k == nil {
		return nil, false
	}
	v, found := ks.tree().Get(k)
	if !found {
		return nil, false
	}
	return v.(*Key), true
}

// IndexOf returns the position of the member comparing equal to k, or -1
func (ks *KeySet) IndexOf(k *Key) int {
	m, ok := ks.LookupKey(k)
	if !ok {
		return -1
	}
	for i, c := range ks.keys {
		if c == m {
			return i
		}
	}
	return -1
}

// Get returns the key at position i
func (ks *KeySet) Get(i int) (*Key, bool) {
	i, ok := ks.position(i)
	if !ok {
		return nil, false
	}
	return ks.keys[i], true
}

func (ks *KeySet) position(i int) (int, bool) {
	n := ks.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// ----------------------------------------------------------------------------
// Removal
// ----------------------------------------------------------------------------

// Remove removes the key at position i and hands it to the caller
func (ks *KeySet) Remove(i int) (*Key, bool) {
	i, ok := ks.position(i)
	if !ok {
		return nil, false
	}
	k := ks.keys[i]
	last := len(ks.keys) - 1
	copy(ks.keys[i:], ks.keys[i+1:])
	ks.keys[last] = nil
	ks.keys = ks.keys[:last]
	ks.tree().Remove(k)
	k.members--
	return k, true
}

// Pop removes the last key
func (ks *KeySet) Pop() (*Key, bool) {
	return ks.Remove(-1)
}

// Take parses name, removes the member with that path and hands it to the caller
func (ks *KeySet) Take(name string) (*Key, bool) {
	kn, err := ParseKeyName(name)
	if err != nil {
		return nil, false
	}
	return ks.TakeName(kn)
}

// TakeName removes the member with the path of kn
func (ks *KeySet) TakeName(kn KeyName) (*Key, bool) {
	return ks.TakeKey(&Key{name: kn})
}

// TakeKey removes the member comparing equal to k
func (ks *KeySet) TakeKey(k *Key) (*Key, bool) {
	i := ks.IndexOf(k)
	if i < 0 {
		return nil, false
	}
	return ks.Remove(i)
}

// Cut removes every key at or below cutpoint and returns them as a new set,
// in the order they had in ks.
func (ks *KeySet) Cut(cutpoint *Key) *KeySet {
	out := NewKeySet()
	if cutpoint == nil || ks.Len() == 0 {
		return out
	}

	// descendants follow their ancestor directly in path order
	below := make(map[*Key]struct{})
	it := ks.tree().Iterator()
	for it.Next() {
		k := it.Value().(*Key)
		if Compare(k, cutpoint) < 0 {
			continue
		}
		if !IsBelowOrSame(cutpoint, k) {
			break
		}
		below[k] = struct{}{}
	}
	if len(below) == 0 {
		return out
	}

	kept := ks.keys[:0]
	for _, k := range ks.keys {
		if _, ok := below[k]; ok {
			ks.tree().Remove(k)
			k.members--
			out.Append(k)
			continue
		}
		kept = append(kept, k)
	}
	clear(ks.keys[len(kept):])
	ks.keys = kept
	return out
}

// Clear removes all keys. The reference counter is not touched.
func (ks *KeySet) Clear() {
	for _, k := range ks.keys {
		k.members--
	}
	clear(ks.keys)
	ks.keys = ks.keys[:0]
	ks.tree().Clear()
}

// ----------------------------------------------------------------------------
// Iteration and copies
// ----------------------------------------------------------------------------

// All iterates over the keys in insertion order
func (ks *KeySet) All() iter.Seq2[int, *Key] {
	return func(yield func(int, *Key) bool) {
		if ks == nil {
			return
		}
		for i, k := range ks.keys {
			if !yield(i, k) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order
func (ks *KeySet) Keys() []*Key {
	if ks == nil {
		return nil
	}
	return append([]*Key(nil), ks.keys...)
}

// Sorted returns the keys in path order
func (ks *KeySet) Sorted() []*Key {
	if ks == nil {
		return nil
	}
	out := make([]*Key, 0, ks.tree().Size())
	for _, v := range ks.tree().Values() {
		out = append(out, v.(*Key))
	}
	return out
}

// Dup returns a new set sharing the same keys. The reference counter starts at zero.
func (ks *KeySet) Dup() *KeySet {
	out := NewKeySet()
	out.AppendAll(ks)
	return out
}

// Clone returns a new set with deep copies of all keys
func (ks *KeySet) Clone() *KeySet {
	out := NewKeySet()
	if ks == nil {
		return out
	}
	for _, k := range ks.keys {
		out.Append(k.Clone())
	}
	return out
}

// tree returns the path index, creating it for a zero KeySet
func (ks *KeySet) tree() *treemap.Map {
	if ks.index == nil {
		ks.index = treemap.NewWith(keyComparator)
	}
	return ks.index
}
