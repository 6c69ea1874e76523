package kdb

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func names(keys []*Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func TestKeySetAppendLookupTake(t *testing.T) {
	ks := NewKeySet()
	if !ks.Append(MustNewKey("user:/a/b")) {
		t.Fatal("first append must insert")
	}

	k, ok := ks.Lookup("user:/a/b")
	if !ok {
		t.Fatal("lookup failed")
	}
	if base, _ := k.BaseName(); base != "b" {
		t.Errorf("base name %q", base)
	}

	before := ks.Len()
	taken, ok := ks.Take("user:/a/b")
	if !ok || taken != k {
		t.Fatal("take should return the member")
	}
	if ks.Len() != before-1 {
		t.Errorf("size %d after take, want %d", ks.Len(), before-1)
	}
	if _, ok := ks.Lookup("user:/a/b"); ok {
		t.Error("key still found after take")
	}
	if _, ok := ks.Take("user:/a/b"); ok {
		t.Error("second take must fail")
	}
	if _, ok := ks.Lookup("not a name"); ok {
		t.Error("invalid names are never found")
	}
}

func TestKeySetNamespaceBlindUniqueness(t *testing.T) {
	u := MustNewKey("user:/p", WithString("u"))
	s := MustNewKey("system:/p", WithString("s"))
	ks := NewKeySet(u, s)

	if ks.Len() != 1 {
		t.Fatalf("size %d, want 1", ks.Len())
	}
	got, _ := ks.Lookup("system:/p")
	if got != u {
		t.Error("the first appended key must stay")
	}
}

func TestKeySetDuplicateIgnored(t *testing.T) {
	first := MustNewKey("user:/a", WithString("1"))
	ks := NewKeySet(first)
	if ks.Append(MustNewKey("user:/a", WithString("2"))) {
		t.Error("duplicate append must report false")
	}
	if ks.Append(first) {
		t.Error("appending the same key twice must report false")
	}
	if k, _ := ks.Get(0); k.Value().String() != "1" {
		t.Error("duplicate must not replace")
	}
	if ks.Append(nil) {
		t.Error("nil is never inserted")
	}
}

func TestKeySetPositional(t *testing.T) {
	ks := NewKeySet(MustNewKey("user:/c"), MustNewKey("user:/a"), MustNewKey("user:/b"))

	tests := []struct {
		index int
		want  string
		ok    bool
	}{
		{0, "user:/c", true},
		{2, "user:/b", true},
		{-1, "user:/b", true},
		{-3, "user:/c", true},
		{3, "", false},
		{-4, "", false},
	}
	for _, tc := range tests {
		k, ok := ks.Get(tc.index)
		if ok != tc.ok {
			t.Errorf("Get(%d) ok = %v", tc.index, ok)
			continue
		}
		if ok && k.String() != tc.want {
			t.Errorf("Get(%d) = %s, want %s", tc.index, k, tc.want)
		}
	}

	k, ok := ks.Remove(-2)
	if !ok || k.String() != "user:/a" {
		t.Errorf("Remove(-2) = %v", k)
	}
	if diff := cmp.Diff([]string{"user:/c", "user:/b"}, names(ks.Keys())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ks.Remove(5); ok {
		t.Error("out of range remove must fail")
	}

	k, ok = ks.Pop()
	if !ok || k.String() != "user:/b" {
		t.Errorf("Pop() = %v", k)
	}
	if ks.IndexOf(MustNewKey("user:/c")) != 0 || ks.IndexOf(MustNewKey("user:/x")) != -1 {
		t.Error("IndexOf mismatch")
	}
}

func TestKeySetRemoveReleasesSlot(t *testing.T) {
	ks := NewKeySet(MustNewKey("user:/a"), MustNewKey("user:/b"), MustNewKey("user:/c"))
	backing := ks.keys[:3]

	if _, ok := ks.Remove(0); !ok {
		t.Fatal("Remove(0) failed")
	}
	if backing[2] != nil {
		t.Errorf("removed slot still holds %s", backing[2])
	}
	if diff := cmp.Diff([]string{"user:/b", "user:/c"}, names(ks.Keys())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestKeySetSortedAndCut(t *testing.T) {
	ks := NewKeySet()
	for _, n := range []string{"user:/b", "user:/a/x", "user:/a", "user:/a.b", "user:/a/x/y", "user:/c"} {
		ks.Append(MustNewKey(n))
	}

	want := []string{"user:/a", "user:/a/x", "user:/a/x/y", "user:/a.b", "user:/b", "user:/c"}
	if diff := cmp.Diff(want, names(ks.Sorted())); diff != "" {
		t.Errorf("sorted mismatch (-want +got):\n%s", diff)
	}

	cut := ks.Cut(MustNewKey("user:/a"))
	if diff := cmp.Diff([]string{"user:/a/x", "user:/a", "user:/a/x/y"}, names(cut.Keys())); diff != "" {
		t.Errorf("cut mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"user:/b", "user:/a.b", "user:/c"}, names(ks.Keys())); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}

	if ks.Cut(MustNewKey("user:/zzz")).Len() != 0 {
		t.Error("cut of an absent hierarchy must be empty")
	}
}

func TestKeySetMembershipLocksName(t *testing.T) {
	k := MustNewKey("user:/a")
	ks := NewKeySet(k)
	if err := k.SetNameString("user:/b"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked while member, got %v", err)
	}
	if err := k.SetString("value"); err != nil {
		t.Errorf("values stay mutable: %v", err)
	}

	taken, _ := ks.Take("user:/a")
	if err := taken.SetNameString("user:/b"); err != nil {
		t.Fatalf("rename after take failed: %v", err)
	}
	ks.Append(taken)
	if _, ok := ks.Lookup("user:/b"); !ok {
		t.Error("renamed key not found")
	}

	dup := ks.Dup()
	ks.Clear()
	if ks.Len() != 0 || dup.Len() != 1 {
		t.Errorf("sizes %d %d", ks.Len(), dup.Len())
	}
	if !taken.IsMember() {
		t.Error("key still belongs to the duplicate")
	}
	dup.Clear()
	if taken.IsMember() {
		t.Error("key should not be a member anymore")
	}
}

func TestKeySetClearKeepsRefs(t *testing.T) {
	ks := NewKeySet(MustNewKey("user:/a"))
	ks.Refs().Increase()
	ks.Clear()
	if ks.Refs().Get() != 1 {
		t.Errorf("refs %d after clear", ks.Refs().Get())
	}
	ks.Append(MustNewKey("user:/b"))
	if ks.Len() != 1 {
		t.Error("set must be usable after clear")
	}
}

func TestKeySetZeroValue(t *testing.T) {
	var ks KeySet
	if !ks.Append(MustNewKey("user:/a")) {
		t.Fatal("zero KeySet must accept keys")
	}
	if _, ok := ks.Lookup("user:/a"); !ok {
		t.Error("lookup failed")
	}
}

func TestKeySetCloneAndIteration(t *testing.T) {
	ks := NewKeySet(MustNewKey("user:/a", WithString("1")), MustNewKey("user:/b", WithString("2")))
	c := ks.Clone()
	k, _ := c.Lookup("user:/a")
	if err := k.SetString("changed"); err != nil {
		t.Fatal(err)
	}
	orig, _ := ks.Lookup("user:/a")
	if orig.Value().String() != "1" {
		t.Error("clone shares keys")
	}

	var seen []string
	for i, k := range ks.All() {
		if i > 0 {
			break
		}
		seen = append(seen, k.String())
	}
	if diff := cmp.Diff([]string{"user:/a"}, seen); diff != "" {
		t.Errorf("iteration mismatch (-want +got):\n%s", diff)
	}

	seq := func(yield func(*Key) bool) {
		for _, n := range []string{"user:/x", "system:/x", "user:/y"} {
			if !yield(MustNewKey(n)) {
				return
			}
		}
	}
	if NewKeySetFromSeq(seq).Len() != 2 {
		t.Error("iterator constructor must deduplicate")
	}
}

func TestKeySetRefsConcurrent(t *testing.T) {
	ks := NewKeySet()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10000; j++ {
				ks.Refs().Increase()
			}
		}()
	}
	wg.Wait()
	if ks.Refs().Get() != MaxRefs {
		t.Errorf("refs %d, want clamp at %d", ks.Refs().Get(), MaxRefs)
	}
}
