package kdb

import (
	"errors"
	"testing"
)

func TestCompareOrdering(t *testing.T) {
	a := MustNewKey("user:/x")
	b := MustNewKey("user:/x/y")

	if Compare(a, b) >= 0 {
		t.Errorf("Compare(%s, %s) should be negative", a, b)
	}
	if Compare(b, a) <= 0 {
		t.Errorf("Compare(%s, %s) should be positive", b, a)
	}
	if !IsBelow(a, b) {
		t.Errorf("%s should be below %s", b, a)
	}
	if IsBelow(b, a) {
		t.Errorf("%s should not be below %s", a, b)
	}
	if !IsBelowOrSame(a, a) || IsBelow(a, a) {
		t.Error("a key is below-or-same itself but not strictly below")
	}
	if !IsDirectlyBelow(a, b) {
		t.Error("x/y is directly below x")
	}
	if IsDirectlyBelow(a, MustNewKey("user:/x/y/z")) {
		t.Error("x/y/z is not directly below x")
	}
}

func TestCompareSegmentWise(t *testing.T) {
	// "a" < "a.b" segment-wise, while a plain string compare would put "a/b" after "a.b"
	sorted := []string{"user:/a", "user:/a/b", "user:/a/b/c", "user:/a.b", "user:/b"}
	for i := 0; i+1 < len(sorted); i++ {
		x, y := MustNewKey(sorted[i]), MustNewKey(sorted[i+1])
		if Compare(x, y) >= 0 {
			t.Errorf("expected %s < %s", x, y)
		}
	}
	if IsBelow(MustNewKey("user:/a"), MustNewKey("user:/ab")) {
		t.Error("user:/ab is not below user:/a")
	}
}

func TestCompareIgnoresNamespace(t *testing.T) {
	u := MustNewKey("user:/p")
	s := MustNewKey("system:/p")
	if Compare(u, s) != 0 {
		t.Errorf("Compare(%s, %s) = %d, want 0", u, s, Compare(u, s))
	}
	if !IsBelow(MustNewKey("user:/p"), MustNewKey("system:/p/q")) {
		t.Error("hierarchy predicates ignore the namespace")
	}
}

func TestCompareNil(t *testing.T) {
	k := MustNewKey("user:/a")
	if Compare(nil, nil) != 0 || Compare(nil, k) >= 0 || Compare(k, nil) <= 0 {
		t.Error("nil keys should sort first")
	}
	if IsBelow(nil, k) || IsBelowOrSame(k, nil) || IsDirectlyBelow(nil, nil) {
		t.Error("predicates with nil keys must be false")
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("user:/app/timeout", []byte("30"))
	if err != nil {
		t.Fatal(err)
	}
	if !k.Value().IsBinary() || k.Value().String() != "30" {
		t.Errorf("unexpected value %v %q", k.Value().Kind(), k.Value().String())
	}

	invalid := []byte{0xff, 0xfe, 0x00}
	k, err = ParseKey("user:/raw", invalid)
	if err != nil {
		t.Fatalf("any byte sequence is a valid value: %v", err)
	}
	if k.Value().Len() != 3 {
		t.Errorf("value length %d", k.Value().Len())
	}

	k, err = ParseKey("user:/none", nil)
	if err != nil || !k.Value().IsNone() {
		t.Errorf("nil value should mean no value, got %v %v", k.Value().Kind(), err)
	}

	if _, err := ParseKey("nonsense", []byte("x")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewKeyOptions(t *testing.T) {
	k, err := NewKey("user:/a", WithString("hello"), WithMeta("type", "string"), WithFlags(FlagLockValue))
	if err != nil {
		t.Fatal(err)
	}
	if !k.Value().IsText() || k.Value().String() != "hello" || k.Value().Size() != 6 {
		t.Errorf("unexpected value %q", k.Value().String())
	}
	m, ok := k.GetMeta("type")
	if !ok || m.Value().String() != "string" || m.Namespace() != NamespaceMeta {
		t.Errorf("metadata not attached: %v", m)
	}
	if k.IsLocked(FlagLockValue) == 0 {
		t.Error("value should be locked")
	}
	if err := k.SetString("x"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}

	if _, err := NewKey("user:/a", WithMeta("", "x")); err == nil {
		t.Error("empty meta name must fail")
	}
}

func TestKeySetters(t *testing.T) {
	k := MustNewKey("user:/a/b")
	if k.NeedsSync() {
		t.Error("fresh key should not need sync")
	}

	if err := k.SetNamespace(NamespaceSystem); err != nil {
		t.Fatal(err)
	}
	if err := k.AddName("c/../d"); err != nil {
		t.Fatal(err)
	}
	if err := k.SetBaseName("e"); err != nil {
		t.Fatal(err)
	}
	if err := k.AddBaseName("f"); err != nil {
		t.Fatal(err)
	}
	if k.String() != "system:/a/b/e/f" {
		t.Errorf("name is %s", k)
	}
	if !k.NeedsSync() {
		t.Error("mutation should set the sync flag")
	}
	if err := k.SetNamespace(Namespace(42)); !errors.Is(err, ErrInvalidNamespace) {
		t.Errorf("expected ErrInvalidNamespace, got %v", err)
	}

	k.Lock(FlagLockName)
	if err := k.SetNameString("user:/z"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if err := k.SetBinary([]byte{1, 2}); err != nil {
		t.Errorf("value is not locked: %v", err)
	}
}

func TestKeyMeta(t *testing.T) {
	k := MustNewKey("user:/a")
	if err := k.SetMeta("meta:/check/type", "long"); err != nil {
		t.Fatal(err)
	}
	if err := k.SetMeta("check/type", "short"); err != nil {
		t.Fatal(err)
	}
	if k.Meta().Len() != 1 {
		t.Errorf("replacing metadata should keep one entry, got %d", k.Meta().Len())
	}
	m, _ := k.GetMeta("check/type")
	if m.Value().String() != "short" {
		t.Errorf("meta value %q", m.Value().String())
	}

	ok, err := k.RemoveMeta("check/type")
	if err != nil || !ok {
		t.Errorf("RemoveMeta = %v, %v", ok, err)
	}
	if _, ok := k.GetMeta("check/type"); ok {
		t.Error("meta still present")
	}

	k.Lock(FlagLockMeta)
	if err := k.SetMeta("x", "y"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestKeyClone(t *testing.T) {
	k := MustNewKey("user:/a", WithString("v"), WithMeta("m", "1"))
	c := k.Clone()
	if err := c.SetString("w"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetMeta("m", "2"); err != nil {
		t.Fatal(err)
	}
	if k.Value().String() != "v" {
		t.Error("clone shares the value")
	}
	if m, _ := k.GetMeta("m"); m.Value().String() != "1" {
		t.Error("clone shares the metadata")
	}
}

func TestRefCountClamping(t *testing.T) {
	var r RefCount
	if r.Decrease() != 0 || r.Get() != 0 {
		t.Error("decrease at zero must stay at zero")
	}
	r.Set(MaxRefs)
	if r.Increase() != MaxRefs || r.Get() != MaxRefs {
		t.Error("increase at max must stay at max")
	}
	r.Set(1)
	if r.Increase() != 2 || r.Decrease() != 1 {
		t.Error("unexpected counts")
	}

	if SaturatingInc(uint16(MaxRefs)) != MaxRefs || SaturatingDec(uintptr(0)) != 0 {
		t.Error("saturating helpers must clamp")
	}
	if SaturatingInc(uintptr(3)) != 4 || SaturatingDec(uint16(3)) != 2 {
		t.Error("saturating helpers must count")
	}
}
