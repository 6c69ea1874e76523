package ffi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBridge returns a bridge over a tracking allocator and registers a
// cleanup that fails the test on leaks or rejected frees
func newTestBridge(t *testing.T, opts ...Option) (*Bridge, *TrackingAllocator) {
	t.Helper()
	tracker := NewTrackingAllocator(NewGoHeap())
	t.Cleanup(func() {
		assert.NoError(t, tracker.Check(), "leaked blocks: %v", tracker.Leaks())
	})
	return NewBridge(tracker, opts...), tracker
}

func TestLayout(t *testing.T) {
	assert.Equal(t, uintptr(72), SizeofKey)
	assert.Equal(t, uintptr(48), SizeofKeySet)

	offsets := map[string]uintptr{}
	for _, f := range KeyFields() {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, uintptr(0), offsets["data"])
	assert.Equal(t, uintptr(48), offsets["ksReference"])
	assert.Equal(t, uintptr(56), offsets["flags"])
	assert.Equal(t, uintptr(64), offsets["meta"])

	setFields := KeySetFields()
	require.Len(t, setFields, 8)
	assert.Equal(t, "refs", setFields[6].Name)
	assert.Equal(t, uintptr(44), setFields[6].Offset)
	assert.Equal(t, uintptr(2), setFields[6].Size)
}

func TestNamespaceEncoding(t *testing.T) {
	for _, ns := range kdb.Namespaces() {
		got, ok := DecodeNamespace(EncodeNamespace(ns))
		assert.True(t, ok)
		assert.Equal(t, ns, got)
	}
	ns, ok := DecodeNamespace(99)
	assert.False(t, ok)
	assert.Equal(t, kdb.NamespaceNone, ns)
	assert.Equal(t, int32(0), EncodeNamespace(kdb.Namespace(-3)))
}

func TestBinaryRoundTripScenario(t *testing.T) {
	b, _ := newTestBridge(t)

	k, err := kdb.ParseKey("user:/app/timeout", []byte("30"))
	require.NoError(t, err)

	fk := b.ToForeign(k)
	require.NotNil(t, fk)

	assert.Equal(t, uintptr(2), fk.DataSize)
	assert.NotZero(t, fk.Flags&FlagBinary)
	assert.Equal(t, []byte("30"), GoBytes(fk.Data, fk.DataSize))
	assert.Equal(t, "user:/app/timeout", GoString(fk.Key))
	assert.Equal(t, uintptr(len("user:/app/timeout")+1), fk.KeySize)
	assert.Equal(t, uintptr(0), fk.KSReference)

	back, err := FromForeign(fk)
	require.NoError(t, err)
	assert.Equal(t, 0, kdb.Compare(back, kdb.MustNewKey("user:/app/timeout")))
	assert.True(t, back.Value().Equal(kdb.BinaryValue([]byte("30"))))

	b.Destroy(fk)
}

func TestTextAndEmptyValues(t *testing.T) {
	b, _ := newTestBridge(t)

	text := b.ToForeign(kdb.MustNewKey("user:/t", kdb.WithString("hello")))
	assert.Equal(t, uintptr(6), text.DataSize)
	assert.Zero(t, text.Flags&FlagBinary)
	assert.Equal(t, "hello", GoString(text.Data))

	emptyText := b.ToForeign(kdb.MustNewKey("user:/e", kdb.WithString("")))
	assert.Equal(t, uintptr(1), emptyText.DataSize)
	v, err := ForeignValue(emptyText)
	require.NoError(t, err)
	assert.True(t, v.IsText())

	emptyBin := b.ToForeign(kdb.MustNewKey("user:/b", kdb.WithValue(nil)))
	assert.Nil(t, emptyBin.Data)
	assert.Equal(t, uintptr(0), emptyBin.DataSize)
	v, err = ForeignValue(emptyBin)
	require.NoError(t, err)
	assert.True(t, v.IsBinary())

	none := b.ToForeign(kdb.MustNewKey("user:/n"))
	v, err = ForeignValue(none)
	require.NoError(t, err)
	assert.True(t, v.IsNone())

	for _, fk := range []*ForeignKey{text, emptyText, emptyBin, none} {
		b.Destroy(fk)
	}
}

func TestUnescapedName(t *testing.T) {
	b, _ := newTestBridge(t)
	fk := b.ToForeign(kdb.MustNewKey(`system:/a\/b/c`))
	defer b.Destroy(fk)

	ns, parts, ok := UnescapedParts(fk)
	require.True(t, ok)
	assert.Equal(t, kdb.NamespaceSystem, ns)
	assert.Equal(t, [][]byte{[]byte("a/b"), []byte("c")}, parts)

	root := b.ToForeign(kdb.MustNewKey("user:/"))
	defer b.Destroy(root)
	assert.Equal(t, uintptr(3), root.KeyUSize)
	_, parts, ok = UnescapedParts(root)
	require.True(t, ok)
	assert.Empty(t, parts)
}

func TestOverwriteReleasesOldBlocks(t *testing.T) {
	b, tracker := newTestBridge(t)

	fk := b.ToForeign(kdb.MustNewKey("user:/old", kdb.WithString("value")))
	fk.KSReference = 3
	before := tracker.Stats()
	oldName := fk.Key

	b.Overwrite(fk, kdb.MustNewKey("user:/new/name", kdb.WithValue([]byte{1, 2, 3})))

	after := tracker.Stats()
	assert.Equal(t, before.Live, after.Live, "three blocks replaced by three blocks")
	assert.Equal(t, before.Frees+3, after.Frees)
	assert.NotEqual(t, oldName, fk.Key)
	assert.Equal(t, "user:/new/name", GoString(fk.Key))
	assert.Equal(t, uintptr(3), fk.KSReference, "reference count is kept")
	assert.NotZero(t, fk.Flags&FlagBinary)

	b.Overwrite(fk, kdb.MustNewKey("user:/x"))
	assert.Nil(t, fk.Data)
	assert.Zero(t, fk.Flags&FlagBinary)

	b.Destroy(fk)
}

func TestMetaRoundTrip(t *testing.T) {
	b, _ := newTestBridge(t)

	k := kdb.MustNewKey("user:/a", kdb.WithString("v"), kdb.WithMeta("type", "long"), kdb.WithMeta("check/range", "0-10"))
	fk := b.ToForeign(k)
	require.NotNil(t, fk.Meta)
	assert.Equal(t, uintptr(2), fk.Meta.Size)
	assert.Equal(t, uintptr(1), fk.Meta.At(0).KSReference)

	back, err := FromForeign(fk)
	require.NoError(t, err)
	m, ok := back.GetMeta("check/range")
	require.True(t, ok)
	assert.Equal(t, "0-10", m.Value().String())

	b.Overwrite(fk, kdb.MustNewKey("user:/b"))
	assert.NotNil(t, fk.Meta, "overwrite keeps the metadata")

	ms := kdb.NewKeySet(kdb.MustNewKey("meta:/only", kdb.WithString("1")))
	b.ReplaceMeta(fk, ms)
	assert.Equal(t, uintptr(1), fk.Meta.Size)

	b.ReplaceMeta(fk, nil)
	assert.Nil(t, fk.Meta)

	b.Destroy(fk)
}

func TestFromForeignConversionFailures(t *testing.T) {
	b, _ := newTestBridge(t)

	_, err := FromForeign(nil)
	assert.True(t, errors.Is(err, kdb.ErrNullArgument))

	fk := b.ToForeign(kdb.MustNewKey("user:/valid"))
	defer b.Destroy(fk)

	// corrupt the first byte of the name in place
	orig := *(*byte)(fk.Key)
	*(*byte)(fk.Key) = 0xff
	_, err = FromForeign(fk)
	assert.True(t, errors.Is(err, kdb.ErrConversionFailure))
	*(*byte)(fk.Key) = orig

	var empty ForeignKey
	_, err = FromForeign(&empty)
	assert.True(t, errors.Is(err, kdb.ErrConversionFailure))

	_, err = FromForeign(fk)
	assert.NoError(t, err)
}

func TestForeignKeySetGrowth(t *testing.T) {
	b, _ := newTestBridge(t)
	before := ReadCounters()

	ks := b.NewForeignKeySet(0)
	require.NotNil(t, ks)
	assert.Equal(t, uintptr(DefaultMinAlloc), ks.Alloc)

	for i := 0; i < 40; i++ {
		fk := b.ToForeign(kdb.MustNewKey(fmt.Sprintf("user:/k/%02d", i)))
		require.True(t, b.Insert(ks, fk))
	}
	assert.Equal(t, uintptr(40), ks.Size)
	assert.Equal(t, uintptr(64), ks.Alloc)
	assert.Nil(t, ks.slots()[ks.Size], "array stays NULL terminated")
	assert.GreaterOrEqual(t, ReadCounters().KeySetGrowths-before.KeySetGrowths, uint64(2))

	assert.Equal(t, 17, ks.Find(kdb.MustParseKeyName("system:/k/17")))
	assert.Equal(t, -1, ks.Find(kdb.MustParseKeyName("user:/k")))
	assert.Nil(t, ks.At(40))
	assert.Nil(t, ks.At(-1))

	b.DestroySet(ks)
}

func TestForeignKeySetFindMatchesWholeParts(t *testing.T) {
	b, _ := newTestBridge(t)
	ks := b.NewForeignKeySet(0)
	require.NotNil(t, ks)
	defer b.DestroySet(ks)
	for _, n := range []string{"user:/a/b", "user:/ab", "user:/", `user:/a\/b`} {
		require.True(t, b.Insert(ks, b.ToForeign(kdb.MustNewKey(n))))
	}

	tests := []struct {
		name string
		want int
	}{
		{"system:/a/b", 0},
		{"dir:/ab", 1},
		{"cascading:/", 2},
		{`proc:/a\/b`, 3},
		{"user:/a", -1},
		{"user:/a/b/c", -1},
		{"user:/abc", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ks.Find(kdb.MustParseKeyName(tt.name)))
		})
	}
}

func TestForeignKeySetRemoveAtKeepsCursor(t *testing.T) {
	b, _ := newTestBridge(t, WithMinAlloc(4))
	ks := b.NewForeignKeySet(3)
	assert.Equal(t, uintptr(4), ks.Alloc)
	for _, n := range []string{"user:/a", "user:/b", "user:/c"} {
		b.Insert(ks, b.ToForeign(kdb.MustNewKey(n)))
	}

	ks.Cursor = ks.At(2)
	ks.Current = 2

	removed := b.RemoveAt(ks, 0)
	require.NotNil(t, removed)
	assert.Equal(t, uintptr(0), removed.KSReference)
	assert.Equal(t, uintptr(1), ks.Current)
	assert.Equal(t, ks.At(1), ks.Cursor)
	b.Destroy(removed)

	removed = b.RemoveAt(ks, 1)
	assert.Nil(t, ks.Cursor, "removing the cursor key rewinds")
	b.Destroy(removed)

	assert.Nil(t, b.RemoveAt(ks, 5))
	b.DestroySet(ks)
}

func TestSharedKeySurvivesSetDestruction(t *testing.T) {
	b, _ := newTestBridge(t)
	fk := b.ToForeign(kdb.MustNewKey("user:/shared"))

	one, two := b.NewForeignKeySet(0), b.NewForeignKeySet(0)
	b.Insert(one, fk)
	b.Insert(two, fk)
	assert.Equal(t, uintptr(2), fk.KSReference)

	b.DestroySet(one)
	assert.Equal(t, uintptr(1), fk.KSReference)
	assert.Equal(t, "user:/shared", GoString(fk.Key))

	b.DestroySet(two)
}

func TestSetConversions(t *testing.T) {
	b, _ := newTestBridge(t)

	ms := kdb.NewKeySet(kdb.MustNewKey("user:/a", kdb.WithString("1")), kdb.MustNewKey("user:/b", kdb.WithValue([]byte{0})))
	ms.Refs().Set(4)

	fs := b.ToForeignSet(ms)
	require.NotNil(t, fs)
	assert.Equal(t, uintptr(2), fs.Size)
	assert.Equal(t, uint16(4), fs.Refs)

	back, err := FromForeignSet(fs)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
	assert.Equal(t, uint16(4), back.Refs().Get())
	k, ok := back.Lookup("user:/b")
	require.True(t, ok)
	assert.True(t, k.Value().IsBinary())

	b.DestroySet(fs)
}

func TestRefClamping(t *testing.T) {
	fk := &ForeignKey{KSReference: kdb.MaxRefs}
	assert.Equal(t, uintptr(kdb.MaxRefs), IncRef(fk))
	fk.KSReference = 0
	assert.Equal(t, uintptr(0), DecRef(fk))
}

func TestTrackingAllocatorRejectsBadFrees(t *testing.T) {
	tracker := NewTrackingAllocator(NewGoHeap())
	p := tracker.Alloc(24)
	require.NotNil(t, p)
	assert.Equal(t, int64(1), tracker.Stats().Live)
	assert.Len(t, tracker.Leaks(), 1)
	assert.Error(t, tracker.Check())

	tracker.Free(p)
	tracker.Free(p)
	var local int
	tracker.Free(unsafe.Pointer(&local))
	tracker.Free(nil)

	s := tracker.Stats()
	assert.Equal(t, int64(0), s.Live)
	assert.Equal(t, int64(1), s.DoubleFrees)
	assert.Equal(t, int64(1), s.UnknownFrees)
	assert.Equal(t, int64(24), s.MaxSize)
	assert.Error(t, tracker.Check())
	assert.Contains(t, s.String(), "double-frees=1")
}

func TestGoHeapZeroedMemory(t *testing.T) {
	h := NewGoHeap()
	p := h.Alloc(13)
	assert.True(t, bytes.Equal(make([]byte, 13), unsafe.Slice((*byte)(p), 13)))
	assert.Nil(t, h.Alloc(0))
	assert.Equal(t, 1, h.Live())
	h.Free(p)
	assert.Equal(t, 0, h.Live())
}

func TestCheckedString(t *testing.T) {
	h := NewGoHeap()
	p, _ := allocBytes(h, []byte("user:/ok"), true)
	s, err := CheckedString(p)
	require.NoError(t, err)
	assert.Equal(t, "user:/ok", s)

	bad, _ := allocBytes(h, []byte{'a', 0xc3}, true)
	_, err = CheckedString(bad)
	assert.True(t, errors.Is(err, kdb.ErrConversionFailure))

	_, err = CheckedString(nil)
	assert.True(t, errors.Is(err, kdb.ErrNullArgument))

	var sb strings.Builder
	WritePrometheus(&sb)
	assert.Contains(t, sb.String(), "kdb_ffi_keys_created_total")
}
