//go:build cgo

package main

import (
	"testing"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardSetsSentinel(t *testing.T) {
	intResult := func() (ret int) {
		defer guard("intResult", func() { ret = -1 })
		var m map[string]int
		m["x"] = 1
		return 0
	}
	ptrResult := func() (ret *int) {
		defer guard("ptrResult", nil)
		panic("boom")
	}

	assert.NotPanics(t, func() {
		assert.Equal(t, -1, intResult())
		assert.Nil(t, ptrResult())
	})

	quiet := func() (ret int) {
		defer guard("quiet", func() { ret = -1 })
		return 7
	}
	assert.Equal(t, 7, quiet())
}

func TestExportRecoversFromPanic(t *testing.T) {
	heap := ffi.NewGoHeap()
	name := ffi.AllocCString(heap, "user:/guarded")
	defer heap.Free(name)

	k := elektraKeyNewFromArgs(cChar(name), nil, 0)
	require.NotNil(t, k)
	assert.Equal(t, "user:/guarded", ffi.GoString(goKey(k).Key))

	// without an API the calls that reach the bridge dereference nil
	saved := api
	api = nil
	assert.NotPanics(t, func() {
		assert.Equal(t, -1, int(keyDel(k)))
		assert.Nil(t, keyDup(k, 0))
		assert.Nil(t, ksNew0())
	})
	api = saved

	assert.Equal(t, 0, int(keyGetRef(k)))
	assert.Equal(t, 0, int(keyDel(k)))
}

// ksNew0 creates an empty set the way ksNew(0, KS_END) does
func ksNew0() *ffi.ForeignKeySet {
	return goSet(elektraKsNewFromArray(0, nil, 0))
}

func TestNullArgumentsReturnSentinels(t *testing.T) {
	assert.Equal(t, -1, int(keyDel(nil)))
	assert.Equal(t, -1, int(ksDel(nil)))
	assert.Nil(t, keyDup(nil, 0))
	assert.Nil(t, elektraKeyNewFromArgs(nil, nil, 0))

	ks := ksNew0()
	require.NotNil(t, ks)
	assert.Equal(t, 0, int(ksGetSize(cSet(ks))))
	assert.Equal(t, 0, int(ksDel(cSet(ks))))
}
