package ffi

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("ffi")

// Process wide counters of the bridge
var (
	keysCreated        = metrics.NewCounter(`kdb_ffi_keys_created_total`)
	keysDestroyed      = metrics.NewCounter(`kdb_ffi_keys_destroyed_total`)
	keySetsCreated     = metrics.NewCounter(`kdb_ffi_keysets_created_total`)
	keySetsDestroyed   = metrics.NewCounter(`kdb_ffi_keysets_destroyed_total`)
	keySetGrowths      = metrics.NewCounter(`kdb_ffi_keyset_growths_total`)
	overwrites         = metrics.NewCounter(`kdb_ffi_overwrites_total`)
	conversionFailures = metrics.NewCounter(`kdb_ffi_conversion_failures_total`)
)

// Counters is a snapshot of the bridge counters
type Counters struct {
	KeysCreated        uint64
	KeysDestroyed      uint64
	KeySetsCreated     uint64
	KeySetsDestroyed   uint64
	KeySetGrowths      uint64
	Overwrites         uint64
	ConversionFailures uint64
}

// ReadCounters returns the current values of the bridge counters
func ReadCounters() Counters {
	return Counters{
		KeysCreated:        keysCreated.Get(),
		KeysDestroyed:      keysDestroyed.Get(),
		KeySetsCreated:     keySetsCreated.Get(),
		KeySetsDestroyed:   keySetsDestroyed.Get(),
		KeySetGrowths:      keySetGrowths.Get(),
		Overwrites:         overwrites.Get(),
		ConversionFailures: conversionFailures.Get(),
	}
}

// WritePrometheus writes all counters in Prometheus text format
func WritePrometheus(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
