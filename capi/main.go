// Command capi builds the C library:
//
//	go build -buildmode=c-shared -o libkdb.so ./capi
//
// Programs include elektra.h and link against the resulting library.
package main

/*
#include "kdbtypes.h"
*/
import "C"

import (
	"github.com/ValentinKolb/kdb/lib/abi"
	"github.com/ValentinKolb/kdb/lib/common"
	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/viper"
)

var log = logger.GetLogger("capi")

var (
	api     *abi.API
	tracker *ffi.TrackingAllocator
)

func init() {
	v := viper.New()
	common.InitViper(v)
	conf, err := common.LoadConfig(v)
	if err != nil {
		// the library has no caller to report to yet, keep going with defaults
		conf = common.DefaultConfig()
	}
	if lerr := common.InitLoggers(conf); lerr != nil {
		log.Warningf("invalid logger configuration: %v", lerr)
	}
	if err != nil {
		log.Warningf("invalid configuration, using defaults: %v", err)
	}
	log.Debugf("configuration:\n%s", conf)

	var alloc ffi.Allocator = cHeap{}
	if conf.TrackAllocations {
		tracker = ffi.NewTrackingAllocator(alloc)
		alloc = tracker
	}
	api = abi.New(alloc, ffi.WithMinAlloc(conf.MinKeySetAlloc))
}

// elektraAllocationsLive returns the number of live blocks when allocation
// tracking is enabled (KDB_TRACK_ALLOCATIONS), otherwise -1
//
//export elektraAllocationsLive
func elektraAllocationsLive() C.longlong {
	if tracker == nil {
		return -1
	}
	return C.longlong(tracker.Stats().Live)
}

func main() {}
