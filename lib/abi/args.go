package abi

import (
	"unsafe"

	"github.com/ValentinKolb/kdb/lib/kdb"
)

// KeyNewArg is one entry of the variadic keyNew argument list after the C
// adapter collected it. Value is only meaningful for flags that take a value.
type KeyNewArg struct {
	Flag  int32
	Value unsafe.Pointer
}

// KeyNewConfig is the structured form of a keyNew argument list
type KeyNewConfig struct {
	HasValue bool
	Value    string
}

// TakesValue reports whether flag is followed by a value argument in the C
// list. KeyNewFlags is NAME|VALUE and takes one like KeyNewValue.
func TakesValue(flag int32) bool {
	return flag == KeyNewValue || flag == KeyNewFlags
}

// DecodeKeyNewArgs turns the argument list into a KeyNewConfig. KeyNewEnd and
// any unrecognized flag stop the scan without error. A NULL value stands for
// the empty string. The last value wins.
func DecodeKeyNewArgs(args []KeyNewArg) (KeyNewConfig, error) {
	var conf KeyNewConfig
	for _, arg := range args {
		switch arg.Flag {
		case KeyNewName:
		case KeyNewValue, KeyNewFlags:
			conf.HasValue = true
			conf.Value = ""
			if arg.Value != nil {
				s, err := cstring(arg.Value)
				if err != nil {
					return KeyNewConfig{}, err
				}
				conf.Value = s
			}
		default:
			// KeyNewEnd or unknown
			return conf, nil
		}
	}
	return conf, nil
}

// Options returns the key options described by conf
func (conf KeyNewConfig) Options() []kdb.KeyOption {
	if !conf.HasValue {
		return nil
	}
	return []kdb.KeyOption{kdb.WithString(conf.Value)}
}
