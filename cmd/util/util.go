package util

import (
	"strings"

	"github.com/ValentinKolb/kdb/lib/abi"
	"github.com/ValentinKolb/kdb/lib/common"
	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads the env files and prepares the global viper instance
func InitConfig() {
	common.InitViper(viper.GetViper())
}

// BindCommandFlags binds a command's own and inherited flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.InheritedFlags())
}

// Setup binds the flags of cmd, reads the configuration and applies the log level
func Setup(cmd *cobra.Command) (common.Config, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return common.Config{}, err
	}
	conf, err := common.LoadConfig(viper.GetViper())
	if err != nil {
		return conf, err
	}
	return conf, common.InitLoggers(conf)
}

// NewTrackedAPI creates an API over a tracking allocator on the Go heap
func NewTrackedAPI(conf common.Config) (*abi.API, *ffi.TrackingAllocator) {
	tracker := ffi.NewTrackingAllocator(ffi.NewGoHeap())
	return abi.New(tracker, ffi.WithMinAlloc(conf.MinKeySetAlloc)), tracker
}
