package common

import (
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/viper"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logger.LogLevel
		ok    bool
	}{
		{"debug", logger.DEBUG, true},
		{"INFO", logger.INFO, true},
		{"warn", logger.WARNING, true},
		{"warning", logger.WARNING, true},
		{"error", logger.ERROR, true},
		{"verbose", logger.WARNING, false},
		{"", logger.WARNING, false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLogLevel(tc.input)
			if (err == nil) != tc.ok {
				t.Fatalf("ParseLogLevel(%q) error = %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	InitViper(v)
	conf, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if conf != DefaultConfig() {
		t.Errorf("got %+v, want defaults %+v", conf, DefaultConfig())
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("KDB_LOG_LEVEL", "debug")
	t.Setenv("KDB_TRACK_ALLOCATIONS", "true")
	t.Setenv("KDB_MIN_KEYSET_ALLOC", "4")

	v := viper.New()
	InitViper(v)
	conf, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if conf.LogLevel != "debug" || !conf.TrackAllocations || conf.MinKeySetAlloc != 4 {
		t.Errorf("unexpected config %+v", conf)
	}
	if !strings.Contains(conf.String(), "Track allocations") {
		t.Errorf("String() misses a field:\n%s", conf.String())
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Run("LogLevel", func(t *testing.T) {
		t.Setenv("KDB_LOG_LEVEL", "loud")
		v := viper.New()
		InitViper(v)
		if _, err := LoadConfig(v); err == nil {
			t.Error("invalid log level must be rejected")
		}
	})
	t.Run("MinAlloc", func(t *testing.T) {
		t.Setenv("KDB_MIN_KEYSET_ALLOC", "1")
		v := viper.New()
		InitViper(v)
		if _, err := LoadConfig(v); err == nil {
			t.Error("min alloc below 2 must be rejected")
		}
	})
}

func TestInitLoggers(t *testing.T) {
	if err := InitLoggers(Config{LogLevel: "nope"}); err == nil {
		t.Error("invalid level must fail")
	}
	if err := InitLoggers(DefaultConfig()); err != nil {
		t.Fatalf("InitLoggers failed: %v", err)
	}
	l := CreateLogger("test")
	l.SetLevel(logger.ERROR)
	l.Debugf("not printed %d", 1)
	l.Errorf("printed %d", 2)
}
