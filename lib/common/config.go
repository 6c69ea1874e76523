package common

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --------------------------------------------------------------------------
// Library configuration
// --------------------------------------------------------------------------

// Config keys, also used as CLI flag names. The environment variables are the
// upper case form with the prefix KDB_, e.g. KDB_LOG_LEVEL.
const (
	KeyLogLevel         = "log-level"
	KeyTrackAllocations = "track-allocations"
	KeyMinKeySetAlloc   = "min-keyset-alloc"
)

// Config holds the settings of the library and the CLI
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// TrackAllocations wraps the allocator in a leak tracking allocator
	TrackAllocations bool
	// MinKeySetAlloc is the smallest capacity of a key set array
	MinKeySetAlloc int
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		LogLevel:         "warn",
		TrackAllocations: false,
		MinKeySetAlloc:   16,
	}
}

// InitViper loads the env files and prepares v to read KDB_* variables
func InitViper(v *viper.Viper) {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	d := DefaultConfig()
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyTrackAllocations, d.TrackAllocations)
	v.SetDefault(KeyMinKeySetAlloc, d.MinKeySetAlloc)

	v.SetEnvPrefix("kdb")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadConfig reads the configuration from v and validates it
func LoadConfig(v *viper.Viper) (Config, error) {
	conf := Config{
		LogLevel:         v.GetString(KeyLogLevel),
		TrackAllocations: v.GetBool(KeyTrackAllocations),
		MinKeySetAlloc:   v.GetInt(KeyMinKeySetAlloc),
	}
	if _, err := ParseLogLevel(conf.LogLevel); err != nil {
		return conf, err
	}
	if conf.MinKeySetAlloc < 2 {
		return conf, fmt.Errorf("%s must be at least 2, got %d", KeyMinKeySetAlloc, conf.MinKeySetAlloc)
	}
	return conf, nil
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Memory")
	addField("Track allocations", fmt.Sprintf("%t", c.TrackAllocations))
	addField("Min key set alloc", fmt.Sprintf("%d slots", c.MinKeySetAlloc))

	addSection("Logging")
	addField("Log level", c.LogLevel)

	return sb.String()
}
