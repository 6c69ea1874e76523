package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Packages is the list of logger names used in this module
var Packages = []string{"ffi", "abi", "capi", "cmd"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// kdbLogger implements the ILogger interface on top of a zap logger
type kdbLogger struct {
	name  string
	level logger.LogLevel
	sugar *zap.SugaredLogger
}

func (l *kdbLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *kdbLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.sugar.Debugf(l.format(format), args...)
	}
}

func (l *kdbLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.sugar.Infof(l.format(format), args...)
	}
}

func (l *kdbLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.sugar.Warnf(l.format(format), args...)
	}
}

func (l *kdbLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.sugar.Errorf(l.format(format), args...)
	}
}

func (l *kdbLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// format prefixes the package name the same way for all levels
func (l *kdbLogger) format(format string) string {
	return fmt.Sprintf("%-6s | %s", l.name, format)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// newZap builds the shared zap core. Level filtering happens in kdbLogger.
func newZap() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return zap.New(core)
}

var base = newZap()

// CreateLogger implements the logger.Factory signature
func CreateLogger(pkgName string) logger.ILogger {
	return &kdbLogger{
		name:  pkgName,
		level: logger.WARNING,
		sugar: base.Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.WARNING, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the zap backed factory and applies the configured level
func InitLoggers(config Config) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLoggerFactory(CreateLogger)
	for _, pkg := range Packages {
		logger.GetLogger(pkg).SetLevel(level)
	}
	return nil
}
