// Package logger provides a leveled logging facade for the whole bot.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging surface used throughout the bot.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zapLogger   = newZapLogger()
)

var std Logger = zapLogger.Sugar()

func newZapLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap only fails on an invalid config, which is static here.
		panic(err)
	}
	return l
}

// Zap returns the underlying *zap.Logger for components that prefer
// structured fields over the printf-style facade.
func Zap() *zap.Logger {
	return zapLogger.WithOptions(zap.AddCallerSkip(-1))
}

// SetGlobalLogLevel reconfigures the level of the global logger.
// Accepted levels: "debug", "info", "warn", "error", "fatal".
func SetGlobalLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case "info", "":
		atomicLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		atomicLevel.SetLevel(zapcore.FatalLevel)
	default:
		std.Warnf("Unknown log level %q, keeping current level", logLevel)
	}
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return zapLogger.Sync()
}

// Debug logs a debug message using the global logger.
func Debug(args ...interface{}) { std.Debug(args...) }

// Debugf logs a debug message with formatting.
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }

// Info logs an informational message using the global logger.
func Info(args ...interface{}) { std.Info(args...) }

// Infof logs an informational message with formatting.
func Infof(format string, args ...interface{}) { std.Infof(format, args...) }

// Warn logs a warning message.
func Warn(args ...interface{}) { std.Warn(args...) }

// Warnf logs a warning message with formatting.
func Warnf(format string, args ...interface{}) { std.Warnf(format, args...) }

// Error logs an error message.
func Error(args ...interface{}) { std.Error(args...) }

// Errorf logs an error message with formatting.
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }

// Fatal logs a fatal error message and exits.
func Fatal(args ...interface{}) { std.Fatal(args...) }

// Fatalf logs a fatal error message with formatting and exits.
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
