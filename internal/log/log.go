// Package log provides centralized logging functionality using zap logger.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.SugaredLogger
var baseLogger *zap.Logger

// FileConfig selects an optional rotating log file alongside stdout.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the package-level logger. With a FileConfig path set,
// log lines are additionally written to a size-rotated file.
func Init(debug bool, file FileConfig) error {
	var encoderConfig zapcore.EncoderConfig
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	encoderConfig.TimeKey = "timestamp"
	encoderConfig.LevelKey = "level"
	encoderConfig.MessageKey = "message"
	encoderConfig.CallerKey = "caller"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	var level zapcore.Level
	if debug {
		level = zapcore.DebugLevel
	} else {
		level = zapcore.InfoLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if file.Path != "" {
		if file.MaxSizeMB <= 0 {
			file.MaxSizeMB = 5
		}
		if file.MaxBackups <= 0 {
			file.MaxBackups = 3
		}
		rotator := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	baseLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	log = baseLogger.Sugar()

	return nil
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		baseLogger, _ = zap.NewProduction()
		log = baseLogger.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		log.Sync()
	}
}

// Package-level convenience functions
func Debug(args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Debugf(template, args...)
}

func Info(args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Info(args...)
}

func Infof(template string, args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Infof(template, args...)
}

func Warn(args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Warnf(template, args...)
}

func Error(args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Error(args...)
}

func Errorf(template string, args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(args...)
}

func Fatalf(template string, args ...interface{}) {
	GetSugaredLogger().WithOptions(zap.AddCallerSkip(1)).Fatalf(template, args...)
}
