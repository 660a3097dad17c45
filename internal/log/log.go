package log

import (
	stdlog "log"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerOnce sync.Once
	mu         sync.Mutex
)

// initLogger builds the global logger with the production (JSON) encoder.
func initLogger() {
	loggerOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if logger == nil {
			logger = build(false)
		}
	})
}

// Init replaces the global logger. When debug is set a human-readable console
// encoder is used and the level drops to DEBUG; otherwise it returns to INFO.
func Init(debug bool) {
	loggerOnce.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
	logger = build(debug)
}

func build(debug bool) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		stdlog.Printf("log: zap init failed, falling back to nop logger: %v", err)
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		level.SetLevel(zapcore.DebugLevel)
	case LevelError:
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

// Sync flushes buffered entries. Call once before exit.
func Sync() {
	initLogger()
	_ = current().Sync()
}

func logWithLevel(l Level, msg string, kv ...any) {
	initLogger()
	lg := current()
	switch l {
	case LevelDebug:
		lg.Debugw(msg, kv...)
	case LevelError:
		lg.Errorw(msg, kv...)
	default:
		lg.Infow(msg, kv...)
	}
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
