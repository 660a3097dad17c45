package log

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelDebug)
	if level.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %s", level.Level())
	}
	SetLevel(LevelError)
	if level.Level() != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", level.Level())
	}
	SetLevel("bogus")
	if level.Level() != zapcore.InfoLevel {
		t.Fatalf("expected unknown level to fall back to info, got %s", level.Level())
	}
}

func TestInitAndLog(t *testing.T) {
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		Init(false)
	})

	Init(true)
	if level.Level() != zapcore.DebugLevel {
		t.Fatalf("expected Init(true) to enable debug")
	}
	if current() == nil {
		t.Fatalf("expected a logger after Init")
	}
	Debug("debug line", "k", 1)
	Info("info line", "k", "v")
	Error("error line", errors.New("boom"), "k", true)
	Sync()
}

func TestInit_ResetsLevel(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	Init(true)
	Init(false)
	if level.Level() != zapcore.InfoLevel {
		t.Fatalf("expected Init(false) to restore info, got %s", level.Level())
	}
}
