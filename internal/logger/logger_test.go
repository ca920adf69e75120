package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"json info", "info", "json", zapcore.InfoLevel, false},
		{"console debug", "debug", "console", zapcore.DebugLevel, false},
		{"json warn", "warn", "json", zapcore.WarnLevel, false},
		{"json error", "error", "json", zapcore.ErrorLevel, false},
		{"invalid level", "loud", "json", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := Replace(zap.NewNop())
			defer restore()

			err := Init(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	restore := Replace(zap.NewNop())
	defer restore()
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if GetLevel() != zapcore.DebugLevel {
		t.Errorf("GetLevel() = %v, want debug", GetLevel())
	}
	if err := SetLevel("bogus"); err == nil {
		t.Error("SetLevel(bogus) should fail")
	}
}

func TestL_NopBeforeInit(t *testing.T) {
	if L() == nil {
		t.Fatal("L() returned nil")
	}
	// Must not panic.
	Info("discarded")
}

func TestReplace_CapturesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))

	Debug("d")
	Info("i", zap.String("k", "v"))
	Warn("w")
	Error("e")
	With(zap.Int("n", 1)).Info("child")
	restore()
	Info("after restore")

	if logs.Len() != 5 {
		t.Fatalf("captured %d entries, want 5", logs.Len())
	}
	if got := logs.FilterMessage("i").All()[0].ContextMap()["k"]; got != "v" {
		t.Errorf("field k = %v, want v", got)
	}
	if logs.FilterMessage("after restore").Len() != 0 {
		t.Error("entry logged after restore reached the observer")
	}
}

func TestSync(t *testing.T) {
	restore := Replace(zap.NewNop())
	defer restore()
	if err := Sync(); err != nil {
		t.Errorf("Sync() on nop logger = %v", err)
	}
}
