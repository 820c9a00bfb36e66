package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogBeforeInit(t *testing.T) {
	// Must not panic with the default nop logger.
	Info("hello")
	Warn("hello")
	if L() == nil {
		t.Fatal("L() returned nil")
	}
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))

	Info("captured")
	restore()
	Info("dropped")

	if n := logs.FilterMessage("captured").Len(); n != 1 {
		t.Errorf("captured entries = %d, want 1", n)
	}
	if n := logs.FilterMessage("dropped").Len(); n != 0 {
		t.Errorf("entries after restore = %d, want 0", n)
	}
}
