package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, jsonFormat := range []bool{true, false} {
		log, err := New("debug", jsonFormat)
		if err != nil {
			t.Fatalf("New(debug, %v) failed: %v", jsonFormat, err)
		}
		if !log.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("Expected debug level to be enabled (json=%v)", jsonFormat)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
}
