package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/wallet-access/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"nonsense", false}, // falls back to info
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			logger, err := NewLogger(config.LoggerConfig{Level: tc.level, Service: "wallet-access"})
			if err != nil {
				t.Fatal(err)
			}
			defer logger.Sync()
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.wantDebug {
				t.Fatalf("debug enabled = %t, want %t", got, tc.wantDebug)
			}
		})
	}
}

func TestNewLoggerWithoutServiceName(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "info"})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Sync()
}
