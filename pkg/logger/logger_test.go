package logger

import (
	"context"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initialization replaces the handler without error.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

// Basic logging test (slog-backed).
func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
	logger.Debug(ctx, "test message", Int("n", 1), Float64("x", 0.5), Bool("b", true))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
}

func TestSetLevelString(t *testing.T) {
	cases := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"", false},
		{"WARN", false},
		{"warning", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tc := range cases {
		err := SetLevelString(tc.level)
		if tc.wantErr && err == nil {
			t.Errorf("SetLevelString(%q): expected error", tc.level)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("SetLevelString(%q): unexpected error %v", tc.level, err)
		}
	}
}
