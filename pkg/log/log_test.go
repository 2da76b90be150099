package log

import (
	"context"
	"testing"
)

func TestTestLoggerCapturesEntries(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	logger.Info("tuning started",
		ModelNameKey, "Lasso",
		FoldsKey, 10,
	)
	logger.Debug("fold complete", RMSEKey, 1.25)

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0]["message"] != "tuning started" {
		t.Errorf("unexpected message: %v", entries[0]["message"])
	}
	if entries[0][ModelNameKey] != "Lasso" {
		t.Errorf("expected model name field, got %v", entries[0])
	}
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, buffer := NewTestLogger(LevelWarn)

	logger.Info("suppressed")
	logger.Warn("emitted")

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %s", len(entries), buffer.String())
	}
	if entries[0]["level"] != "WARN" {
		t.Errorf("unexpected level: %v", entries[0]["level"])
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	child := logger.With(ComponentKey, "crossval")
	child.Info("folds built", FoldsKey, 5)

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if entries[0][ComponentKey] != "crossval" {
		t.Errorf("expected component field from With, got %v", entries[0])
	}
}

func TestEnabled(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at info level")
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}

	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
