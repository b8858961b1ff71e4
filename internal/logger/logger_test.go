package logger

import (
	"log/slog"
	"testing"
)

func TestLevelFrom(t *testing.T) {
	if got := levelFrom(""); got != slog.LevelInfo {
		t.Errorf("Expected info level for empty value, got: %v", got)
	}
	if got := levelFrom("1"); got != slog.LevelDebug {
		t.Errorf("Expected debug level for non-empty value, got: %v", got)
	}
}
