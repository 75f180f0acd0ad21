package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"none", LevelNone, false},
		{"", LevelNone, false},
		{"loud", LevelNone, true},
	}

	for i, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("tests[%d] - %q error mismatch: %v", i, tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("tests[%d] - %q wrong level. expected=%v, got=%v", i, tt.input, tt.expected, got)
		}
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "logs", "run.log")
	closer, err := Setup("info", path)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	slog.Info("hello", "answer", 42)
	slog.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"hello"`) || !strings.Contains(text, `"answer":42`) {
		t.Errorf("log line missing: %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Errorf("debug line logged at info level: %q", text)
	}
}
