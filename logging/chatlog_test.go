package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Ada Lovelace", "Ada_Lovelace"},
		{`bad\/*?:"<>|name`, "badname"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.input); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestChatLogsWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logs := NewChatLogs(dir, nil)

	logger := logs.For(123, "Ada Lovelace")
	logger.Info("USER (@ada): hello")
	_ = logger.Sync()

	path := filepath.Join(dir, "Ada_Lovelace_123.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected chat log file: %v", err)
	}
	if !strings.Contains(string(data), "USER (@ada): hello") {
		t.Errorf("expected log line in file, got: %s", data)
	}
}

func TestChatLogsReusesLogger(t *testing.T) {
	dir := t.TempDir()
	logs := NewChatLogs(dir, nil)

	first := logs.For(1, "Someone")
	second := logs.For(1, "Renamed Later")
	if first != second {
		t.Error("expected the same logger for repeated chat ids")
	}
}

func TestNewCreatesLogsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Sync()

	if _, err := os.Stat(filepath.Join(dir, "console.log")); err != nil {
		t.Errorf("expected console.log to exist: %v", err)
	}
}
