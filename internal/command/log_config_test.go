package command

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/crew-scheduler/internal/config"
)

func TestResolveLogConfig_Defaults(t *testing.T) {
	t.Parallel()
	lc, err := resolveLogConfig("", "info", config.NewConfig())
	if err != nil {
		t.Fatalf("resolveLogConfig: %v", err)
	}
	if lc.logFile != nil {
		t.Fatal("expected nil logFile when no path specified")
	}
	if lc.level != slog.LevelInfo {
		t.Fatalf("expected level Info, got %v", lc.level)
	}
}

func TestResolveLogConfig_NilConfig(t *testing.T) {
	t.Parallel()
	lc, err := resolveLogConfig("", "", nil)
	if err != nil {
		t.Fatalf("resolveLogConfig: %v", err)
	}
	if lc.level != slog.LevelInfo || lc.logFile != nil {
		t.Fatalf("unexpected %+v", lc)
	}
}

func TestResolveLogConfig_FlagOverridesConfig(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.level", "warn")
	cfg.SetGlobalOption("log.file", "/should/not/use/this")

	lc, err := resolveLogConfig(logPath, "debug", cfg)
	if err != nil {
		t.Fatalf("resolveLogConfig: %v", err)
	}
	defer lc.close()

	if lc.level != slog.LevelDebug {
		t.Fatalf("expected level Debug, got %v", lc.level)
	}
	if lc.logFile == nil {
		t.Fatal("expected a log file")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected the flag path to be used: %v", err)
	}
}

func TestResolveLogConfig_ConfigLevel(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.level", "ERROR")

	lc, err := resolveLogConfig("", "info", cfg)
	if err != nil {
		t.Fatalf("resolveLogConfig: %v", err)
	}
	if lc.level != slog.LevelError {
		t.Fatalf("expected level Error, got %v", lc.level)
	}
}

func TestResolveLogConfig_InvalidLevel(t *testing.T) {
	t.Parallel()
	if _, err := resolveLogConfig("", "loud", config.NewConfig()); err == nil || !strings.Contains(err.Error(), "invalid log level: loud") {
		t.Fatalf("expected invalid level error, got %v", err)
	}
}

func TestLogConfigLogger(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "nested", "crewsim.log")
	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.file", logPath)

	lc, err := resolveLogConfig("", "warn", cfg)
	if err != nil {
		t.Fatalf("resolveLogConfig: %v", err)
	}
	var stderr bytes.Buffer
	logger := lc.logger(&stderr)
	logger.Info("dropped")
	logger.Warn("kept", "agent", "doc")
	lc.close()

	if stderr.Len() != 0 {
		t.Fatalf("expected nothing on stderr, got %q", stderr.String())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["agent"] != "doc" {
		t.Fatalf("unexpected entry %v", entry)
	}

	text := logConfig{level: slog.LevelInfo}.logger(&stderr)
	text.Info("hello")
	if !strings.Contains(stderr.String(), "msg=hello") {
		t.Fatalf("expected a text line on stderr, got %q", stderr.String())
	}
}
