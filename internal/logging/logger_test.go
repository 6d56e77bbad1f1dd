package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
)

func TestNZBGetFormatPrefixesLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "nzbget", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "refresh")

	logger.Debug("listing sections")
	logger.Info("refreshing section", logging.Int(logging.FieldSectionID, 3), logging.String(logging.FieldSectionTitle, "TV Shows"))
	logger.Warn("cache save skipped")
	logger.Error("refresh failed", logging.Error(errors.New("connection refused")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"[DETAIL] refresh: listing sections",
		`[INFO] refresh: refreshing section section_id=3 section_title="TV Shows"`,
		"[WARNING] refresh: cache save skipped",
		`[ERROR] refresh: refresh failed error="connection refused"`,
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}

func TestNZBGetFormatKeepsRecordsOnOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "nzbget", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("first\nsecond", logging.String("body", "a\nb"))

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", out)
	}
	if !strings.HasPrefix(out, "[INFO] first second") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warning", Format: "nzbget", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestAutoFormatUsesNZBGetWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "auto", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(buf.String(), "[INFO] hello") {
		t.Fatalf("expected nzbget format, got %q", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "plex").Info("signed in", logging.String("user", "alice"))

	out := buf.String()
	if !strings.Contains(out, "INFO [plex] – signed in") {
		t.Fatalf("unexpected header in %q", out)
	}
	if !strings.Contains(out, "    - user: alice\n") {
		t.Fatalf("expected indented field in %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("token rejected", logging.String(logging.FieldCommand, "SectionList"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "warn" || payload["msg"] != "token rejected" || payload["command"] != "SectionList" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "nzbget"
	cfg.Logging.Level = "error"
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("dropped")
	logger.Error("kept")
	if buf.String() != "[ERROR] kept\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "nzbget", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "refresh mode unknown", "refresh_mode_fallback", logging.String("mode", "Sometimes"))
	out := buf.String()
	for _, want := range []string{"event_type=refresh_mode_fallback", "error_hint=", "impact=", "mode=Sometimes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
