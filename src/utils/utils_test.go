package utils

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, slog.LevelInfo)).Info("Elevator started", "elevator", 2)

	line := buf.String()
	if !regexp.MustCompile(`time=\d\d:\d\d:\d\d `).MatchString(line) {
		t.Errorf("time not compact: %q", line)
	}
	if !regexp.MustCompile(`source=utils_test\.go:\d+ `).MatchString(line) {
		t.Errorf("source not file:line: %q", line)
	}
	if !strings.Contains(line, "elevator=2") {
		t.Errorf("missing attribute: %q", line)
	}
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelWarn))
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, expected := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != expected {
			t.Errorf("ParseLevel(%q) = %v, %v, expected %v", in, got, err, expected)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(\"loud\") succeeded")
	}
}
