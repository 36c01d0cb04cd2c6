package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{" Warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf})

	log.Info().Str("component", "startup").Msg("service ready")

	out := buf.String()
	if !strings.Contains(out, `"message":"service ready"`) {
		t.Fatalf("expected JSON log line, got %q", out)
	}
	if !strings.Contains(out, `"component":"startup"`) {
		t.Fatalf("expected structured field, got %q", out)
	}

	// Init is a singleton; a second call must hand back the same logger
	// rather than rebinding the output.
	again := Init(Options{Level: "error"})
	again.Info().Msg("still the first writer")
	if !strings.Contains(buf.String(), "still the first writer") {
		t.Fatalf("second Init rebound the logger output")
	}
}
