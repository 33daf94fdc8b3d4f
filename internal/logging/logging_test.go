package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWithConfig_WritesToOut(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "debug", Out: &buf})
	logger.Debug().Str("ticker", "005930.KS").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"ticker":"005930.KS"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestNewLoggerWithConfig_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "warn", Out: &buf})
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"investor@example.com": "i***@example.com",
		"김@example.kr":         "김***@example.kr",
		"not-an-email":         "************",
	}
	for in, want := range tests {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskSecrets(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"error":"invalid api_key: abcdef1234567890xyz"}`, `{"error":"invalid api_key: abcd***************"}`},
		{"token sk-proj1234567890abcdefgh rejected", "token sk-p********************* rejected"},
		{"Bearer nv-1234", "Bearer *******"},
		{"status 401: unauthorized request", "status 401: unauthorized request"},
	}
	for _, tt := range tests {
		if got := MaskSecrets(tt.in); got != tt.want {
			t.Errorf("MaskSecrets(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
