package helper

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDigitsOnly(t *testing.T) {
	tests := map[string]string{
		"+62 812-3456-789": "628123456789",
		"(021) 555 0101":   "0215550101",
		"abc":              "",
		"":                 "",
	}
	for in, want := range tests {
		if got := DigitsOnly(in); got != want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQRDataURL(t *testing.T) {
	url, err := QRDataURL("2@abc,def,ghi")
	if err != nil {
		t.Fatalf("QRDataURL() error: %v", err)
	}
	if !strings.HasPrefix(url, qrDataURLPrefix) {
		t.Fatalf("QRDataURL() = %q, want data url prefix", url[:30])
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, qrDataURLPrefix))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("payload is not a PNG image")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if got := NewLogger("debug").GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
	if got := NewLogger("nonsense").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want info fallback", got)
	}
}
