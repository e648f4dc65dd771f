package service

import (
	"errors"
	"testing"
)

func TestNormalizePairingCode(t *testing.T) {
	tests := map[string]string{
		"123":        "12300000",
		"ABCD-EFGH":  "ABCDEFGH",
		"abcd-efgh":  "ABCDEFGH",
		"1234567890": "12345678",
		"":           "00000000",
		"12 34 56":   "12345600",
	}
	for raw, want := range tests {
		got := NormalizePairingCode(raw)
		if got != want {
			t.Errorf("NormalizePairingCode(%q) = %q, want %q", raw, got, want)
		}
		if len(got) != PairingCodeLength {
			t.Errorf("NormalizePairingCode(%q) length = %d", raw, len(got))
		}
	}
}

func TestFutureFirstResolveWins(t *testing.T) {
	f := newFuture[string]()
	if !f.resolve("first", nil) {
		t.Fatal("first resolve reported a loss")
	}
	if f.resolve("second", errors.New("late")) {
		t.Fatal("second resolve reported a win")
	}

	select {
	case <-f.Done():
	default:
		t.Fatal("Done not closed after resolve")
	}
	val, err := f.result()
	if val != "first" || err != nil {
		t.Errorf("result() = %q, %v, want first, nil", val, err)
	}
}
