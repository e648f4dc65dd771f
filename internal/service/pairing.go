package service

import "strings"

// PairingCodeLength is the width every pairing code is normalized to.
const PairingCodeLength = 8

// NormalizePairingCode drops separators ("ABCD-EFGH"), upper-cases, and
// right-pads with '0' or truncates to PairingCodeLength characters.
func NormalizePairingCode(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}

	code := b.String()
	if len(code) >= PairingCodeLength {
		return code[:PairingCodeLength]
	}
	return code + strings.Repeat("0", PairingCodeLength-len(code))
}
