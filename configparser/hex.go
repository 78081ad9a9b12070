package configparser

import (
	"encoding/hex"
)

// DecodeHex decodes pairs of hex digits until the first pair that is not
// valid hex; a trailing unpaired digit is ignored.
//
// The result is never nil, so an (explicitly provided) empty description
// stays distinguishable from an absent one.
func DecodeHex(s string) []byte {
	n := len(s) / 2
	for i := 0; i < n; i++ {
		if !isHexDigit(s[2*i]) || !isHexDigit(s[2*i+1]) {
			n = i
			break
		}
	}
	result := make([]byte, n)
	if _, err := hex.Decode(result, []byte(s[:2*n])); err != nil {
		// unreachable: every digit was checked above
		return result[:0]
	}
	return result
}

func isHexDigit(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}
