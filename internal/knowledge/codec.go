package knowledge

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// notAvailable is shown for an empty transport value
const notAvailable = "Not Available"

// EncodeKey converts a readable key into the form the index stores it in:
// standard base64 with the trailing padding removed.
func EncodeKey(readable string) string {
	if readable == "" {
		return ""
	}
	return strings.TrimRight(base64.StdEncoding.EncodeToString([]byte(readable)), "=")
}

// DecodeKey reverses EncodeKey. Missing padding is restored before decoding.
// A value that does not decode to valid UTF-8 is returned unchanged.
func DecodeKey(encoded string) string {
	if encoded == "" {
		return notAvailable
	}

	padded := encoded
	if missing := len(padded) % 4; missing != 0 {
		padded += strings.Repeat("=", 4-missing)
	}

	decoded, err := base64.StdEncoding.DecodeString(padded)
	if err != nil || !utf8.Valid(decoded) {
		return encoded
	}
	return string(decoded)
}
