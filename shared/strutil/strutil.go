// Package strutil holds string and byte helpers for payloads that cross the method
// channel as text.
package strutil

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// IsEmpty reports whether s has no content.
func IsEmpty(s string) bool {
	return len(s) == 0
}

// FromBase64 decodes standard or URL-safe base64, padded or not.
func FromBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if IsEmpty(s) {
		return []byte{}, nil
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("strutil: not a base64 string")
}
