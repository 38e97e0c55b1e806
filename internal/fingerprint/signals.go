package fingerprint

import (
	"net/url"
	"strings"
)

// Signals is a parsed browser fingerprint: field name to field value.
type Signals map[string]string

// Parse decodes a key=value&key=value signal string.
//
// Decoding follows URL query rules: percent escapes are decoded and '+' is a
// space. Fragments that fail to decode or have an empty key are dropped, and
// the last occurrence of a repeated key wins. Parse never fails.
func Parse(raw string) Signals {
	signals := make(Signals)
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil || key == "" {
			continue
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}
		signals[key] = value
	}
	return signals
}

// Get returns the value for field and whether it was present.
func (s Signals) Get(field string) (string, bool) {
	v, ok := s[field]
	return v, ok
}
