package metadata

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var mp3Pattern = regexp.MustCompile(`(?i)\.mp3(\?|$)`)

// IsMP3URL reports whether u names an mp3 file, with or without a query string.
func IsMP3URL(u string) bool {
	return mp3Pattern.MatchString(u)
}

// Number decodes a JSON number or a numeric string. Anything else, null
// included, leaves it unset without failing the surrounding document.
type Number struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number{Value: v, Set: true}
	return nil
}

// Ptr returns the value as a pointer, nil when unset.
func (n Number) Ptr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// IntPtr returns the value truncated to an int, nil when unset.
func (n Number) IntPtr() *int {
	if !n.Set {
		return nil
	}
	v := int(n.Value)
	return &v
}

// Text decodes a JSON string or number into its textual form.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = Text(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err == nil {
		*t = Text(b)
	}
	return nil
}

// String returns the trimmed text.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// ParseClock converts "h:mm:ss", "m:ss" or "s" to seconds by summing each
// component times 60 to the power of its place. Returns nil for empty or
// malformed input.
func ParseClock(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	total := 0.0
	for _, part := range strings.Split(s, ":") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v < 0 {
			return nil
		}
		total = total*60 + v
	}
	return &total
}

// FormatClock renders seconds as "h:mm:ss" or "m:ss". Non-positive input yields "".
func FormatClock(seconds float64) string {
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return ""
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
