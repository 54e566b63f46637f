package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // naive isoformat, read as UTC
	"2006-01-02 15:04:05.999999999",
}

// WireTime decodes the backend's ISO-8601 timestamps. A missing or unparseable
// value decodes to the zero time instead of failing the whole payload.
type WireTime struct {
	time.Time
}

func (t *WireTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTime(s)
	return nil
}

func (t WireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTime parses s with the layouts the backend is known to emit.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range wireLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
