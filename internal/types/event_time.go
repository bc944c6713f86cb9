package types

import (
	"fmt"
	"strings"
	"time"
)

// Patchtrack emits naive ISO 8601 timestamps with no zone suffix. They are
// UTC on the wire.
const eventTimeLayout = "2006-01-02T15:04:05"

// Server timestamp. Handles both the bare server format and RFC 3339 so
// fixtures and other producers can use either.
type EventTime struct {
	time.Time
}

func (t *EventTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(eventTimeLayout, raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse event time %q: %w", raw, err)
		}
	}

	t.Time = parsed.UTC()
	return nil
}

func (t EventTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}

	return []byte(`"` + t.UTC().Format(eventTimeLayout) + `"`), nil
}

func (t EventTime) String() string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(eventTimeLayout)
}
