package manuscript

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a submission or stage date. It reports false for empty or
// unrecognized values instead of failing.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t in the canonical record date layout.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
