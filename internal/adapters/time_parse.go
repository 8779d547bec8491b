package adapters

import (
	"os"
	"strings"
	"time"
)

// lockTimestamp returns when a lock was taken: the recorded timestamp
// field when it parses, otherwise the file's modification time.
func lockTimestamp(fields map[string]string, info os.FileInfo) time.Time {
	if recorded := parseTimeFlexible(fields["timestamp"]); !recorded.IsZero() {
		return recorded
	}
	if info == nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}

func parseTimeFlexible(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
