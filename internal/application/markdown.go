package application

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Character budgets for free text.
const (
	listingTextLimit = 500
	commentBodyLimit = 300
	previewLimit     = 200
)

const ellipsis = "..."

const timestampLayout = "2006-01-02 15:04:05 UTC"

// truncate shortens s to limit characters followed by "...". Text at or
// under the limit is returned unchanged.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// formatCount renders n with thousands separators, e.g. 1,234,567.
func formatCount(n int64) string {
	return humanize.Comma(n)
}

// trimPrefixFold removes a case-insensitive prefix such as "r/" or "u/".
func trimPrefixFold(s string, prefixes ...string) string {
	for _, prefix := range prefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return s[len(prefix):]
		}
	}
	return s
}
