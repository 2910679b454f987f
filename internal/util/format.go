package util //nolint:revive // package name util hosts small shared helpers

import (
	"strings"
	"time"
)

// FormatRemaining formats the time left until t for display, relative to now.
// Returns "expired" once t is not after now, truncating to seconds otherwise.
func FormatRemaining(now, t time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return "expired"
	}
	if d < time.Second {
		return d.String()
	}
	return d.Truncate(time.Second).String()
}

// MaskToken shortens a bearer token for logs and terminal output.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	const keep = 6
	if len(token) <= 2*keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "…" + token[len(token)-keep:]
}
