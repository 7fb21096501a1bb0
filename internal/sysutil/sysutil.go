// Package sysutil holds small process-level helpers shared by the server
// entrypoint and the config loader: log level wiring and lenient parsing of
// operator-supplied strings.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel sets the global zerolog level from an operator string.
// Values are matched case-insensitively after trimming; "warning" is accepted
// as an alias for warn. Empty or unrecognized input falls back to info so a
// typo in LOG_LEVEL degrades to noisier logs, never to silence.
func SetLogLevel(lvl string) {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	parsed, err := zerolog.ParseLevel(s)
	if s == "" || err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// IsTruthy reports whether an operator-supplied string means "enabled".
// Accepted (case-insensitive, trimmed): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first value that is not blank, or "". Values are
// returned as given; only the blankness test trims.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
