// Package redact strips connection strings, credentials, file paths, host
// addresses and query text from error messages before they reach logs.
// Dataset paths and the Postgres and Redis addresses end up inside driver
// errors, so every logged error goes through Error or Attr.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	PathPlaceholder       = "[REDACTED_PATH]"
	HostPlaceholder       = "[REDACTED_HOST]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; earlier rules see the original text.
var rules = []rule{
	{
		regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss)://[^@\s]+@`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		KeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		StackPlaceholder,
	},
	{
		regexp.MustCompile(
			`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"$]+)?`,
		),
		SQLPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		EmailPlaceholder,
	},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), PathPlaceholder},
	{
		regexp.MustCompile(`\b(?:localhost|[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+):\d{2,5}\b`),
		HostPlaceholder,
	},
}

// String redacts sensitive fragments from input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts err's message. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Attr is the redacted error as a slog attribute keyed "error".
func Attr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
