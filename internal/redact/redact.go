// Package redact scrubs credentials and personal data out of strings before
// they reach logs or error responses. Database and redis URLs, bearer tokens,
// JWTs, Folio API keys, AWS access keys, key=value secrets, and email
// addresses are replaced with fixed placeholders.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for matched values.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	APIKeyPlaceholder     = "[REDACTED_API_KEY]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules are applied in order; token-shaped rules run before the generic
// key=value rule so a JWT inside "token=..." keeps its specific placeholder.
var rules = []rule{
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer " + TokenPlaceholder},
	{regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), JWTPlaceholder},
	{regexp.MustCompile(`\bfk_[a-z0-9]+_[A-Za-z0-9]+`), APIKeyPlaceholder},
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/\s:@]+:[^/\s@]+@`), "${1}" + CredentialPlaceholder + "@"},
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api[_-]?key)(\s*[=:]\s*)("[^"]*"|'[^']*'|[^\s,&;]+)`),
		"${1}${2}" + Placeholder,
	},
	{regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{16}\b`), KeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	out := input
	for _, r := range rules {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return out
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Attr returns the redacted error as a slog attribute keyed "error".
func Attr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
