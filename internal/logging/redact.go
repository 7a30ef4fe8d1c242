package logging

import (
	"net/url"
	"regexp"
	"strings"
)

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// cpfPattern matches CPF numbers with or without punctuation.
var cpfPattern = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),
	regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// MaskCPF hides all but the last two digits of a CPF, keeping its punctuation.
func MaskCPF(cpf string) string {
	digits := 0
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 {
		return cpf
	}

	var b strings.Builder
	seen := 0
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= digits-2 {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Redact masks CPF numbers and secrets in free text.
func Redact(s string) string {
	result := cpfPattern.ReplaceAllStringFunc(s, MaskCPF)
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// RedactURL drops credentials embedded in a URL.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.User(RedactedValue)
	return u.String()
}
