package logging

import (
	"regexp"
	"strings"
)

// secretPatterns match credentials that upstream error bodies sometimes echo back.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret|password|authorization|bearer)(["']?\s*[=:]\s*["']?|\s+)([^\s"',}]+)`),
	regexp.MustCompile(`\b(sk-[A-Za-z0-9_-]{16,})`),
	regexp.MustCompile(`\b(nv-[A-Za-z0-9]{16,})`),
}

// MaskCredential hides all but the first four characters of long values.
func MaskCredential(value string) string {
	if len(value) <= 12 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-4)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return MaskCredential(addr)
	}
	r := []rune(local)
	return string(r[0]) + "***@" + domain
}

// MaskSecrets masks credential-looking substrings in free text.
func MaskSecrets(s string) string {
	s = secretPatterns[0].ReplaceAllStringFunc(s, func(m string) string {
		parts := secretPatterns[0].FindStringSubmatch(m)
		return parts[1] + parts[2] + MaskCredential(parts[3])
	})
	for _, p := range secretPatterns[1:] {
		s = p.ReplaceAllStringFunc(s, MaskCredential)
	}
	return s
}
