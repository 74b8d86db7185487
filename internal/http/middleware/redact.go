package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// Lead search queries and some client headers routinely carry buyer emails
// and phone numbers. Redactor removes them before anything reaches a log.
//
// UUIDs go first: their digit groups would otherwise look like phone numbers.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// "+91 98200 12345", "(212) 555-1212", "9820012345"
	phoneRE = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?(?:\(\d{2,4}\)[ .-]?)?\b\d{3,5}[ .-]?\d{3,4}[ .-]?\d{0,4}\b`)
)

const redactedValue = "[REDACTED]"

// Redactor scrubs contact details and credentials. The zero value is not
// usable; build one with NewRedactor.
type Redactor struct {
	masked map[string]struct{}
}

// NewRedactor returns a Redactor that masks Authorization, Cookie,
// Set-Cookie and the given headers entirely. Header names are matched
// case-insensitively.
func NewRedactor(maskHeaders ...string) *Redactor {
	r := &Redactor{masked: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range maskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// Redact replaces UUIDs, emails and phone-like digit runs in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllStringFunc(s, func(m string) string {
		// short numbers (page=2, limit=50) are not phones
		if countDigits(m) < 7 {
			return m
		}
		return "[REDACTED:phone]"
	})
}

// Headers returns a loggable copy of h with masked headers replaced and the
// rest scrubbed by Redact.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = redactedValue
			continue
		}
		out[k] = r.Redact(strings.Join(vv, ", "))
	}
	return out
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
