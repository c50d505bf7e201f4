// internal/frame/normalize.go
package frame

import "strings"

// DefaultVendorPrefixes are stripped from serial numbers before validation.
var DefaultVendorPrefixes = []string{"ATS"}

// spaceVariants maps exotic whitespace seen on noisy links to a plain space.
var spaceVariants = strings.NewReplacer(
	"\t", " ",
	"\u00a0", " ",
	"\u1680", " ",
	"\u2000", " ",
	"\u2001", " ",
	"\u2002", " ",
	"\u2003", " ",
	"\u2004", " ",
	"\u2005", " ",
	"\u2006", " ",
	"\u2007", " ",
	"\u2008", " ",
	"\u2009", " ",
	"\u200a", " ",
	"\u202f", " ",
	"\u205f", " ",
	"\u3000", " ",
)

// Clean maps space variants to ' ' and then drops every rune outside
// ASCII letters, digits, space, '#', '|', ':' and '-'.
func Clean(s string) string {
	return CleanKeep(s, "")
}

// CleanKeep is Clean with extra ASCII characters added to the allow-list.
func CleanKeep(s, extra string) string {
	s = spaceVariants.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed(c) || (c < 0x80 && strings.IndexByte(extra, c) >= 0) {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

func allowed(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == ' ', c == '#', c == '|', c == ':', c == '-':
		return true
	}
	return false
}

// NormalizeSerial reduces a captured serial field to its numeric suffix.
//
//   - known vendor prefix followed by digits: prefix stripped
//   - pure digits: unchanged
//   - anything else: the longest run of digits
//
// ok is false when the value holds no digits at all.
func NormalizeSerial(value string, prefixes []string) (string, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}

	upper := strings.ToUpper(v)
	for _, p := range prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || !strings.HasPrefix(upper, p) {
			continue
		}
		rest := strings.TrimSpace(v[len(p):])
		if isDigits(rest) {
			return rest, true
		}
	}

	if isDigits(v) {
		return v, true
	}

	run := longestDigitRun(v)
	if run == "" {
		return "", false
	}
	return run, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func longestDigitRun(s string) string {
	best, start := "", -1
	for i := 0; i <= len(s); i++ {
		digit := i < len(s) && s[i] >= '0' && s[i] <= '9'
		if digit {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start > len(best) {
				best = s[start:i]
			}
			start = -1
		}
	}
	return best
}
