// internal/monitor/segment.go
package monitor

import "strings"

// Segmenter splits accumulated input on "\r\n", "\n" or "\r".
// Units that are blank after trimming are dropped.
type Segmenter struct {
	buf []byte
}

// Write appends chunk and returns every unit it completed.
func (s *Segmenter) Write(chunk []byte) []string {
	var units []string
	for _, b := range chunk {
		if b != '\n' && b != '\r' {
			s.buf = append(s.buf, b)
			continue
		}
		// "\r\n" arrives as two terminators; the second yields an empty unit.
		if u := strings.TrimSpace(string(s.buf)); u != "" {
			units = append(units, u)
		}
		s.buf = s.buf[:0]
	}
	return units
}

// Flush returns the buffered partial unit as if it were terminated.
func (s *Segmenter) Flush() (string, bool) {
	u := strings.TrimSpace(string(s.buf))
	s.buf = s.buf[:0]
	return u, u != ""
}

// Pending reports the number of unterminated bytes held.
func (s *Segmenter) Pending() int {
	return len(s.buf)
}
