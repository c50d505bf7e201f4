// internal/frame/stream.go
package frame

import "strings"

const (
	envelope = "##"

	// MaxBufferLen triggers truncation of the streaming buffer.
	MaxBufferLen = 1000
	// KeepBufferLen is how much of the buffer tail survives truncation.
	KeepBufferLen = 200
)

// StreamParser extracts ##...## envelopes from a growing buffer.
// Not safe for concurrent use.
type StreamParser struct {
	parser *Parser
	buf    string
}

// NewStreamParser wraps p for streaming input.
func NewStreamParser(p *Parser) *StreamParser {
	return &StreamParser{parser: p}
}

// Feed appends chunk and parses every complete envelope found.
// A trailing incomplete envelope stays buffered for the next call.
// rejected counts complete envelopes that did not parse, plus one for
// input that holds no envelope start at all.
func (s *StreamParser) Feed(chunk string) (records []DeviceRecord, rejected int) {
	s.buf += chunk

	for {
		start := strings.Index(s.buf, envelope)
		if start < 0 {
			break
		}
		rel := strings.Index(s.buf[start+len(envelope):], envelope)
		if rel < 0 {
			break
		}
		end := start + len(envelope) + rel + len(envelope)

		packet := s.buf[start:end]
		s.buf = s.buf[end:]

		rec, err := s.parser.Parse(packet)
		if err != nil {
			rejected++
			continue
		}
		records = append(records, rec)
	}

	// no envelope start left: the input can never complete a record
	if !strings.Contains(s.buf, envelope) {
		junk := s.buf
		s.buf = ""
		if strings.HasSuffix(junk, "#") {
			junk = junk[:len(junk)-1]
			s.buf = "#"
		}
		if strings.TrimSpace(junk) != "" {
			rejected++
		}
	}

	if len(s.buf) > MaxBufferLen {
		s.buf = s.buf[len(s.buf)-KeepBufferLen:]
	}

	return records, rejected
}

// Buffered returns the bytes held for the next Feed.
func (s *StreamParser) Buffered() int {
	return len(s.buf)
}

// Reset drops any buffered input.
func (s *StreamParser) Reset() {
	s.buf = ""
}
