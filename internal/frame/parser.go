// internal/frame/parser.go
package frame

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoMatch means no wire pattern produced a valid record.
var ErrNoMatch = errors.New("frame: no matching pattern")

// Field identifies one identity position of the wire frame.
type Field int

const (
	FieldSerial Field = iota
	FieldIMEI
	FieldIMSI
	FieldCCID
	FieldMAC
)

// Pattern is one entry of the ordered matching cascade.
// Fields maps capture group i+1 to its identity position.
// An empty capture counts as omitted and is padded.
// Keep lists extra ASCII characters Clean must retain for this pattern.
type Pattern struct {
	Name   string
	Expr   *regexp.Regexp
	Fields []Field
	Keep   string
}

var allFields = []Field{FieldSerial, FieldIMEI, FieldIMSI, FieldCCID, FieldMAC}

// DefaultPatterns is the matching cascade in priority order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:   "primary",
			Expr:   regexp.MustCompile(`(?i)##([A-Z0-9]+)\|([0-9]+)\|([0-9]+)\s*\|([0-9A-F]+)\|([A-F0-9:]+)##`),
			Fields: allFields,
		},
		{
			Name:   "spaced",
			Expr:   regexp.MustCompile(`(?i)##\s*([A-Z0-9]+)\s*\|\s*([0-9]+)\s*\|\s*([0-9]+)\s*\|\s*([0-9A-F]+)\s*\|\s*([A-F0-9:]+)\s*##`),
			Fields: allFields,
		},
		{
			// 3 or 4 fields, or a trailing envelope cut down to one '#'.
			Name:   "flexible",
			Expr:   regexp.MustCompile(`(?i)##\s*([A-Z0-9]+)\s*\|\s*([0-9]+)\s*\|\s*([0-9]+)\s*(?:\|\s*([0-9A-F]*)\s*)?(?:\|\s*([A-F0-9:]*)\s*)?##?`),
			Fields: allFields,
		},
		{
			Name:   "single-hash",
			Expr:   regexp.MustCompile(`(?i)#([A-Z0-9]+)\|([0-9]+)\|([0-9]+)\s*\|([0-9A-F]+)\|([A-F0-9:]+)#`),
			Fields: allFields,
		},
		{
			Name:   "bare",
			Expr:   regexp.MustCompile(`(?i)(?:^|\s)([A-Z0-9]+)\|([0-9]+)\|([0-9]+)\s*\|([0-9A-F]+)\|([A-F0-9:]+)(?:\s|$)`),
			Fields: allFields,
		},
		{
			Name:   "comma",
			Expr:   regexp.MustCompile(`(?i)#{0,2}\s*([A-Z0-9]+)\s*,\s*([0-9]+)\s*,\s*([0-9]+)\s*,\s*([0-9A-F]+)\s*,\s*([A-F0-9:]+)\s*#{0,2}`),
			Fields: allFields,
			Keep:   ",",
		},
	}
}

// Parser converts one isolated line into a DeviceRecord.
type Parser struct {
	patterns []Pattern
	prefixes []string
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithVendorPrefixes replaces the serial prefixes stripped during normalization.
func WithVendorPrefixes(prefixes []string) Option {
	return func(p *Parser) {
		p.prefixes = append([]string(nil), prefixes...)
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// NewParser builds a parser over DefaultPatterns.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		patterns: DefaultPatterns(),
		prefixes: DefaultVendorPrefixes,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AddPattern appends a format to the end of the cascade.
func (p *Parser) AddPattern(pt Pattern) {
	p.patterns = append(p.patterns, pt)
}

// Patterns returns the cascade names in evaluation order.
func (p *Parser) Patterns() []string {
	out := make([]string, 0, len(p.patterns))
	for _, pt := range p.patterns {
		out = append(out, pt.Name)
	}
	return out
}

// Parse tries each pattern in order and returns the first valid record.
// A match whose serial holds no digits is skipped, not accepted.
func (p *Parser) Parse(line string) (DeviceRecord, error) {
	cleaned := Clean(line)
	if cleaned != strings.TrimSpace(line) {
		p.log.Debug().Str("raw", line).Str("cleaned", cleaned).Msg("filtered input")
	}

	for _, pt := range p.patterns {
		input := cleaned
		if pt.Keep != "" {
			input = CleanKeep(line, pt.Keep)
		}

		m := pt.Expr.FindStringSubmatch(input)
		if m == nil {
			continue
		}

		rec, ok := p.extract(pt, m)
		if !ok {
			p.log.Warn().Str("pattern", pt.Name).Str("data", input).Msg("serial number has no digits")
			continue
		}

		rec.Raw = input
		rec.Pattern = pt.Name
		rec.Timestamp = p.now().Format(TimestampLayout)

		p.log.Debug().Str("pattern", pt.Name).Str("serial", rec.SerialNumber).Msg("frame parsed")
		return rec, nil
	}

	p.log.Warn().Str("data", cleaned).Msg("no valid pattern found")
	return DeviceRecord{}, ErrNoMatch
}

func (p *Parser) extract(pt Pattern, m []string) (DeviceRecord, bool) {
	var vals [5]string
	var seen [5]bool

	for i, f := range pt.Fields {
		g := i + 1
		if g >= len(m) {
			break
		}
		v := strings.TrimSpace(m[g])
		if v == "" {
			continue
		}
		vals[f] = v
		seen[f] = true
	}

	if !seen[FieldCCID] {
		vals[FieldCCID] = UnknownCCID
	}
	if !seen[FieldMAC] {
		vals[FieldMAC] = ZeroMAC
	}
	for i := range vals {
		if vals[i] == "" {
			vals[i] = Unknown
		}
	}

	serial, ok := NormalizeSerial(vals[FieldSerial], p.prefixes)
	if !ok {
		return DeviceRecord{}, false
	}

	return DeviceRecord{
		SerialNumber: serial,
		IMEI:         vals[FieldIMEI],
		IMSI:         vals[FieldIMSI],
		CCID:         vals[FieldCCID],
		MACAddress:   vals[FieldMAC],
	}, true
}
