// internal/label/template.go
package label

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tamzrod/labelstation/internal/frame"
)

var (
	// ErrUnknownField is returned at load time for placeholders outside the field set.
	ErrUnknownField = errors.New("label: unknown template field")
	// ErrMissingField is returned at render time when the field map lacks a placeholder.
	ErrMissingField = errors.New("label: missing template field")
)

// Fields is the closed set of placeholder names a template may reference.
var Fields = []string{
	frame.KeySTC,
	frame.KeySerialNumber,
	frame.KeyIMEI,
	frame.KeyIMSI,
	frame.KeyCCID,
	frame.KeyMACAddress,
	frame.KeyTimestamp,
}

var placeholderExpr = regexp.MustCompile(`\{([A-Z_]+)\}`)

// TemplateError reports the placeholders that prevented rendering.
type TemplateError struct {
	Fields []string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Fields, ", "))
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Template is a ZPL program with {FIELD} placeholders.
// Placeholders are extracted once at load time.
type Template struct {
	src          string
	placeholders []string
}

// NewTemplate loads src without checking names against Fields.
func NewTemplate(src string) *Template {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range placeholderExpr.FindAllStringSubmatch(src, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return &Template{src: src, placeholders: names}
}

// ParseTemplate loads src and fails fast on any placeholder not in Fields.
func ParseTemplate(src string) (*Template, error) {
	t := NewTemplate(src)

	known := make(map[string]struct{}, len(Fields))
	for _, f := range Fields {
		known[f] = struct{}{}
	}

	var unknown []string
	for _, p := range t.placeholders {
		if _, ok := known[p]; !ok {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return nil, &TemplateError{Fields: unknown, Err: ErrUnknownField}
	}
	return t, nil
}

// Placeholders returns the distinct names in first-seen order.
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.placeholders...)
}

// Source returns the unrendered template.
func (t *Template) Source() string {
	return t.src
}

// Validate checks that fields holds every placeholder.
func (t *Template) Validate(fields map[string]string) error {
	var missing []string
	for _, p := range t.placeholders {
		if _, ok := fields[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &TemplateError{Fields: missing, Err: ErrMissingField}
	}
	return nil
}

// Render substitutes every placeholder verbatim. Values are not escaped.
// Nothing is rendered if any placeholder is missing from fields.
func (t *Template) Render(fields map[string]string) (string, error) {
	if err := t.Validate(fields); err != nil {
		return "", err
	}

	pairs := make([]string, 0, 2*len(t.placeholders))
	for _, p := range t.placeholders {
		pairs = append(pairs, "{"+p+"}", fields[p])
	}
	return strings.NewReplacer(pairs...).Replace(t.src), nil
}
