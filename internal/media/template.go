package media

import (
	"strings"
	"time"
)

// DefaultTemplate is the filename pattern used when no custom template
// is configured. It matches the canonical pattern recognised by the
// renamed-file detector.
const DefaultTemplate = "{type}-{YYYY}-{MM}-{DD}_{HHmmss}"

// templateToken is one parsed segment of a template: either literal
// text or a recognised variable.
type templateToken struct {
	text     string
	variable bool
}

// templateVariables lists the recognised variable names together with
// the time layout each renders with. The "type" variable is special:
// it renders the media-kind label instead of a date component. The
// list is ordered longest-first so that "HHmmss" is matched before
// "HH", "mm" and "ss" would fragment it.
var templateVariables = []struct {
	name   string
	layout string
}{
	{name: "HHmmss", layout: "150405"},
	{name: "YYYY", layout: "2006"},
	{name: "type", layout: ""},
	{name: "YY", layout: "06"},
	{name: "MM", layout: "01"},
	{name: "DD", layout: "02"},
	{name: "HH", layout: "15"},
	{name: "hh", layout: "03"},
	{name: "mm", layout: "04"},
	{name: "ss", layout: "05"},
}

// Template is a filename pattern containing recognised placeholder
// tokens. Unrecognised placeholders pass through as literal text.
type Template struct {
	raw    string
	tokens []templateToken
}

// ParseTemplate tokenises a pattern left to right, recognising the
// longest matching placeholder at each position. An empty pattern
// yields the default template.
func ParseTemplate(pattern string) Template {
	if pattern == "" {
		pattern = DefaultTemplate
	}

	var tokens []templateToken
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, templateToken{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		matched := false
		for _, v := range templateVariables {
			placeholder := "{" + v.name + "}"
			if strings.HasPrefix(pattern[i:], placeholder) {
				flush()
				tokens = append(tokens, templateToken{text: v.name, variable: true})
				i += len(placeholder)
				matched = true
				break
			}
		}
		if !matched {
			literal.WriteByte(pattern[i])
			i++
		}
	}
	flush()

	return Template{raw: pattern, tokens: tokens}
}

// String returns the raw pattern.
func (t Template) String() string {
	return t.raw
}

// IsZero reports whether the template was never parsed.
func (t Template) IsZero() bool {
	return t.raw == ""
}

// Render produces a filename (without extension) from the template
// using the supplied date and media kind. Every date component renders
// fixed-width and zero-padded.
func (t Template) Render(date time.Time, kind Kind) string {
	var b strings.Builder
	for _, token := range t.tokens {
		if !token.variable {
			b.WriteString(token.text)
			continue
		}
		if token.text == "type" {
			b.WriteString(kind.Label())
			continue
		}
		for _, v := range templateVariables {
			if v.name == token.text {
				b.WriteString(date.Format(v.layout))
				break
			}
		}
	}
	return b.String()
}
