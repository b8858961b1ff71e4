package media

import (
	"regexp"
	"strings"
)

// canonicalRenamedPattern matches filenames already shaped like the
// default output: Photo-YYYY-MM-DD_HHMMSS.ext or Video-..., with an
// optional _N duplicate suffix before the extension. The match is
// structural, not calendar-validated: a month of 13 still matches.
// That keeps the detector cheap and is deliberate; its only job is to
// avoid reprocessing output-shaped files.
var canonicalRenamedPattern = regexp.MustCompile(
	`(?i)^(Photo|Video)-(\d{4})-(\d{2})-(\d{2})_(\d{6})(_\d+)?\.(\w+)$`)

// RenamedFileDetector decides whether a filename already matches the
// output pattern, so it is not processed twice.
type RenamedFileDetector struct {
	pattern *regexp.Regexp
}

// NewRenamedFileDetector creates a detector for the canonical pattern.
func NewRenamedFileDetector() *RenamedFileDetector {
	return &RenamedFileDetector{pattern: canonicalRenamedPattern}
}

// NewTemplateDetector derives a detector from a custom template's
// literal skeleton. Literal segments match verbatim, date variables
// match their digit widths and {type} matches either kind label, so
// the canonical pattern is replaced rather than bypassed when a custom
// template is active.
func NewTemplateDetector(template Template) *RenamedFileDetector {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	for _, token := range template.tokens {
		if !token.variable {
			b.WriteString(regexp.QuoteMeta(token.text))
			continue
		}
		switch token.text {
		case "type":
			b.WriteString(`(Photo|Video)`)
		case "YYYY":
			b.WriteString(`\d{4}`)
		case "HHmmss":
			b.WriteString(`\d{6}`)
		default:
			// YY, MM, DD, HH, hh, mm, ss are all two digits.
			b.WriteString(`\d{2}`)
		}
	}
	b.WriteString(`(_\d+)?\.(\w+)$`)
	return &RenamedFileDetector{pattern: regexp.MustCompile(b.String())}
}

// IsAlreadyRenamed reports whether the filename matches the output
// pattern, and the kind encoded in it. When the pattern carries no
// {type} variable the kind defaults to photo.
func (d *RenamedFileDetector) IsAlreadyRenamed(filename string) (bool, Kind) {
	match := d.pattern.FindStringSubmatch(filename)
	if match == nil {
		return false, ""
	}
	for _, group := range match[1:] {
		if strings.EqualFold(group, "Video") {
			return true, KindVideo
		}
		if strings.EqualFold(group, "Photo") {
			return true, KindPhoto
		}
	}
	return true, KindPhoto
}
