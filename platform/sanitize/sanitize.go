// Package sanitize cleans free text typed by staff before it is stored: stage notes,
// follow-ups, block-reason remarks, sample names and result notes. Stored text is plain;
// email templates escape it again on output.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	blankRunRegex  = regexp.MustCompile(`\n{3,}`)
	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&#39;", "'")
)

// StripHTML removes tags, decodes the common entities and strips again so encoded tags
// cannot survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text cleans multi-line input such as notes and follow-ups. Line breaks are kept,
// normalized to \n, with at most one empty line in a row.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return blankRunRegex.ReplaceAllString(StripHTML(s), "\n\n")
}

// TextPtr applies Text to an optional field. nil stays nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Line cleans single-line input such as names: every whitespace run becomes one space.
func Line(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}
