package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AbbreviateName derives a short form of a course name by taking the
// initial of every word. Words that start with a digit are kept whole,
// so "Analysis 2" becomes "A2". A single-word name is returned as is.
func AbbreviateName(name string) string {
	words := strings.Fields(name)
	if len(words) <= 1 {
		return strings.TrimSpace(name)
	}
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsDigit(r) {
			b.WriteString(w)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AbbreviateType derives a short form of a course type from the
// uppercased initials of its words, so "Vorlesung" becomes "V" and
// "Practical course" becomes "PC".
func AbbreviateType(courseType string) string {
	var b strings.Builder
	for _, w := range strings.Fields(courseType) {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
