// Package render turns file detail records into relative filesystem
// paths according to a view's format template, escape mode and charset.
//
// A format is a literal path with {token} placeholders. Supported
// tokens: {semester}, {course-id}, {course}, {course-abbrev}, {type},
// {type-abbrev}, {path}, {short-path}, {id}, {name}, {ext}, {author}
// and {description}. Unknown tokens stay verbatim. {ext} expands to
// ".<extension>" or to nothing, {path} to the folder chain joined with
// slashes and {short-path} to the same chain without its first
// component. Every substituted value is escaped first, so a slash in a
// course name can never introduce an extra directory level.
package render

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"hoersaal/internal/domain"
)

// similarReplacements maps characters that common filesystems reject
// onto visually similar Unicode counterparts.
var similarReplacements = map[rune]rune{
	'/':  '∕',
	'\\': '⧵',
	':':  '∶',
	'*':  '∗',
	'?':  '？',
	'"':  '”',
	'<':  '‹',
	'>':  '›',
	'|':  '¦',
}

// typeableReplacements substitutes plain keyboard characters instead.
var typeableReplacements = map[rune]rune{
	'/':  '-',
	'\\': '-',
	':':  '-',
	'*':  '_',
	'?':  '_',
	'"':  '_',
	'<':  '_',
	'>':  '_',
	'|':  '_',
}

var transliterations = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue",
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue",
	'ß': "ss",
	'é': "e", 'è': "e", 'ê': "e",
	'á': "a", 'à': "a", 'â': "a",
	'í': "i", 'ì': "i", 'î': "i",
	'ó': "o", 'ò': "o", 'ô': "o",
	'ú': "u", 'ù': "u", 'û': "u",
	'ñ': "n", 'ç': "c",
}

func hostile(r rune) bool {
	_, ok := similarReplacements[r]
	return ok
}

// EscapeFileName rewrites name so it is safe to use as one path
// component: the escape mode decides what happens to hostile characters
// and word separators, the charset then restricts the alphabet.
func EscapeFileName(name string, mode domain.EscapeMode, cs domain.Charset) string {
	var out string
	switch mode {
	case domain.EscapeTypeable:
		out = replaceRunes(name, typeableReplacements)
	case domain.EscapeCamelCase:
		var b strings.Builder
		for _, w := range splitWords(name) {
			r, size := utf8.DecodeRuneInString(w)
			b.WriteRune(unicode.ToUpper(r))
			b.WriteString(w[size:])
		}
		out = b.String()
	case domain.EscapeSnakeCase:
		out = strings.Join(splitWords(strings.ToLower(name)), "_")
	default:
		out = replaceRunes(name, similarReplacements)
	}

	switch cs {
	case domain.CharsetASCII:
		out = transliterate(out, false)
	case domain.CharsetIdentifier:
		out = transliterate(out, true)
	}
	return out
}

func replaceRunes(s string, table map[rune]rune) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := table[r]; ok {
			b.WriteRune(repl)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return hostile(r) || unicode.IsSpace(r)
	})
}

func transliterate(s string, identifier bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := transliterations[r]; ok {
			b.WriteString(repl)
			continue
		}
		switch {
		case identifier && !identifierRune(r):
			b.WriteByte('_')
		case !identifier && r > unicode.MaxASCII:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func identifierRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// Expand substitutes the view's escape and charset settings into the
// format template for one file. The result still uses slashes as
// separators and is not yet joined onto the view base.
func Expand(v domain.View, d domain.FileDetail) string {
	esc := func(s string) string {
		return EscapeFileName(s, v.Escape, v.Charset)
	}
	joinPath := func(names []string) string {
		parts := make([]string, 0, len(names))
		for _, n := range names {
			parts = append(parts, esc(n))
		}
		return strings.Join(parts, "/")
	}
	shortPath := d.Path
	if len(shortPath) > 0 {
		shortPath = shortPath[1:]
	}
	ext := ""
	if d.Extension != "" {
		ext = "." + esc(d.Extension)
	}

	values := map[string]string{
		"semester":      esc(d.Semester),
		"course-id":     esc(d.CourseID),
		"course":        esc(d.CourseName),
		"course-abbrev": esc(d.CourseAbbrev),
		"type":          esc(d.CourseType),
		"type-abbrev":   esc(d.CourseTypeAbbrev),
		"path":          joinPath(d.Path),
		"short-path":    joinPath(shortPath),
		"id":            esc(d.ID),
		"name":          esc(d.Name),
		"ext":           ext,
		"author":        esc(d.Author),
		"description":   esc(d.Description),
	}

	var b strings.Builder
	format := v.Format
	for i := 0; i < len(format); {
		if format[i] == '{' {
			if j := strings.IndexByte(format[i:], '}'); j > 0 {
				if val, ok := values[format[i+1:i+j]]; ok {
					b.WriteString(val)
					i += j + 1
					continue
				}
			}
		}
		b.WriteByte(format[i])
		i++
	}
	return b.String()
}

// Path renders the full relative path of one file under the sync root:
// the expanded format joined onto the view base, empty segments
// dropped. Bases that resolve outside the sync root are refused.
func Path(v domain.View, d domain.FileDetail) (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	parts := []string{v.Base}
	for _, seg := range strings.Split(Expand(v, d), "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	rel := path.Join(parts...)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %q resolves outside the sync root", domain.ErrInvalidBase, v.Base)
	}
	return rel, nil
}
