package tree

import "strings"

// SerializePath renders a folder name chain in the stable form consumed
// by collaborators and stored in exported listings: each name is double
// quoted with backslashes and quotes escaped, names are joined by a
// comma and a space, and the whole is bracketed. The empty chain
// serializes to "[]".
func SerializePath(names []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		for _, r := range name {
			switch r {
			case '\\':
				b.WriteString(`\\`)
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}
