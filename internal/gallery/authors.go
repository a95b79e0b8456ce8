package gallery

import "strings"

// UnknownAuthor is shown when a book has no author.
const UnknownAuthor = "Unknown Author"

// FormatAuthors turns a semicolon-delimited author list into display text:
// "A", "A and B", or "A, B, and C".
func FormatAuthors(raw string) string {
	var names []string
	for _, n := range strings.Split(raw, ";") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	switch len(names) {
	case 0:
		return UnknownAuthor
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
