package sentiment

import (
	"database/sql"
	"regexp"
	"strings"
	"unicode"
)

var urlPattern = regexp.MustCompile(`http\S+`)

// Clean lowercases text, removes URLs, drops every character that is not a
// lowercase ASCII letter or whitespace, and collapses whitespace runs to a
// single space.
//
// The result is a fixed point: Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, strings.ToLower(text))
	lower = urlPattern.ReplaceAllString(lower, "")

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	// Filtering can join fragments into a new http token ("ht-tp" -> "http").
	stripped := urlPattern.ReplaceAllString(b.String(), "")
	return strings.Join(strings.Fields(stripped), " ")
}

// CleanNull cleans a nullable field. A null field cleans to "".
func CleanNull(field sql.NullString) string {
	if !field.Valid {
		return ""
	}
	return Clean(field.String)
}
