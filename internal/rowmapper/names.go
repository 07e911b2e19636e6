package rowmapper

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// TitleName title-cases a person's name. Spaces, hyphens and apostrophes
// start a new word, so "o'brien-smith" becomes "O'Brien-Smith".
func TitleName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	runes := []rune(lower.String(s))
	start := true
	for i, r := range runes {
		if start && unicode.IsLetter(r) {
			runes[i] = unicode.ToTitle(r)
		}
		start = r == ' ' || r == '-' || r == '\'' || r == '’'
	}
	return string(runes)
}

// InstagramHandle reduces a handle or profile URL to the bare lowercase
// handle: "https://instagram.com/Jane.Doe/?hl=en" and "@jane.doe" both
// become "jane.doe".
func InstagramHandle(s string) string {
	s = strings.TrimSpace(s)
	lowerS := strings.ToLower(s)
	if i := strings.Index(lowerS, "instagram.com/"); i >= 0 {
		s = s[i+len("instagram.com/"):]
		if j := strings.IndexAny(s, "/?#"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
