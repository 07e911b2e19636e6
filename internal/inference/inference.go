// Package inference derives gender and board categories from upload
// filenames. Filenames are uncontrolled user input, so matching works on a
// normalized token stream and never guesses: no hint means nil.
package inference

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type hint struct {
	tokens []string
	// allOf matches when every token is present anywhere in the stream,
	// in any order ("big_and_tall", "tall_big").
	allOf bool
}

func (h hint) compound() bool { return len(h.tokens) > 1 }

type rule[T any] struct {
	tag   T
	hints []hint
}

func phrase(s string) hint { return hint{tokens: strings.Fields(s)} }

func phrases(ss ...string) []hint {
	out := make([]hint, len(ss))
	for i, s := range ss {
		out[i] = phrase(s)
	}
	return out
}

var genderRules = []rule[domain.Gender]{
	{domain.GenderTransman, phrases("trans man", "trans men", "transman", "transmen", "trans male", "trans masc", "ftm")},
	{domain.GenderTranswoman, phrases("trans woman", "trans women", "transwoman", "transwomen", "trans female", "trans femme", "mtf")},
	{domain.GenderNonBinary, phrases("non binary", "nonbinary", "nb", "enby", "genderqueer")},
	{domain.GenderTransgender, phrases("trans", "transgender")},
	{domain.GenderFemale, phrases("women", "woman", "womens", "female", "females", "girl", "girls", "ladies", "lady")},
	{domain.GenderMale, phrases("men", "man", "mens", "male", "males", "boy", "boys", "gents")},
}

var boardRules = []rule[domain.BoardCategory]{
	{domain.BoardBigAndTall, []hint{{tokens: []string{"big", "tall"}, allOf: true}, phrase("bigandtall"), phrase("bigtall")}},
	{domain.BoardNewFace, phrases("a new face", "new face", "newface", "anewface")},
	{domain.BoardDevelopment, phrases("development", "dev board", "devboard")},
	{domain.BoardMainboard, phrases("main board", "mainboard", "main")},
	{domain.BoardCommercial, phrases("commercial")},
	{domain.BoardCurve, phrases("curve", "plus size", "plussize")},
	{domain.BoardPetite, phrases("petite")},
	{domain.BoardFitness, phrases("fitness")},
	{domain.BoardClassic, phrases("classic")},
	{domain.BoardInfluencer, phrases("influencer")},
	{domain.BoardDirect, phrases("direct")},
}

func init() {
	for i := range boardRules {
		boardRules[i].hints = expandHints(boardRules[i].hints)
	}
}

// expandHints adds declined variants of every phrase hint: plural endings
// on the last word and the concatenated form without separators.
func expandHints(in []hint) []hint {
	seen := make(map[string]bool)
	var out []hint
	add := func(h hint) {
		key := strings.Join(h.tokens, " ")
		if h.allOf {
			key = "&" + key
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, h)
	}

	for _, h := range in {
		add(h)
		if h.allOf {
			continue
		}
		last := len(h.tokens) - 1
		for _, suffix := range []string{"s", "es"} {
			plural := append(append([]string(nil), h.tokens[:last]...), h.tokens[last]+suffix)
			add(hint{tokens: plural})
			if len(plural) > 1 {
				add(hint{tokens: []string{strings.Join(plural, "")}})
			}
		}
		if len(h.tokens) > 1 {
			add(hint{tokens: []string{strings.Join(h.tokens, "")}})
		}
	}
	return out
}

// Tokenize lowercases the filename stem and splits it on every run of
// non-alphanumeric characters and on letter/digit boundaries.
func Tokenize(filename string) []string {
	stem := stem(filename)
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range strings.ToLower(stem) {
		switch {
		case unicode.IsLetter(r):
			if len(cur) > 0 && unicode.IsDigit(cur[len(cur)-1]) {
				flush()
			}
			cur = append(cur, r)
		case unicode.IsDigit(r):
			if len(cur) > 0 && unicode.IsLetter(cur[len(cur)-1]) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func stem(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// InferGender returns the gender tag hinted by the filename, or nil.
func InferGender(filename string) *domain.Gender {
	return match(Tokenize(filename), genderRules)
}

// InferBoardCategory returns the board tag hinted by the filename, or nil.
func InferBoardCategory(filename string) *domain.BoardCategory {
	return match(Tokenize(filename), boardRules)
}

// match tries every compound hint of every rule before any single-token
// hint, in rule order, so "trans_man" resolves before "trans" or "man".
func match[T any](tokens []string, rules []rule[T]) *T {
	if len(tokens) == 0 {
		return nil
	}
	for _, compound := range []bool{true, false} {
		for _, r := range rules {
			for _, h := range r.hints {
				if h.compound() != compound {
					continue
				}
				if h.matches(tokens) {
					tag := r.tag
					return &tag
				}
			}
		}
	}
	return nil
}

func (h hint) matches(tokens []string) bool {
	if h.allOf {
		for _, want := range h.tokens {
			if !contains(tokens, want) {
				return false
			}
		}
		return true
	}
	n := len(h.tokens)
	for i := 0; i+n <= len(tokens); i++ {
		ok := true
		for j := range n {
			if tokens[i+j] != h.tokens[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
