package transform

import (
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

var genderSynonyms = map[string]domain.Gender{
	"m": domain.GenderMale, "male": domain.GenderMale, "man": domain.GenderMale,
	"men": domain.GenderMale, "boy": domain.GenderMale, "masculine": domain.GenderMale,

	"f": domain.GenderFemale, "female": domain.GenderFemale, "woman": domain.GenderFemale,
	"women": domain.GenderFemale, "girl": domain.GenderFemale, "feminine": domain.GenderFemale,

	"trans": domain.GenderTransgender, "transgender": domain.GenderTransgender,

	"nb": domain.GenderNonBinary, "nonbinary": domain.GenderNonBinary,
	"non_binary": domain.GenderNonBinary, "enby": domain.GenderNonBinary,

	"transman": domain.GenderTransman, "trans_man": domain.GenderTransman,
	"trans_male": domain.GenderTransman, "ftm": domain.GenderTransman,

	"transwoman": domain.GenderTranswoman, "trans_woman": domain.GenderTranswoman,
	"trans_female": domain.GenderTranswoman, "mtf": domain.GenderTranswoman,
}

// NormalizeGender maps a gender synonym to its canonical tag, or nil.
func NormalizeGender(v any) any {
	s, ok := asText(v)
	if !ok {
		return nil
	}
	if g, ok := genderSynonyms[domain.NormalizeKey(s)]; ok {
		return string(g)
	}
	return nil
}

var listSeparators = strings.NewReplacer(";", ",", "|", ",", "\n", ",", "/", ",")

// SplitList splits a delimited cell into trimmed, non-empty items.
func SplitList(v any) any {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		return x
	}
	s, ok := asText(v)
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(listSeparators.Replace(s), ",") {
		part = strings.TrimSpace(part)
		key := strings.ToLower(part)
		if part == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
