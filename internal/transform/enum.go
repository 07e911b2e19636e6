package transform

import (
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// spellingVariants pairs spellings that resolve to the same choice. The
// longer spelling comes first since "blonde" also contains "blond".
var spellingVariants = [][2]string{
	{"blonde", "blond"},
	{"grey", "gray"},
}

// EnumAliases returns every normalized spelling that resolves to choice.
func EnumAliases(choice string) []string {
	base := domain.NormalizeKey(choice)
	if base == "" {
		return nil
	}
	aliases := []string{base}
	for _, pair := range spellingVariants {
		for _, alias := range aliases {
			switch {
			case strings.Contains(alias, pair[0]):
				aliases = appendUnique(aliases, strings.ReplaceAll(alias, pair[0], pair[1]))
			case strings.Contains(alias, pair[1]):
				aliases = appendUnique(aliases, strings.ReplaceAll(alias, pair[1], pair[0]))
			}
		}
	}
	for _, alias := range aliases {
		aliases = appendUnique(aliases, strings.ReplaceAll(alias, "_", ""))
	}
	return aliases
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// EnumSanitize returns the canonical choice v is an alias of, or nil.
// Earlier choices win when aliases collide.
func EnumSanitize(v any, choices []string) any {
	s, ok := asText(v)
	if !ok {
		return nil
	}
	key := domain.NormalizeKey(s)
	if key == "" {
		return nil
	}
	for _, choice := range choices {
		for _, alias := range EnumAliases(choice) {
			if alias == key {
				return choice
			}
		}
	}
	return nil
}
