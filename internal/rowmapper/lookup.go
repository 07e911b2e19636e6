package rowmapper

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// placeholders are cell values that mean "no value".
var placeholders = map[string]bool{
	"n/a": true, "na": true, "#n/a": true, "-": true, "--": true, "null": true, "nil": true,
}

func isEmpty(v string) bool {
	v = domain.NormalizeText(v)
	return v == "" || placeholders[v]
}

// index resolves mapping candidates against the headers of one row.
type index struct {
	row domain.SourceRow
	// byKey maps a normalized header to the original header. The first
	// header wins on collision.
	byKey   map[string]string
	normKey []string
	headers []string
}

func newIndex(row domain.SourceRow) *index {
	headers := make([]string, 0, len(row.Values))
	for h := range row.Values {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	idx := &index{
		row:     row,
		byKey:   make(map[string]string, len(headers)),
		headers: make([]string, 0, len(headers)),
	}
	for _, h := range headers {
		k := domain.NormalizeKey(h)
		if k == "" {
			continue
		}
		if _, dup := idx.byKey[k]; dup {
			continue
		}
		idx.byKey[k] = h
		idx.normKey = append(idx.normKey, k)
		idx.headers = append(idx.headers, h)
	}
	return idx
}

// first returns the first candidate yielding a non-empty value. Every
// candidate is tried by exact and normalized header before any of them is
// tried fuzzily.
func (idx *index) first(candidates domain.Sources) (header, value string, ok bool) {
	for _, c := range candidates {
		if h, found := idx.exactHeader(c); found {
			if v, ok := idx.value(h); ok {
				return h, v, true
			}
		}
	}
	for _, c := range candidates {
		if _, found := idx.exactHeader(c); found {
			continue
		}
		key := domain.NormalizeKey(c)
		if key == "" {
			continue
		}
		if h, found := idx.fuzzyHeader(key); found {
			if v, ok := idx.value(h); ok {
				return h, v, true
			}
		}
	}
	return "", "", false
}

// value returns the trimmed cell under header. An empty cell counts as no
// value.
func (idx *index) value(header string) (string, bool) {
	v := idx.row.Values[header]
	if isEmpty(v) {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// lookup resolves a single candidate, falling back to a fuzzy match when no
// header matches exactly.
func (idx *index) lookup(candidate string) (header, value string, ok bool) {
	header, found := idx.exactHeader(candidate)
	if !found {
		key := domain.NormalizeKey(candidate)
		if key == "" {
			return "", "", false
		}
		if header, found = idx.fuzzyHeader(key); !found {
			return "", "", false
		}
	}
	value, ok = idx.value(header)
	return header, value, ok
}

func (idx *index) exactHeader(candidate string) (string, bool) {
	if _, ok := idx.row.Values[candidate]; ok {
		return candidate, true
	}
	key := domain.NormalizeKey(candidate)
	if key == "" {
		return "", false
	}
	h, ok := idx.byKey[key]
	return h, ok
}

// fuzzyHeader matches when one normalized key contains the other as a
// subsequence ("shoe_size" and "shoe_size_eu") within a small edit
// distance. Ties are rejected.
func (idx *index) fuzzyHeader(key string) (string, bool) {
	maxDistance := max(3, len(key)/3)

	ranks := fuzzy.RankFindNormalizedFold(key, idx.normKey)
	for i, nk := range idx.normKey {
		if nk != key && fuzzy.MatchNormalizedFold(nk, key) {
			ranks = append(ranks, fuzzy.Rank{
				Source:        nk,
				Target:        key,
				Distance:      fuzzy.LevenshteinDistance(nk, key),
				OriginalIndex: i,
			})
		}
	}
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)

	best := ranks[0]
	if best.Distance > maxDistance {
		return "", false
	}
	for _, r := range ranks[1:] {
		if r.Distance == best.Distance && r.OriginalIndex != best.OriginalIndex {
			return "", false
		}
	}
	return idx.headers[best.OriginalIndex], true
}
