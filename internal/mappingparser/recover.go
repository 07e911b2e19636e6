// Package mappingparser turns free-form mapping proposer output into a
// validated domain.Mapping. Recovery and shape coercion are tolerant;
// validation afterwards is strict and never guesses.
package mappingparser

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")

// candidates lists the substrings of raw worth parsing, in recovery order:
// the whole text, fenced code blocks, then balanced brace spans.
func candidates(raw string) []string {
	var out []string
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		out = append(out, trimmed)
	}
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if block := strings.TrimSpace(m[1]); block != "" {
			out = append(out, block)
		}
	}
	return append(out, braceSpans(raw)...)
}

// braceSpans returns every top-level balanced {...} substring. Braces
// inside JSON strings are ignored.
func braceSpans(s string) []string {
	var spans []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[start:i+1])
				start = -1
			}
		}
	}
	return spans
}

// parseObject returns the first candidate that decodes to a JSON object,
// preferring one that looks like a mapping.
func parseObject(raw string) (map[string]any, string, bool) {
	var (
		first     map[string]any
		firstText string
	)
	for _, c := range candidates(raw) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err != nil || obj == nil {
			continue
		}
		obj = unwrap(obj)
		if looksLikeMapping(obj) {
			return obj, c, true
		}
		if first == nil {
			first, firstText = obj, c
		}
	}
	return first, firstText, first != nil
}

// unwrap descends into {"mapping": {...}} envelopes.
func unwrap(obj map[string]any) map[string]any {
	for len(obj) == 1 {
		inner, ok := obj["mapping"].(map[string]any)
		if !ok {
			break
		}
		obj = inner
	}
	return obj
}

func looksLikeMapping(obj map[string]any) bool {
	for _, k := range []string{"fieldMappings", "field_mappings", "mappings"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
