package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Sources is an ordered, deduplicated list of candidate source columns.
// It serializes as a bare string when it holds one element.
type Sources []string

// NewSources trims, drops empties and deduplicates while keeping order.
func NewSources(in ...string) Sources {
	seen := make(map[string]bool, len(in))
	out := make(Sources, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s Sources) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

func (s *Sources) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = NewSources(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("from must be a string or an array of strings: %w", err)
	}
	*s = NewSources(many...)
	return nil
}

// FieldSpec tells the row mapper where a target column comes from.
type FieldSpec struct {
	From      Sources `json:"from,omitempty"`
	Transform string  `json:"transform,omitempty"`
	Default   any     `json:"default,omitempty"`
}

// Mapping is the validated contract between a proposal and its application.
type Mapping struct {
	TargetTables  []string             `json:"targetTables"            validate:"required,min=1,dive,required"`
	FieldMappings map[string]FieldSpec `json:"fieldMappings"           validate:"required,min=1"`
	MediaMappings map[string]FieldSpec `json:"mediaMappings,omitempty" validate:"max=1"`
	Notes         string               `json:"notes,omitempty"`
}

// SplitKey splits a "table.column" key.
func SplitKey(key string) (table, column string, ok bool) {
	table, column, ok = strings.Cut(key, ".")
	if !ok || table == "" || column == "" || strings.Contains(column, ".") {
		return "", "", false
	}
	return table, column, true
}

// FieldKeys returns the field mapping keys in sorted order.
func (m Mapping) FieldKeys() []string {
	keys := make([]string, 0, len(m.FieldMappings))
	for k := range m.FieldMappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MediaSpec returns the media link spec, if any.
func (m Mapping) MediaSpec() (FieldSpec, bool) {
	spec, ok := m.MediaMappings[MediaLinkKey]
	return spec, ok
}
