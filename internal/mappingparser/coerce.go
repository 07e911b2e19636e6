package mappingparser

import (
	"sort"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// fromSubKeys are checked, in order, when a proposer wraps a source column
// name in an object instead of a string.
var fromSubKeys = []string{"from", "name", "column", "header"}

// coerce maps a decoded object onto the Mapping shape. It fixes known
// proposer quirks and leaves everything else for validation to reject.
func coerce(obj map[string]any) domain.Mapping {
	m := domain.Mapping{
		FieldMappings: make(map[string]domain.FieldSpec),
	}

	fields, _ := pick(obj, "fieldMappings", "field_mappings", "mappings").(map[string]any)
	for key, v := range fields {
		key = qualify(strings.TrimSpace(key))
		spec := coerceSpec(v)
		if key == domain.MediaLinkKey {
			mergeMedia(&m, spec)
			continue
		}
		m.FieldMappings[key] = spec
	}

	media, _ := pick(obj, "mediaMappings", "media_mappings").(map[string]any)
	for key, v := range media {
		key = strings.TrimSpace(key)
		if key == domain.MediaLinkKey || key == domain.ColMediaLink || key == domain.TableMedia {
			mergeMedia(&m, coerceSpec(v))
		}
	}

	m.TargetTables = targetTables(pick(obj, "targetTables", "target_tables"), m)
	if notes, ok := obj["notes"].(string); ok {
		m.Notes = strings.TrimSpace(notes)
	}
	return m
}

func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

// qualify prefixes a bare models column with its table.
func qualify(key string) string {
	if strings.Contains(key, ".") {
		return key
	}
	if _, ok := domain.LookupField(domain.TableModels, key); ok || domain.IsSystemField(key) {
		return domain.TableModels + "." + key
	}
	return key
}

func mergeMedia(m *domain.Mapping, spec domain.FieldSpec) {
	if m.MediaMappings == nil {
		m.MediaMappings = make(map[string]domain.FieldSpec, 1)
	}
	existing := m.MediaMappings[domain.MediaLinkKey]
	existing.From = domain.NewSources(append(existing.From, spec.From...)...)
	if existing.Default == nil {
		existing.Default = spec.Default
	}
	m.MediaMappings[domain.MediaLinkKey] = existing
}

// coerceSpec accepts a full spec object, or a bare string or array as
// shorthand for {"from": value}.
func coerceSpec(v any) domain.FieldSpec {
	switch x := v.(type) {
	case string, []any:
		return domain.FieldSpec{From: domain.NewSources(flattenFrom(x)...)}
	case map[string]any:
		spec := domain.FieldSpec{Default: x["default"]}
		if from, ok := x["from"]; ok {
			spec.From = domain.NewSources(flattenFrom(from)...)
		} else {
			spec.From = domain.NewSources(flattenFrom(x)...)
		}
		if t, ok := x["transform"].(string); ok {
			spec.Transform = strings.TrimSpace(t)
		}
		return spec
	}
	return domain.FieldSpec{}
}

// flattenFrom collects every source column name in v. Objects contribute
// the string values of their from/name/column/header keys.
func flattenFrom(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, flattenFrom(item)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, k := range fromSubKeys {
			if inner, ok := x[k]; ok {
				out = append(out, flattenFrom(inner)...)
			}
		}
		return out
	}
	return nil
}

// targetTables uses the declared list when present and always includes
// every table a mapping key refers to.
func targetTables(declared any, m domain.Mapping) []string {
	set := make(map[string]bool)
	switch x := declared.(type) {
	case string:
		set[strings.TrimSpace(x)] = true
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				set[strings.TrimSpace(s)] = true
			}
		}
	}
	for key := range m.FieldMappings {
		if table, _, ok := domain.SplitKey(key); ok {
			set[table] = true
		}
	}
	if len(m.MediaMappings) > 0 {
		set[domain.TableMedia] = true
	}
	delete(set, "")

	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
