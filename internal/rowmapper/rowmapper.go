// Package rowmapper applies a validated mapping to source rows, producing
// canonical records ready to be persisted.
package rowmapper

import (
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/transform"
)

// ApplyMapping turns one source row into a canonical record. It is pure and
// deterministic: the same row, mapping and context always give the same
// record. Gender, board category and data source are written last and
// overwrite anything the mapping produced for them.
func ApplyMapping(row domain.SourceRow, m domain.Mapping, ictx domain.InferredContext) domain.CanonicalRecord {
	idx := newIndex(row)
	rec := domain.CanonicalRecord{
		Line:   row.Line,
		Fields: make(map[string]any, len(m.FieldMappings)+3),
	}

	for _, key := range m.FieldKeys() {
		table, column, ok := domain.SplitKey(key)
		if !ok || table != domain.TableModels || domain.IsSystemField(column) {
			continue
		}
		desc, ok := domain.LookupField(table, column)
		if !ok {
			continue
		}
		rec.Fields[column] = resolveField(idx, m.FieldMappings[key], desc, ictx.Gender)
	}

	if name, ok := rec.Fields[domain.ColName].(string); ok {
		rec.Fields[domain.ColName] = TitleName(name)
	}
	if handle, ok := rec.Fields[domain.ColInstagram].(string); ok {
		rec.Fields[domain.ColInstagram] = InstagramHandle(handle)
	}

	if spec, ok := m.MediaSpec(); ok {
		rec.Media = extractMedia(idx, spec)
	}

	rec.Fields[domain.ColGender] = string(ictx.Gender)
	if ictx.BoardCategory != nil {
		rec.Fields[domain.ColBoardCategory] = string(*ictx.BoardCategory)
	} else {
		rec.Fields[domain.ColBoardCategory] = nil
	}
	rec.Fields[domain.ColDataSource] = ictx.SourceID

	return rec
}

// ApplyAll maps every row in order.
func ApplyAll(rows []domain.SourceRow, m domain.Mapping, ictx domain.InferredContext) []domain.CanonicalRecord {
	out := make([]domain.CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ApplyMapping(row, m, ictx))
	}
	return out
}

func resolveField(idx *index, spec domain.FieldSpec, desc domain.FieldDescriptor, gender domain.Gender) any {
	header, raw, found := idx.first(spec.From)

	t, err := transform.Select(desc, spec.Transform, gender, header)
	if err != nil {
		return nil
	}
	if found {
		return t.Apply(raw)
	}
	if spec.Default != nil {
		return t.Apply(spec.Default)
	}
	return nil
}

func extractMedia(idx *index, spec domain.FieldSpec) []domain.MediaRecord {
	var out []domain.MediaRecord
	seen := make(map[string]bool)
	add := func(cell string) {
		for _, link := range ExtractLinks(cell) {
			if !seen[link] {
				seen[link] = true
				out = append(out, domain.MediaRecord{Link: link})
			}
		}
	}

	for _, candidate := range spec.From {
		if _, value, ok := idx.lookup(candidate); ok {
			add(value)
		}
	}
	if len(out) == 0 {
		if s, ok := spec.Default.(string); ok {
			add(s)
		}
	}
	return out
}

// ExtractLinks returns the http(s) URLs found in a cell, in order, without
// duplicates. Tokens are separated by whitespace, commas or semicolons.
func ExtractLinks(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	var out []string
	seen := make(map[string]bool)
	for _, f := range fields {
		f = strings.Trim(f, `"'<>()[]`)
		lower := strings.ToLower(f)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
