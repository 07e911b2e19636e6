package domain

import (
	"fmt"
	"strings"
)

// SourceRow is one data row of an uploaded sheet. Line is the 1-based line
// number in the original file, header included.
type SourceRow struct {
	Line   int
	Values map[string]string
}

// Table is a parsed upload.
type Table struct {
	Filename string
	Headers  []string
	Rows     []SourceRow
}

// Sample returns at most n leading rows.
func (t *Table) Sample(n int) []SourceRow {
	if n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// MediaRecord is one model_media row.
type MediaRecord struct {
	Link string `json:"link"`
}

// CanonicalRecord is the result of applying a mapping to one source row.
type CanonicalRecord struct {
	Line   int            `json:"line"`
	Fields map[string]any `json:"fields"`
	Media  []MediaRecord  `json:"media,omitempty"`
}

// Text returns a field as a trimmed string, or "" when absent or not text.
func (r CanonicalRecord) Text(column string) string {
	s, _ := r.Fields[column].(string)
	return strings.TrimSpace(s)
}

// Name returns the mapped name.
func (r CanonicalRecord) Name() string { return r.Text(ColName) }

// Instagram returns the mapped instagram handle.
func (r CanonicalRecord) Instagram() string { return r.Text(ColInstagram) }

// HasIdentity reports whether the record can be addressed at all.
func (r CanonicalRecord) HasIdentity() bool {
	return r.Name() != "" || r.Instagram() != ""
}

// RecommendationUpdated reports whether enrichment already ran.
func (r CanonicalRecord) RecommendationUpdated() bool {
	v, _ := r.Fields[ColRecommendationUpdated].(bool)
	return v
}

// IdentityKey is the deterministic composite key that resolves a record to
// its persisted row: the system-forced fields plus the mapped identity.
func (r CanonicalRecord) IdentityKey() string {
	return IdentityKey(r.Text(ColDataSource), r.Text(ColGender), r.Text(ColBoardCategory), r.Name(), r.Instagram())
}

// IdentityKey builds the composite key from its parts.
func IdentityKey(source, gender, board, name, instagram string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		source, gender, board,
		strings.ToLower(strings.TrimSpace(name)),
		strings.ToLower(strings.TrimSpace(instagram)),
	)
}

// InferredContext is derived from the upload filename (plus an optional
// gender override) on every request.
type InferredContext struct {
	Gender        Gender         `json:"gender"`
	BoardCategory *BoardCategory `json:"boardCategory"`
	SourceID      string         `json:"sourceId"`
}

// Board returns the board tag or "" when none was inferred.
func (c InferredContext) Board() string {
	if c.BoardCategory == nil {
		return ""
	}
	return string(*c.BoardCategory)
}
