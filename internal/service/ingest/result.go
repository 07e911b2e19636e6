package ingest

import (
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// Stage is where an upload is in the review workflow.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageContextInferred Stage = "context_inferred"
	StageMappingProposed Stage = "mapping_proposed"
	StagePreviewReviewed Stage = "preview_reviewed"
	StageConfirmed       Stage = "confirmed"
)

// DuplicateStatus reports whether a source was ingested before.
type DuplicateStatus struct {
	SourceID string `json:"sourceId"`
	Exists   bool   `json:"exists"`
	Existing int    `json:"existing"`
}

// UploadResult is returned by Inspect.
type UploadResult struct {
	Stage         Stage                  `json:"stage"`
	Filename      string                 `json:"filename"`
	Context       domain.InferredContext `json:"context"`
	NeedsGender   bool                   `json:"needsGender"`
	GenderOptions []string               `json:"genderOptions,omitempty"`
	Headers       []string               `json:"headers"`
	RowCount      int                    `json:"rowCount"`
	Duplicate     DuplicateStatus        `json:"duplicate"`
}

// PreviewResult is a proposed mapping rendered against the first rows.
type PreviewResult struct {
	Stage    Stage                    `json:"stage"`
	Context  domain.InferredContext   `json:"context"`
	Mapping  domain.Mapping           `json:"mapping"`
	Headers  []string                 `json:"headers"`
	RowCount int                      `json:"rowCount"`
	Preview  []domain.CanonicalRecord `json:"preview"`
	// PreviewSkipped counts preview rows without a name or handle.
	PreviewSkipped int `json:"previewSkipped"`
}

// RowFailure attributes a persistence failure to a source line.
type RowFailure struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// TwinHint is advisory: the remote service thinks these records may be the
// same person. Nothing is merged.
type TwinHint struct {
	Line         int      `json:"line"`
	ID           string   `json:"id"`
	GroupID      string   `json:"groupId"`
	CandidateIDs []string `json:"candidateIds"`
}

// ApplyReport summarizes a confirm.
type ApplyReport struct {
	Stage             Stage        `json:"stage"`
	SourceID          string       `json:"sourceId"`
	Total             int          `json:"total"`
	Inserted          int          `json:"inserted"`
	Existing          int          `json:"existing"`
	Skipped           int          `json:"skipped"`
	Failed            int          `json:"failed"`
	Failures          []RowFailure `json:"failures,omitempty"`
	FailuresTruncated bool         `json:"failuresTruncated,omitempty"`
	MediaLinked       int          `json:"mediaLinked"`
	MediaExisting     int          `json:"mediaExisting"`
	AgencyLinked      int          `json:"agencyLinked"`
	AgencyExisting    int          `json:"agencyExisting"`
	Twins             []TwinHint   `json:"twins,omitempty"`
	EnrichmentQueued  int          `json:"enrichmentQueued"`
}

// PersistedRecord ties a written record back to its source line.
type PersistedRecord struct {
	Line     int
	Ref      domain.ModelRef
	HasMedia bool
}

// ChunkResult is what a writer reports for one chunk.
type ChunkResult struct {
	Inserted  int
	Existing  int
	Failures  []RowFailure
	Media     domain.LinkCounts
	Agency    domain.LinkCounts
	Twins     []TwinHint
	Persisted []PersistedRecord
}
