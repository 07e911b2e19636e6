package domain

// ModelRef identifies a persisted model for linking and enrichment.
type ModelRef struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	MediaCount            int    `json:"mediaCount"`
	RecommendationUpdated bool   `json:"recommendationUpdated"`
}

// NeedsEnrichment reports whether the enrichment service should be called.
func (m ModelRef) NeedsEnrichment() bool {
	return !m.RecommendationUpdated && m.MediaCount > 0
}

// LinkCounts reports child rows created versus already present.
type LinkCounts struct {
	Linked   int `json:"linked"`
	Existing int `json:"existing"`
}

// DeleteResult reports rows removed by a delete-by-source.
type DeleteResult struct {
	SourceID    string `json:"sourceId"`
	Models      int64  `json:"models"`
	Media       int64  `json:"media"`
	AgencyLinks int64  `json:"agencyLinks"`
}

// MediaLink is one model_media row to create.
type MediaLink struct {
	ModelID string
	Link    string
}
