package models

// Suggestion is a ranked master record offered to a human reviewer
type Suggestion struct {
	Record GeoRecord `json:"record" bson:"record"`
	Score  float64   `json:"score" bson:"score"` // 0..1, higher is closer
}

// ResolveResult is the full outcome of resolving one input
type ResolveResult struct {
	Input            RawGeoInput     `json:"input"`
	Extracted        Components      `json:"extracted"`
	Resolved         ResolvedAddress `json:"resolved"`
	Suggestions      []Suggestion    `json:"suggestions,omitempty"`
	MasterVersion    string          `json:"master_version"`
	FromCache        bool            `json:"from_cache"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// NeedsReview reports whether a human should look at the result
func (r *ResolveResult) NeedsReview() bool {
	return !r.Resolved.Matched
}
