package models

import (
	"time"
)

// AddressReview is an unresolved row queued for manual review
type AddressReview struct {
	ID           string           `bson:"_id" json:"id"`
	RunID        string           `bson:"run_id" json:"run_id"`                                   // migration run that queued it
	Source       string           `bson:"source" json:"source"`                                   // input file or "api"
	RowNumber    int              `bson:"row_number" json:"row_number"`                           // 1-based data row in the source
	RawInput     RawGeoInput      `bson:"raw_input" json:"raw_input"`                             // input as read
	AutoResult   ResolvedAddress  `bson:"auto_result" json:"auto_result"`                         // resolver output
	Suggestions  []Suggestion     `bson:"suggestions" json:"suggestions"`                         // ranked master candidates
	Status       string           `bson:"status" json:"status"`                                   // review state
	ManualResult *ResolvedAddress `bson:"manual_result,omitempty" json:"manual_result,omitempty"` // reviewer correction
	ReviewerID   *string          `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt   *time.Time       `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
}

// Status constants
const (
	ReviewStatusPending   = "pending"
	ReviewStatusApproved  = "approved"
	ReviewStatusRejected  = "rejected"
	ReviewStatusCorrected = "corrected"
)

// NewAddressReview creates a pending review for an unresolved row
func NewAddressReview(id, runID, source string, row int, input RawGeoInput, result ResolvedAddress, suggestions []Suggestion) *AddressReview {
	return &AddressReview{
		ID:          id,
		RunID:       runID,
		Source:      source,
		RowNumber:   row,
		RawInput:    input,
		AutoResult:  result,
		Suggestions: suggestions,
		Status:      ReviewStatusPending,
		CreatedAt:   time.Now(),
	}
}

// IsValidStatus reports whether the status is known
func (ar *AddressReview) IsValidStatus() bool {
	switch ar.Status {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected, ReviewStatusCorrected:
		return true
	}
	return false
}

// Approve accepts the automatic result
func (ar *AddressReview) Approve(reviewerID string) {
	ar.markReviewed(ReviewStatusApproved, reviewerID)
}

// Reject discards the automatic result without a correction
func (ar *AddressReview) Reject(reviewerID string) {
	ar.markReviewed(ReviewStatusRejected, reviewerID)
}

// SetManualResult records a reviewer-supplied address
func (ar *AddressReview) SetManualResult(result ResolvedAddress, reviewerID string) {
	ar.ManualResult = &result
	ar.markReviewed(ReviewStatusCorrected, reviewerID)
}

// FinalResult returns the manual result when present, else the automatic one
func (ar *AddressReview) FinalResult() ResolvedAddress {
	if ar.ManualResult != nil {
		return *ar.ManualResult
	}
	return ar.AutoResult
}

// IsPending reports whether the review is still open
func (ar *AddressReview) IsPending() bool {
	return ar.Status == ReviewStatusPending
}

func (ar *AddressReview) markReviewed(status, reviewerID string) {
	ar.Status = status
	ar.ReviewerID = &reviewerID
	now := time.Now()
	ar.ReviewedAt = &now
}
