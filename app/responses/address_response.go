package responses

import (
	"github.com/address-resolver/app/models"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BatchResolveResponse holds results in request order
type BatchResolveResponse struct {
	MasterVersion    string                  `json:"master_version"`
	Total            int                     `json:"total"`
	Matched          int                     `json:"matched"`
	Results          []*models.ResolveResult `json:"results"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
}

// RecordsResponse lists master records
type RecordsResponse struct {
	Total   int                `json:"total"`
	Records []models.GeoRecord `json:"records"`
}

// AdminUnitsResponse lists one level of the hierarchy
type AdminUnitsResponse struct {
	Level string             `json:"level"`
	Total int                `json:"total"`
	Units []models.AdminUnit `json:"units"`
}

// ReviewListResponse is one page of the review queue
type ReviewListResponse struct {
	Reviews []*models.AddressReview `json:"reviews"`
	Total   int64                   `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// ReviewActionResponse reports a review decision
type ReviewActionResponse struct {
	ReviewID string                `json:"review_id"`
	Action   string                `json:"action"`
	Review   *models.AddressReview `json:"review"`
}

// HealthResponse is returned by /health, /ready and /live
type HealthResponse struct {
	Status        string `json:"status"`
	MasterVersion string `json:"master_version"`
	MasterRecords int    `json:"master_records"`
	Uptime        string `json:"uptime"`
}
