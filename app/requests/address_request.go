package requests

import "github.com/address-resolver/app/models"

// MaxBatchSize bounds POST /v1/addresses/batch
const MaxBatchSize = 1000

// ResolveAddressRequest is one address to resolve. At least one field must be set.
type ResolveAddressRequest struct {
	Subdistrict string `json:"subdistrict"`
	District    string `json:"district"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	FreeText    string `json:"free_text"`
}

// Input converts the request to a resolver input
func (r ResolveAddressRequest) Input() models.RawGeoInput {
	return models.RawGeoInput{
		Subdistrict: r.Subdistrict,
		District:    r.District,
		Province:    r.Province,
		PostalCode:  r.PostalCode,
		FreeText:    r.FreeText,
	}
}

// ExtractAddressRequest is free text to run through extraction only
type ExtractAddressRequest struct {
	Text string `json:"text" binding:"required"`
}

// BatchResolveRequest resolves up to MaxBatchSize addresses in order
type BatchResolveRequest struct {
	Items []ResolveAddressRequest `json:"items" binding:"required,min=1,max=1000"`
}

// InvalidateCacheRequest selects what to drop from the cache
type InvalidateCacheRequest struct {
	All bool `json:"all"` // drop everything, not just entries of older masters
}

// ReviewDecisionRequest approves or rejects a review
type ReviewDecisionRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}

// ReviewCorrectRequest supplies the reviewer's address
type ReviewCorrectRequest struct {
	ReviewerID  string `json:"reviewer_id" binding:"required"`
	Subdistrict string `json:"subdistrict" binding:"required"`
	District    string `json:"district" binding:"required"`
	Province    string `json:"province" binding:"required"`
	PostalCode  string `json:"postal_code" binding:"required,len=5,numeric"`
}

// Record converts the correction to a master record
func (r ReviewCorrectRequest) Record() models.GeoRecord {
	return models.GeoRecord{
		Subdistrict: r.Subdistrict,
		District:    r.District,
		Province:    r.Province,
		PostalCode:  r.PostalCode,
	}
}
