package models

// GeoRecord is one canonical subdistrict row of the master list
type GeoRecord struct {
	Subdistrict string `json:"subdistrict" bson:"subdistrict"` // ตำบล / แขวง
	District    string `json:"district" bson:"district"`       // อำเภอ / เขต
	Province    string `json:"province" bson:"province"`       // จังหวัด
	PostalCode  string `json:"postal_code" bson:"postal_code"` // exactly 5 ASCII digits
}

// Key returns a stable identifier for the record
func (g GeoRecord) Key() string {
	return g.PostalCode + "|" + g.Province + "|" + g.District + "|" + g.Subdistrict
}

// RawGeoInput is the address part of one migrated row before resolution
type RawGeoInput struct {
	Subdistrict string `json:"subdistrict"`
	District    string `json:"district"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	FreeText    string `json:"free_text"` // original street/address line
}

// IsEmpty reports whether the input carries nothing to resolve
func (in RawGeoInput) IsEmpty() bool {
	return in.Subdistrict == "" && in.District == "" && in.Province == "" && in.PostalCode == "" && in.FreeText == ""
}

// Strategy names the cascade step that produced a ResolvedAddress
type Strategy string

// Strategy constants, in cascade order
const (
	StrategyZipSubdistrictExact    Strategy = "zip_subdistrict_exact"
	StrategyZipSubdistrictFreeText Strategy = "zip_subdistrict_free_text"
	StrategyZipSubdistrictPartial  Strategy = "zip_subdistrict_partial"
	StrategyZipDistrict            Strategy = "zip_district"
	StrategyZipDistrictFreeText    Strategy = "zip_district_free_text"
	StrategyZipUnique              Strategy = "zip_unique"
	StrategyZipProvince            Strategy = "zip_province"
	StrategyZipFirst               Strategy = "zip_first"
	StrategyDistrictProvince       Strategy = "district_province"
	StrategyUniqueSubdistrict      Strategy = "unique_subdistrict"
	StrategyFallback               Strategy = "fallback"

	// StrategyManual marks an address supplied by a reviewer
	StrategyManual Strategy = "manual"
)

// Strategies lists every strategy in cascade order
var Strategies = []Strategy{
	StrategyZipSubdistrictExact,
	StrategyZipSubdistrictFreeText,
	StrategyZipSubdistrictPartial,
	StrategyZipDistrict,
	StrategyZipDistrictFreeText,
	StrategyZipUnique,
	StrategyZipProvince,
	StrategyZipFirst,
	StrategyDistrictProvince,
	StrategyUniqueSubdistrict,
	StrategyFallback,
}

// ResolvedAddress is the resolver output for one row
type ResolvedAddress struct {
	Subdistrict string   `json:"subdistrict" bson:"subdistrict"`
	District    string   `json:"district" bson:"district"`
	Province    string   `json:"province" bson:"province"`
	PostalCode  string   `json:"postal_code" bson:"postal_code"`
	Matched     bool     `json:"matched" bson:"matched"`   // true when backed by a master record
	Strategy    Strategy `json:"strategy" bson:"strategy"` // cascade step that produced the result
}

// ResolvedFromRecord copies a master record into a matched result
func ResolvedFromRecord(rec GeoRecord, strategy Strategy) ResolvedAddress {
	return ResolvedAddress{
		Subdistrict: rec.Subdistrict,
		District:    rec.District,
		Province:    rec.Province,
		PostalCode:  rec.PostalCode,
		Matched:     true,
		Strategy:    strategy,
	}
}

// Record returns the geographic fields as a GeoRecord
func (r ResolvedAddress) Record() GeoRecord {
	return GeoRecord{
		Subdistrict: r.Subdistrict,
		District:    r.District,
		Province:    r.Province,
		PostalCode:  r.PostalCode,
	}
}

// Components holds the substrings an extractor found in free text
type Components struct {
	Subdistrict string `json:"subdistrict"`
	District    string `json:"district"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
}

// IsEmpty reports whether nothing was extracted
func (c Components) IsEmpty() bool {
	return c.Subdistrict == "" && c.District == "" && c.Province == "" && c.PostalCode == ""
}
