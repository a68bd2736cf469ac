package models

// Level constants for administrative units
const (
	LevelProvince    = "province"
	LevelDistrict    = "district"
	LevelSubdistrict = "subdistrict"
)

// AdminUnit is one node of the province → district → subdistrict tree
type AdminUnit struct {
	Level       string   `json:"level"`
	Name        string   `json:"name"`
	Parent      string   `json:"parent,omitempty"`       // district for subdistricts, province for districts
	Province    string   `json:"province,omitempty"`     // set for districts and subdistricts
	PostalCodes []string `json:"postal_codes,omitempty"` // distinct codes under this unit, in master order
	Children    int      `json:"children"`
}

// IsValidLevel reports whether the level is one of the known levels
func (au *AdminUnit) IsValidLevel() bool {
	switch au.Level {
	case LevelProvince, LevelDistrict, LevelSubdistrict:
		return true
	}
	return false
}
