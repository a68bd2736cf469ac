package masterdata

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"

	"github.com/address-resolver/app/models"
)

// Master is the immutable, denormalized list of GeoRecords built once per
// run. All lookups preserve master-list order and return fresh slices, so a
// Master can be shared by concurrent resolvers without locking.
type Master struct {
	records    []models.GeoRecord
	byPostal   map[string][]int
	bySub      map[string][]int
	byDistProv map[string][]int
	provinces  []string
	districts  map[string][]string
	version    string
}

// NewMaster indexes a copy of records in the given order
func NewMaster(records []models.GeoRecord, version string) *Master {
	m := &Master{
		records:    append([]models.GeoRecord(nil), records...),
		byPostal:   make(map[string][]int),
		bySub:      make(map[string][]int),
		byDistProv: make(map[string][]int),
		districts:  make(map[string][]string),
		version:    version,
	}

	for i, r := range m.records {
		m.byPostal[r.PostalCode] = append(m.byPostal[r.PostalCode], i)
		m.bySub[r.Subdistrict] = append(m.bySub[r.Subdistrict], i)

		if _, ok := m.districts[r.Province]; !ok {
			m.provinces = append(m.provinces, r.Province)
		}
		key := distProvKey(r.Province, r.District)
		if _, ok := m.byDistProv[key]; !ok {
			m.districts[r.Province] = append(m.districts[r.Province], r.District)
		}
		m.byDistProv[key] = append(m.byDistProv[key], i)
	}
	return m
}

// EmptyMaster returns a master list with no records
func EmptyMaster() *Master {
	return NewMaster(nil, "")
}

// Version identifies the data the master was built from
func (m *Master) Version() string {
	if m == nil {
		return ""
	}
	return m.version
}

// Len returns the number of records
func (m *Master) Len() int {
	if m == nil {
		return 0
	}
	return len(m.records)
}

// Records returns a copy of all records in master-list order
func (m *Master) Records() []models.GeoRecord {
	if m == nil {
		return nil
	}
	return append([]models.GeoRecord(nil), m.records...)
}

// At returns the record at position i
func (m *Master) At(i int) models.GeoRecord {
	return m.records[i]
}

// ByPostalCode returns the records sharing a postal code
func (m *Master) ByPostalCode(code string) []models.GeoRecord {
	if m == nil {
		return nil
	}
	return m.pick(m.byPostal[code])
}

// BySubdistrict returns the records with exactly this subdistrict name
func (m *Master) BySubdistrict(name string) []models.GeoRecord {
	if m == nil {
		return nil
	}
	return m.pick(m.bySub[name])
}

// ByDistrictProvince returns the subdistricts of a district in a province
func (m *Master) ByDistrictProvince(province, district string) []models.GeoRecord {
	if m == nil {
		return nil
	}
	return m.pick(m.byDistProv[distProvKey(province, district)])
}

// Provinces returns distinct province names in first-seen order
func (m *Master) Provinces() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.provinces...)
}

// Districts returns the districts of a province in first-seen order
func (m *Master) Districts(province string) []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.districts[province]...)
}

// Subdistricts returns the subdistrict names under a district in master order
func (m *Master) Subdistricts(province, district string) []string {
	var out []string
	for _, r := range m.ByDistrictProvince(province, district) {
		if !slices.Contains(out, r.Subdistrict) {
			out = append(out, r.Subdistrict)
		}
	}
	return out
}

// AdminUnits summarizes one level of the hierarchy. For districts and
// subdistricts the parent filter narrows the result; empty means all.
func (m *Master) AdminUnits(level, province, district string) []models.AdminUnit {
	if m == nil {
		return nil
	}

	var units []models.AdminUnit
	index := make(map[string]int)
	for _, r := range m.records {
		var unit models.AdminUnit
		switch level {
		case models.LevelProvince:
			unit = models.AdminUnit{Level: level, Name: r.Province}
		case models.LevelDistrict:
			if province != "" && r.Province != province {
				continue
			}
			unit = models.AdminUnit{Level: level, Name: r.District, Parent: r.Province, Province: r.Province}
		case models.LevelSubdistrict:
			if (province != "" && r.Province != province) || (district != "" && r.District != district) {
				continue
			}
			unit = models.AdminUnit{Level: level, Name: r.Subdistrict, Parent: r.District, Province: r.Province}
		default:
			return nil
		}

		key := unit.Province + "|" + unit.Parent + "|" + unit.Name
		i, ok := index[key]
		if !ok {
			i = len(units)
			index[key] = i
			units = append(units, unit)
		}
		units[i].Children++
		if !slices.Contains(units[i].PostalCodes, r.PostalCode) {
			units[i].PostalCodes = append(units[i].PostalCodes, r.PostalCode)
		}
	}
	return units
}

func (m *Master) pick(idx []int) []models.GeoRecord {
	if len(idx) == 0 {
		return nil
	}
	out := make([]models.GeoRecord, len(idx))
	for i, j := range idx {
		out[i] = m.records[j]
	}
	return out
}

// VersionOf returns the hex SHA-256 of the master source bytes
func VersionOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func distProvKey(province, district string) string {
	return province + "\x00" + district
}

