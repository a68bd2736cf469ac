package services

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	"github.com/address-resolver/internal/search"
)

const defaultSearchLimit = 20

var ErrInvalidPostalCode = errors.New("postal code must be 5 digits")

// MasterSource hands out the current master
type MasterSource interface {
	Master() *masterdata.Master
}

// GeoSearcher is the subset of the gazetteer index used for lookups
type GeoSearcher interface {
	Search(q string, filter search.Filter, limit int) ([]models.GeoRecord, error)
}

// GeoService answers reference data lookups against the master
type GeoService struct {
	source   MasterSource
	searcher GeoSearcher
	cleaner  *normalizer.Cleaner
	logger   *zap.Logger
}

// NewGeoService creates a GeoService. searcher may be nil, in which case
// search scans the master.
func NewGeoService(source MasterSource, searcher GeoSearcher, logger *zap.Logger) *GeoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoService{
		source:   source,
		searcher: searcher,
		cleaner:  normalizer.NewCleaner(nil),
		logger:   logger,
	}
}

// ByPostalCode returns the records sharing a postal code
func (gs *GeoService) ByPostalCode(code string) ([]models.GeoRecord, error) {
	code = normalizer.NormalizePostalCode(code)
	if !normalizer.IsPostalCode(code) {
		return nil, ErrInvalidPostalCode
	}
	return nonNil(gs.source.Master().ByPostalCode(code)), nil
}

// Provinces lists provinces with their district counts
func (gs *GeoService) Provinces() []models.AdminUnit {
	master := gs.source.Master()
	units := master.AdminUnits(models.LevelProvince, "", "")
	for i := range units {
		units[i].Children = len(master.Districts(units[i].Name))
	}
	return nonNil(units)
}

// Districts lists the districts of a province, resolving aliases
func (gs *GeoService) Districts(province string) []models.AdminUnit {
	province = gs.canonicalProvince(province)
	return nonNil(gs.source.Master().AdminUnits(models.LevelDistrict, province, ""))
}

// Subdistricts lists the subdistricts of a district
func (gs *GeoService) Subdistricts(province, district string) []models.AdminUnit {
	province = gs.canonicalProvince(province)
	return nonNil(gs.source.Master().AdminUnits(models.LevelSubdistrict, province, district))
}

// Search finds records by name. The gazetteer index is used when
// configured; on error or without one the master is scanned.
func (gs *GeoService) Search(q string, filter search.Filter, limit int) ([]models.GeoRecord, error) {
	q = normalizer.NormalizeText(q)
	if q == "" {
		return nil, search.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if gs.searcher != nil {
		records, err := gs.searcher.Search(q, filter, limit)
		if err == nil {
			return nonNil(records), nil
		}
		gs.logger.Warn("Gazetteer search failed, scanning master", zap.Error(err))
	}

	return nonNil(scanMaster(gs.source.Master(), q, filter, limit)), nil
}

func (gs *GeoService) canonicalProvince(p string) string {
	return gs.cleaner.CanonicalProvince(normalizer.NormalizeText(p))
}

// scanMaster returns records whose names contain q, exact name matches first
func scanMaster(master *masterdata.Master, q string, filter search.Filter, limit int) []models.GeoRecord {
	var exact, partial []models.GeoRecord
	for _, r := range master.Records() {
		if filter.Province != "" && r.Province != filter.Province {
			continue
		}
		if filter.District != "" && r.District != filter.District {
			continue
		}
		if filter.PostalCode != "" && r.PostalCode != filter.PostalCode {
			continue
		}

		switch {
		case r.Subdistrict == q || r.District == q || r.Province == q:
			exact = append(exact, r)
		case strings.Contains(r.Subdistrict, q) || strings.Contains(r.District, q) || strings.Contains(r.Province, q):
			partial = append(partial, r)
		}
		if len(exact) >= limit {
			break
		}
	}

	out := append(exact, partial...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
