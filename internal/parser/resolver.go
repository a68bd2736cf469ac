package parser

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	"go.uber.org/zap"
)

// Resolver maps a noisy address tuple onto a master record using a fixed
// cascade, most reliable key first:
//
//	postal code -> (province, district) pair -> unique subdistrict -> fallback
//
// Resolve never fails. An input nothing in the master can back comes back
// as its own cleaned values with Matched=false.
type Resolver struct {
	cleaner *normalizer.Cleaner
	logger  *zap.Logger
}

// NewResolver creates a Resolver
func NewResolver(cleaner *normalizer.Cleaner, logger *zap.Logger) *Resolver {
	if cleaner == nil {
		cleaner = normalizer.NewCleaner(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cleaner: cleaner, logger: logger}
}

// Cleaner returns the cleaner used for input components
func (r *Resolver) Cleaner() *normalizer.Cleaner {
	return r.cleaner
}

// query is the cleaned form of one RawGeoInput. The raw* fields keep the
// marker-bearing spelling so names like "เขตคลองเตย" still match verbatim.
type query struct {
	subdistrict    string
	rawSubdistrict string
	district       string
	rawDistrict    string
	province       string
	postal         string
	freeText       string
}

func (r *Resolver) prepare(in models.RawGeoInput) query {
	return query{
		subdistrict:    r.cleaner.Clean(in.Subdistrict, normalizer.KindSubdistrict),
		rawSubdistrict: normalizer.NormalizeText(in.Subdistrict),
		district:       r.cleaner.Clean(in.District, normalizer.KindDistrict),
		rawDistrict:    normalizer.NormalizeText(in.District),
		province:       r.cleaner.CanonicalProvince(in.Province),
		postal:         normalizer.NormalizePostalCode(in.PostalCode),
		freeText:       normalizer.NormalizeText(in.FreeText),
	}
}

// Resolve returns the best master record for in, or the cleaned input
func (r *Resolver) Resolve(in models.RawGeoInput, master *masterdata.Master) models.ResolvedAddress {
	start := time.Now()
	q := r.prepare(in)

	result := r.cascade(q, master)

	r.logger.Debug("Address resolved",
		zap.String("postal_code", q.postal),
		zap.String("subdistrict", q.subdistrict),
		zap.String("strategy", string(result.Strategy)),
		zap.Bool("matched", result.Matched),
		zap.Duration("duration", time.Since(start)))

	return result
}

func (r *Resolver) cascade(q query, master *masterdata.Master) models.ResolvedAddress {
	if q.postal != "" {
		if zipMatches := master.ByPostalCode(q.postal); len(zipMatches) > 0 {
			rec, strategy := matchWithinPostalCode(q, zipMatches)
			return models.ResolvedFromRecord(rec, strategy)
		}
	}

	if rec, ok := matchDistrictProvince(q, master); ok {
		return models.ResolvedFromRecord(rec, models.StrategyDistrictProvince)
	}

	if rec, ok := matchUniqueSubdistrict(q, master); ok {
		return models.ResolvedFromRecord(rec, models.StrategyUniqueSubdistrict)
	}

	return models.ResolvedAddress{
		Subdistrict: q.subdistrict,
		District:    q.district,
		Province:    q.province,
		PostalCode:  q.postal,
		Strategy:    models.StrategyFallback,
	}
}

// matchWithinPostalCode narrows a non-empty set of records sharing the
// input postal code. It always returns one of them.
func matchWithinPostalCode(q query, zipMatches []models.GeoRecord) (models.GeoRecord, models.Strategy) {
	// a. exact subdistrict
	if q.subdistrict != "" {
		for _, rec := range zipMatches {
			if rec.Subdistrict == q.subdistrict || rec.Subdistrict == q.rawSubdistrict {
				return rec, models.StrategyZipSubdistrictExact
			}
		}
	}

	// b. subdistrict named in the free text
	if q.freeText != "" {
		for _, rec := range zipMatches {
			if strings.Contains(q.freeText, rec.Subdistrict) {
				return rec, models.StrategyZipSubdistrictFreeText
			}
		}
	}

	// c. partial subdistrict, longest name wins
	if q.subdistrict != "" {
		best, bestLen := -1, 0
		for i, rec := range zipMatches {
			if !containsEither(rec.Subdistrict, q.subdistrict) {
				continue
			}
			if n := utf8.RuneCountInString(rec.Subdistrict); n > bestLen {
				best, bestLen = i, n
			}
		}
		if best >= 0 {
			return zipMatches[best], models.StrategyZipSubdistrictPartial
		}
	}

	// d. partial district
	if q.district != "" {
		for _, rec := range zipMatches {
			if containsEither(rec.District, q.district) {
				return rec, models.StrategyZipDistrict
			}
		}
	}

	// e. district named in the free text
	if q.freeText != "" {
		for _, rec := range zipMatches {
			if strings.Contains(q.freeText, rec.District) {
				return rec, models.StrategyZipDistrictFreeText
			}
		}
	}

	// f. the postal code alone is decisive
	if len(zipMatches) == 1 {
		return zipMatches[0], models.StrategyZipUnique
	}

	// g. province, then master order
	if q.province != "" {
		for _, rec := range zipMatches {
			if containsEither(rec.Province, q.province) {
				return rec, models.StrategyZipProvince
			}
		}
	}
	return zipMatches[0], models.StrategyZipFirst
}

// matchDistrictProvince looks up the exact (province, district) pair and
// prefers a record whose subdistrict also matches
func matchDistrictProvince(q query, master *masterdata.Master) (models.GeoRecord, bool) {
	if q.province == "" || q.district == "" {
		return models.GeoRecord{}, false
	}

	pairs := master.ByDistrictProvince(q.province, q.district)
	if len(pairs) == 0 && q.rawDistrict != q.district {
		pairs = master.ByDistrictProvince(q.province, q.rawDistrict)
	}
	if len(pairs) == 0 {
		return models.GeoRecord{}, false
	}

	if q.subdistrict != "" {
		for _, rec := range pairs {
			if rec.Subdistrict == q.subdistrict || rec.Subdistrict == q.rawSubdistrict {
				return rec, true
			}
		}
	}
	return pairs[0], true
}

// matchUniqueSubdistrict returns the only master record carrying the
// subdistrict name. Names shared across districts are never guessed.
func matchUniqueSubdistrict(q query, master *masterdata.Master) (models.GeoRecord, bool) {
	if q.subdistrict == "" {
		return models.GeoRecord{}, false
	}

	matches := master.BySubdistrict(q.subdistrict)
	if len(matches) == 0 && q.rawSubdistrict != q.subdistrict {
		matches = master.BySubdistrict(q.rawSubdistrict)
	}
	if len(matches) != 1 {
		return models.GeoRecord{}, false
	}
	return matches[0], true
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
