package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Parsed is the pipeline output for one input row
type Parsed struct {
	Extracted models.Components
	Resolved  models.ResolvedAddress
}

// AddressParser runs extract -> clean -> resolve over one row, filling
// empty structured fields from the free-text line first
type AddressParser struct {
	extractor *normalizer.Extractor
	resolver  *Resolver
	memo      *lru.Cache[string, Parsed]
	logger    *zap.Logger
}

// NewAddressParser creates AddressParser. memoSize <= 0 disables memoisation.
func NewAddressParser(markers *normalizer.Markers, memoSize int, logger *zap.Logger) *AddressParser {
	if logger == nil {
		logger = zap.NewNop()
	}

	ap := &AddressParser{
		extractor: normalizer.NewExtractor(markers),
		resolver:  NewResolver(normalizer.NewCleaner(markers), logger),
		logger:    logger,
	}
	if memoSize > 0 {
		memo, err := lru.New[string, Parsed](memoSize)
		if err != nil {
			logger.Warn("Memo disabled", zap.Int("size", memoSize), zap.Error(err))
		} else {
			ap.memo = memo
		}
	}
	return ap
}

// Resolver returns the underlying resolver
func (ap *AddressParser) Resolver() *Resolver {
	return ap.resolver
}

// Extract exposes the free-text extractor
func (ap *AddressParser) Extract(text string) models.Components {
	return ap.extractor.Extract(text)
}

// Parse resolves one row against master
func (ap *AddressParser) Parse(in models.RawGeoInput, master *masterdata.Master) Parsed {
	key := memoKey(master.Version(), in)
	if ap.memo != nil {
		if cached, ok := ap.memo.Get(key); ok {
			return cached
		}
	}

	extracted := ap.extractor.Extract(in.FreeText)
	filled := Fill(in, extracted)
	if strings.TrimSpace(filled.Province) == "" {
		filled.Province = provinceInText(in.FreeText, master)
	}

	out := Parsed{
		Extracted: extracted,
		Resolved:  ap.resolver.Resolve(filled, master),
	}

	if ap.memo != nil {
		ap.memo.Add(key, out)
	}
	return out
}

// ParseBatch resolves rows in order
func (ap *AddressParser) ParseBatch(inputs []models.RawGeoInput, master *masterdata.Master) []Parsed {
	results := make([]Parsed, len(inputs))
	matched := 0
	for i, in := range inputs {
		results[i] = ap.Parse(in, master)
		if results[i].Resolved.Matched {
			matched++
		}
	}

	ap.logger.Info("Resolved address batch",
		zap.Int("total", len(inputs)),
		zap.Int("matched", matched))

	return results
}

// Fill copies extracted components into the empty fields of in
func Fill(in models.RawGeoInput, extracted models.Components) models.RawGeoInput {
	if strings.TrimSpace(in.Subdistrict) == "" {
		in.Subdistrict = extracted.Subdistrict
	}
	if strings.TrimSpace(in.District) == "" {
		in.District = extracted.District
	}
	if strings.TrimSpace(in.Province) == "" {
		in.Province = extracted.Province
	}
	if strings.TrimSpace(in.PostalCode) == "" {
		in.PostalCode = extracted.PostalCode
	}
	return in
}

// provinceInText returns the longest master province spelled out in text
func provinceInText(text string, master *masterdata.Master) string {
	s := normalizer.NormalizeText(text)
	if s == "" {
		return ""
	}

	best, bestLen := "", 0
	for _, p := range master.Provinces() {
		if n := utf8.RuneCountInString(p); n > bestLen && strings.Contains(s, p) {
			best, bestLen = p, n
		}
	}
	return best
}

func memoKey(version string, in models.RawGeoInput) string {
	return strings.Join([]string{version, in.Subdistrict, in.District, in.Province, in.PostalCode, in.FreeText}, "\x00")
}
