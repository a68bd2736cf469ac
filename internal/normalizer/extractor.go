package normalizer

import (
	"github.com/address-resolver/app/models"
)

// Extractor pulls candidate components out of an unstructured address line
type Extractor struct {
	markers *Markers
}

// NewExtractor creates an Extractor over the given markers; nil uses the embedded vocabulary
func NewExtractor(markers *Markers) *Extractor {
	if markers == nil {
		markers = DefaultMarkers()
	}
	return &Extractor{markers: markers}
}

// Extract runs four independent searches over text: the first standalone
// 5-digit run, and the first name following a province, district and
// subdistrict marker. Matches may overlap; callers clean each component.
func (e *Extractor) Extract(text string) models.Components {
	s := NormalizeText(text)
	if s == "" {
		return models.Components{}
	}

	return models.Components{
		Subdistrict: e.find(KindSubdistrict, s),
		District:    e.find(KindDistrict, s),
		Province:    e.find(KindProvince, s),
		PostalCode:  firstGroup(e.markers.postal.FindStringSubmatch(s)),
	}
}

func (e *Extractor) find(kind Kind, s string) string {
	return firstGroup(e.markers.extract[kind].FindStringSubmatch(s))
}

func firstGroup(m []string) string {
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
