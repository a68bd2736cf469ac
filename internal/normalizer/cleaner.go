package normalizer

import (
	"strings"
	"unicode"
)

// maxPrefixStrips bounds repeated marker stripping such as "ต. ตำบลบ้านด่าน"
const maxPrefixStrips = 3

// Cleaner strips administrative markers from a component and cuts off text
// that belongs to the next level.
type Cleaner struct {
	markers *Markers
}

// NewCleaner creates a Cleaner over the given markers; nil uses the embedded vocabulary
func NewCleaner(markers *Markers) *Cleaner {
	if markers == nil {
		markers = DefaultMarkers()
	}
	return &Cleaner{markers: markers}
}

// Markers returns the compiled vocabulary used by the cleaner
func (c *Cleaner) Markers() *Markers {
	return c.markers
}

// Clean returns the bare name of a component of the given kind.
//
//	"ต.บ้านด่าน"         (subdistrict) -> "บ้านด่าน"
//	"บ้านด่านอำเภอเมือง" (subdistrict) -> "บ้านด่าน"
//	"อำเภอเมือง"         (subdistrict) -> "อำเภอเมือง"
//	"อ.เมือง จ.อุดรธานี" (district)    -> "เมือง"
func (c *Cleaner) Clean(raw string, kind Kind) string {
	s := NormalizeText(raw)
	if s == "" {
		return ""
	}

	prefix := c.markers.prefix[kind]
	for i := 0; i < maxPrefixStrips; i++ {
		loc := prefix.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = trimNoise(s[loc[1]:])
	}
	s = trimNoise(s)

	// Run-on text: a marker at offset 0 is the component's own content
	if re := c.markers.runOn[kind]; re != nil {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] > 0 {
			s = s[:loc[0]]
		}
	}

	return trimNoise(s)
}

// CanonicalProvince cleans a province and maps known aliases (กทม, Bangkok)
// to the master spelling
func (c *Cleaner) CanonicalProvince(raw string) string {
	s := c.Clean(raw, KindProvince)
	if canonical, ok := c.markers.ProvinceAlias(s); ok {
		return canonical
	}
	return s
}

// NormalizePostalCode truncates spreadsheet float renderings ("10200.0")
// at the first period and trims whitespace
func NormalizePostalCode(raw string) string {
	s := raw
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(NormalizeText(s))
}

// IsPostalCode reports whether s is exactly five ASCII digits
func IsPostalCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func trimNoise(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == ',' || r == '*'
	})
}
