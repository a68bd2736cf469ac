package normalizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind selects which administrative level a string belongs to
type Kind int

const (
	KindNone Kind = iota
	KindSubdistrict
	KindDistrict
	KindProvince
)

// String returns the level name
func (k Kind) String() string {
	switch k {
	case KindSubdistrict:
		return "subdistrict"
	case KindDistrict:
		return "district"
	case KindProvince:
		return "province"
	}
	return "none"
}

const postalPattern = `\d{5}`

// Markers is the compiled form of a Vocabulary. It is shared by the cleaner
// and the extractor and is safe for concurrent use.
type Markers struct {
	vocab   *Vocabulary
	prefix  map[Kind]*regexp.Regexp
	runOn   map[Kind]*regexp.Regexp
	extract map[Kind]*regexp.Regexp
	postal  *regexp.Regexp
}

// NewMarkers compiles the vocabulary into prefix, run-on and extraction patterns
func NewMarkers(v *Vocabulary) *Markers {
	sub := alternation(v.Subdistrict)
	dist := alternation(v.District)
	prov := alternation(v.Province)
	all := alternation(concat(v.Subdistrict, v.District, v.Province))

	m := &Markers{
		vocab: v,
		prefix: map[Kind]*regexp.Regexp{
			KindNone:        regexp.MustCompile(`^(?i:` + all + `)`),
			KindSubdistrict: regexp.MustCompile(`^(?i:` + sub + `)`),
			KindDistrict:    regexp.MustCompile(`^(?i:` + dist + `)`),
			KindProvince:    regexp.MustCompile(`^(?i:` + prov + `)`),
		},
		runOn: map[Kind]*regexp.Regexp{
			KindSubdistrict: regexp.MustCompile(`(?i:` + alternation(concat(v.District, v.Province)) + `|` + postalPattern + `)`),
			KindDistrict:    regexp.MustCompile(`(?i:` + prov + `|` + postalPattern + `)`),
			KindProvince:    regexp.MustCompile(postalPattern),
		},
		extract: map[Kind]*regexp.Regexp{
			KindSubdistrict: regexp.MustCompile(`(?i:` + sub + `)\s*([^\s\d]+)`),
			KindDistrict:    regexp.MustCompile(`(?i:` + dist + `)\s*([^\s\d]+)`),
			KindProvince:    regexp.MustCompile(`(?i:` + prov + `)\s*([^\s\d]+)`),
		},
		postal: regexp.MustCompile(`\b(` + postalPattern + `)\b`),
	}
	return m
}

// Vocabulary returns the source vocabulary
func (m *Markers) Vocabulary() *Vocabulary {
	return m.vocab
}

// HasPrefix reports whether s starts with a marker of the given kind
func (m *Markers) HasPrefix(s string, kind Kind) bool {
	return m.prefix[kind].MatchString(s)
}

// ProvinceAlias maps a colloquial province name to its canonical form
func (m *Markers) ProvinceAlias(s string) (string, bool) {
	canonical, ok := m.vocab.ProvinceAliases[strings.ToLower(s)]
	return canonical, ok
}

// alternation builds a regexp alternation, longest marker first.
// Latin markers get word boundaries; Thai has no inter-word spacing so Thai
// markers match anywhere.
func alternation(words []string) string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	parts := make([]string, 0, len(sorted))
	seen := make(map[string]bool, len(sorted))
	for _, w := range sorted {
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true

		p := regexp.QuoteMeta(w)
		if isASCIILetter(w[0]) {
			p = `\b` + p
		}
		if isASCIILetter(w[len(w)-1]) {
			p += `\b`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "|")
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
