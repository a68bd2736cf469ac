package parser

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/normalizer"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

const (
	defaultMinScore   = 0.6
	postalMatchWeight = 0.5
)

// Suggester ranks master records by fuzzy similarity to an input. It never
// changes a resolution; reviewers use it to pick the right record by hand.
type Suggester struct {
	cleaner  *normalizer.Cleaner
	minScore float64

	mu    sync.Mutex
	index *romanIndex
}

// romanIndex caches romanized names for one master version
type romanIndex struct {
	version string
	names   [][3]string // subdistrict, district, province
}

// NewSuggester creates a Suggester; minScore <= 0 uses the default cut-off
func NewSuggester(cleaner *normalizer.Cleaner, minScore float64) *Suggester {
	if cleaner == nil {
		cleaner = normalizer.NewCleaner(nil)
	}
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	return &Suggester{cleaner: cleaner, minScore: minScore}
}

// Suggest returns at most k records scoring at least the cut-off, best first
func (s *Suggester) Suggest(in models.RawGeoInput, master *masterdata.Master, k int) []models.Suggestion {
	if k <= 0 || master.Len() == 0 {
		return nil
	}

	want := [3]string{
		romanKey(s.cleaner.Clean(in.Subdistrict, normalizer.KindSubdistrict)),
		romanKey(s.cleaner.Clean(in.District, normalizer.KindDistrict)),
		romanKey(s.cleaner.CanonicalProvince(in.Province)),
	}
	postal := normalizer.NormalizePostalCode(in.PostalCode)
	if want[0] == "" && want[1] == "" && want[2] == "" {
		return nil
	}

	idx := s.indexFor(master)
	suggestions := make([]models.Suggestion, 0, k)
	for i, names := range idx.names {
		score := recordScore(want, names)
		rec := master.At(i)
		if postal != "" && rec.PostalCode == postal {
			score += postalMatchWeight * (1 - score)
		}
		if score < s.minScore {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{Record: rec, Score: score})
	}

	sort.SliceStable(suggestions, func(a, b int) bool {
		return suggestions[a].Score > suggestions[b].Score
	})
	if len(suggestions) > k {
		suggestions = suggestions[:k]
	}
	return suggestions
}

func (s *Suggester) indexFor(master *masterdata.Master) *romanIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil && s.index.version == master.Version() && len(s.index.names) == master.Len() {
		return s.index
	}

	idx := &romanIndex{version: master.Version(), names: make([][3]string, master.Len())}
	for i := range idx.names {
		rec := master.At(i)
		idx.names[i] = [3]string{
			romanKey(rec.Subdistrict),
			romanKey(rec.District),
			romanKey(rec.Province),
		}
	}
	s.index = idx
	return idx
}

// romanKey compares names in Latin script, keeping the original when the
// transliteration table has nothing for it
func romanKey(s string) string {
	if r := normalizer.Romanize(s); r != "" {
		return r
	}
	return normalizer.NormalizeText(s)
}

// recordScore averages similarity over the fields the input carries
func recordScore(want, have [3]string) float64 {
	total, fields := 0.0, 0
	for i := range want {
		if want[i] == "" {
			continue
		}
		total += Similarity(want[i], have[i])
		fields++
	}
	if fields == 0 {
		return 0
	}
	return total / float64(fields)
}

// Similarity is the better of Jaro-Winkler and normalized Levenshtein, in [0, 1]
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	if lev > jw {
		return lev
	}
	return jw
}
