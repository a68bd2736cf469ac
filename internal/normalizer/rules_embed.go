package normalizer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/markers.yaml
var markersYAML []byte

// Vocabulary is the marker vocabulary loaded from YAML
type Vocabulary struct {
	Subdistrict     []string          `yaml:"subdistrict"`
	District        []string          `yaml:"district"`
	Province        []string          `yaml:"province"`
	ProvinceAliases map[string]string `yaml:"province_aliases"`
}

// LoadVocabulary parses a marker vocabulary document
func LoadVocabulary(b []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("parse marker vocabulary: %w", err)
	}
	if len(v.Subdistrict) == 0 || len(v.District) == 0 || len(v.Province) == 0 {
		return nil, fmt.Errorf("marker vocabulary: every level needs at least one marker")
	}
	for _, list := range [][]string{v.Subdistrict, v.District, v.Province} {
		for i, m := range list {
			list[i] = NormalizeText(m)
			if list[i] == "" {
				return nil, fmt.Errorf("marker vocabulary: empty marker")
			}
		}
	}
	aliases := make(map[string]string, len(v.ProvinceAliases))
	for alias, canonical := range v.ProvinceAliases {
		aliases[strings.ToLower(NormalizeText(alias))] = NormalizeText(canonical)
	}
	v.ProvinceAliases = aliases
	return v, nil
}

var (
	defaultOnce    sync.Once
	defaultMarkers *Markers
)

// DefaultMarkers returns the markers compiled from the embedded vocabulary
func DefaultMarkers() *Markers {
	defaultOnce.Do(func() {
		v, err := LoadVocabulary(markersYAML)
		if err != nil {
			panic(err)
		}
		defaultMarkers = NewMarkers(v)
	})
	return defaultMarkers
}
