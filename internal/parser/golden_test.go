package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/models"
)

// goldenCase is one testdata/golden/*.json file
type goldenCase struct {
	Input  models.RawGeoInput `json:"input"`
	Expect struct {
		Matched     bool   `json:"matched"`
		Subdistrict string `json:"subdistrict"`
		District    string `json:"district"`
		Province    string `json:"province"`
		PostalCode  string `json:"postal_code"`
	} `json:"expect"`
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	p := NewAddressParser(nil, 0, nil)
	master := testMaster()

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".json"), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			var tc goldenCase
			require.NoError(t, json.Unmarshal(data, &tc))

			got := p.Parse(tc.Input, master).Resolved
			assert.Equal(t, tc.Expect.Matched, got.Matched)
			if !tc.Expect.Matched {
				assert.Equal(t, models.StrategyFallback, got.Strategy)
				return
			}
			assert.Equal(t, tc.Expect.Subdistrict, got.Subdistrict)
			assert.Equal(t, tc.Expect.District, got.District)
			assert.Equal(t, tc.Expect.Province, got.Province)
			assert.Equal(t, tc.Expect.PostalCode, got.PostalCode)
		})
	}
}
