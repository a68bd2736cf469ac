package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/address-resolver/app/models"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(nil)

	testCases := []struct {
		name     string
		input    string
		expected models.Components
	}{
		{
			name:  "full words",
			input: "ตำบลบ้านด่าน อำเภอเมือง จังหวัดอุดรธานี 41000",
			expected: models.Components{
				Subdistrict: "บ้านด่าน",
				District:    "เมือง",
				Province:    "อุดรธานี",
				PostalCode:  "41000",
			},
		},
		{
			name:  "abbreviations",
			input: "12/3 ม.4 ต.บ้านด่าน อ.เมือง จ.อุดรธานี 41000",
			expected: models.Components{
				Subdistrict: "บ้านด่าน",
				District:    "เมือง",
				Province:    "อุดรธานี",
				PostalCode:  "41000",
			},
		},
		{
			name:  "bangkok markers without province marker",
			input: "99 ถนนสุขุมวิท แขวงคลองตัน เขตคลองเตย กรุงเทพมหานคร 10110",
			expected: models.Components{
				Subdistrict: "คลองตัน",
				District:    "คลองเตย",
				PostalCode:  "10110",
			},
		},
		{
			name:  "run-on text is captured whole",
			input: "ต.บ้านด่านอ.เมือง",
			expected: models.Components{
				Subdistrict: "บ้านด่านอ.เมือง",
				District:    "เมือง",
			},
		},
		{
			name:     "six digits is not a postal code",
			input:    "โทร 123456",
			expected: models.Components{},
		},
		{
			name:     "no markers",
			input:    "บ้านเลขที่ 5",
			expected: models.Components{},
		},
		{
			name:     "empty",
			input:    "",
			expected: models.Components{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, e.Extract(tc.input))
		})
	}
}

func TestExtractor_OutputCleansToBareNames(t *testing.T) {
	e := NewExtractor(nil)
	c := NewCleaner(nil)

	got := e.Extract("ต.บ้านด่านอ.เมือง จ.อุดรธานี")
	assert.Equal(t, "บ้านด่าน", c.Clean(got.Subdistrict, KindSubdistrict))
	assert.Equal(t, "เมือง", c.Clean(got.District, KindDistrict))
	assert.Equal(t, "อุดรธานี", c.Clean(got.Province, KindProvince))
}

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"decomposed sara am", "\u0e2d\u0e4d\u0e32เภอ", "อำเภอ"},
		{"thai digits", "๔๑๐๐๐", "41000"},
		{"zero width space", "บ้าน\u200bด่าน", "บ้านด่าน"},
		{"whitespace collapse", "  a \t b\n", "a b"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeText(tc.input))
		})
	}
}

func TestRomanize(t *testing.T) {
	assert.Equal(t, "khlong tan", Romanize("  Khlong   Tan "))
	assert.NotEmpty(t, Romanize("คลองตัน"))
}

func TestLoadVocabulary(t *testing.T) {
	_, err := LoadVocabulary([]byte("subdistrict: [a]\n"))
	assert.Error(t, err)

	v, err := LoadVocabulary([]byte("subdistrict: [ต.]\ndistrict: [อ.]\nprovince: [จ.]\nprovince_aliases:\n  BKK: กรุงเทพมหานคร\n"))
	assert.NoError(t, err)
	assert.Equal(t, "กรุงเทพมหานคร", v.ProvinceAliases["bkk"])
}
