package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	nikhahit = '\u0e4d'
	saraAa   = '\u0e32'
	saraAm   = '\u0e33'
)

// NormalizeText folds the spelling variants seen in exported address data:
// NFC, nikhahit+sara aa to sara am, Thai digits to ASCII, no zero-width
// characters and single spaces.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	space := false
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == nikhahit && i+1 < len(rs) && rs[i+1] == saraAa:
			r = saraAm
			i++
		case r >= '๐' && r <= '๙':
			r = '0' + (r - '๐')
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// StripMarks removes combining marks (Thai tone marks and upper/lower vowels)
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Romanize returns a lowercase ASCII transliteration used for fuzzy scoring
func Romanize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(unidecode.Unidecode(NormalizeText(s))), " "))
}
