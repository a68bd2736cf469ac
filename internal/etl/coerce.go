package etl

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Coercion is how a column value is rendered as an SQL literal
type Coercion string

const (
	CoerceString   Coercion = "string"
	CoerceInt      Coercion = "int"
	CoerceDecimal  Coercion = "decimal"
	CoerceDate     Coercion = "date"
	CoerceDateTime Coercion = "datetime"
	CoercePhone    Coercion = "phone"
)

// SQLNull is the literal written for empty and "null" values
const SQLNull = "NULL"

var (
	// ErrBadValue marks a value its column's coercion cannot represent
	ErrBadValue = eris.New("etl: value does not fit column type")

	excelEpoch  = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	reNonDigit  = regexp.MustCompile(`\D+`)
	dateLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"02/01/2006 15:04:05",
		"02/01/2006 15:04",
		"02/01/2006",
		"2/1/2006 15:04",
		"2/1/2006",
	}
)

// IsValid reports whether c is a known coercion
func (c Coercion) IsValid() bool {
	switch c {
	case CoerceString, CoerceInt, CoerceDecimal, CoerceDate, CoerceDateTime, CoercePhone:
		return true
	}
	return false
}

// Literal renders raw as an SQL literal for a column of kind c
func (c Coercion) Literal(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "null") {
		return SQLNull, nil
	}

	switch c {
	case CoerceInt:
		n := strings.NewReplacer(",", "", " ", "").Replace(v)
		if _, err := strconv.ParseInt(n, 10, 64); err != nil {
			f, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil || f != math.Trunc(f) {
				return "", eris.Wrapf(ErrBadValue, "int %q", raw)
			}
			n = strconv.FormatInt(int64(f), 10)
		}
		return n, nil
	case CoerceDecimal:
		n := strings.NewReplacer(",", "", " ", "").Replace(v)
		if _, err := strconv.ParseFloat(n, 64); err != nil {
			return "", eris.Wrapf(ErrBadValue, "decimal %q", raw)
		}
		return n, nil
	case CoerceDate, CoerceDateTime:
		t, err := ParseDate(v)
		if err != nil {
			return "", err
		}
		if c == CoerceDate {
			return QuoteSQL(t.Format("2006-01-02")), nil
		}
		return QuoteSQL(t.Format("2006-01-02 15:04:05")), nil
	case CoercePhone:
		p := NormalizePhone(v)
		if p == "" {
			return SQLNull, nil
		}
		return QuoteSQL(p), nil
	default:
		return QuoteSQL(raw), nil
	}
}

// ParseDate accepts ISO dates, dd/mm/yyyy with optional time and Excel
// serial day numbers
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f <= 1000 {
			return time.Time{}, eris.Wrapf(ErrBadValue, "date %q", s)
		}
		days := math.Floor(f)
		secs := math.Round((f - days) * 86400)
		return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
	}

	// fractional seconds after a space-separated time
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Contains(s[:i], ":") {
		s = s[:i]
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Wrapf(ErrBadValue, "date %q", s)
}

// NormalizePhone keeps digits only and rewrites the +66 country code to a
// leading zero
func NormalizePhone(s string) string {
	d := reNonDigit.ReplaceAllString(s, "")
	if strings.HasPrefix(d, "66") && len(d) == 11 {
		d = "0" + d[2:]
	}
	return d
}

// EscapeSQL escapes a string for a single-quoted MySQL literal: backslashes
// are doubled first, then single quotes
func EscapeSQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `''`)
}

// QuoteSQL returns s as a single-quoted literal
func QuoteSQL(s string) string {
	return "'" + EscapeSQL(s) + "'"
}
