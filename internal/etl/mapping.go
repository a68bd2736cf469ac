// Package etl reads customer exports, resolves their address columns
// against the master list and writes the result as CSV, XLSX or SQL.
package etl

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/address-resolver/app/models"
)

// ErrUnknownColumn means the mapping names a column the input header lacks
var ErrUnknownColumn = eris.New("etl: unknown column")

// Mapping names the input columns that carry address parts. A value is a
// header name, or a 0-based column index when the input has no header.
// Empty values mean the input has no such column.
type Mapping struct {
	Subdistrict string `yaml:"subdistrict" mapstructure:"subdistrict"`
	District    string `yaml:"district" mapstructure:"district"`
	Province    string `yaml:"province" mapstructure:"province"`
	PostalCode  string `yaml:"postal_code" mapstructure:"postal_code"`
	FreeText    string `yaml:"free_text" mapstructure:"free_text"`
}

// DefaultMapping matches the customer export header
func DefaultMapping() Mapping {
	return Mapping{
		Subdistrict: "subdistrict",
		District:    "district",
		Province:    "province",
		PostalCode:  "postal_code",
		FreeText:    "street",
	}
}

// binding holds resolved column indexes; -1 marks an absent column
type binding struct {
	subdistrict, district, province, postal, freeText int
	width                                            int // cells a row needs to cover every bound column
}

// Bind resolves the mapping against a header. A nil header binds positionally.
func (m Mapping) Bind(header []string) (binding, error) {
	b := binding{}
	var err error
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{m.Subdistrict, &b.subdistrict},
		{m.District, &b.district},
		{m.Province, &b.province},
		{m.PostalCode, &b.postal},
		{m.FreeText, &b.freeText},
	} {
		if *f.dst, err = columnIndex(f.name, header); err != nil {
			return binding{}, err
		}
		if *f.dst+1 > b.width {
			b.width = *f.dst + 1
		}
	}
	if b.width == 0 {
		return binding{}, eris.New("etl: mapping names no address column")
	}
	return b, nil
}

func columnIndex(name string, header []string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, nil
	}

	if header == nil {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 {
			return -1, eris.Errorf("etl: column %q must be an index when the input has no header", name)
		}
		return i, nil
	}

	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return -1, eris.Wrapf(ErrUnknownColumn, "etl: column %q not found in header", name)
}

// input pulls the address fields out of one row
func (b binding) input(row []string) models.RawGeoInput {
	return models.RawGeoInput{
		Subdistrict: cell(row, b.subdistrict),
		District:    cell(row, b.district),
		Province:    cell(row, b.province),
		PostalCode:  cell(row, b.postal),
		FreeText:    cell(row, b.freeText),
	}
}

// apply writes the resolved fields into their mapped columns, appending
// fields the input has no column for
func (b binding) apply(row []string, res models.ResolvedAddress) []string {
	out := make([]string, len(row), len(row)+4)
	copy(out, row)

	for _, f := range []struct {
		idx   int
		value string
	}{
		{b.subdistrict, res.Subdistrict},
		{b.district, res.District},
		{b.province, res.Province},
		{b.postal, res.PostalCode},
	} {
		if f.idx < 0 {
			out = append(out, f.value)
			continue
		}
		out[f.idx] = f.value
	}
	return out
}

// header returns the output header for an input header
func (b binding) header(in []string) []string {
	if in == nil {
		return nil
	}
	out := append([]string(nil), in...)
	for _, f := range []struct {
		idx  int
		name string
	}{
		{b.subdistrict, "subdistrict"},
		{b.district, "district"},
		{b.province, "province"},
		{b.postal, "postal_code"},
	} {
		if f.idx < 0 {
			out = append(out, f.name)
		}
	}
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
