package etl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/parser"
)

func testMaster() *masterdata.Master {
	return masterdata.NewMaster([]models.GeoRecord{
		{Subdistrict: "คลองตัน", District: "คลองเตย", Province: "กรุงเทพมหานคร", PostalCode: "10110"},
		{Subdistrict: "หมากแข้ง", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
		{Subdistrict: "บ้านเลื่อม", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
	}, "test")
}

const customersCSV = "id,name,street,subdistrict,district,province,postal_code\n" +
	"1,สมชาย,12 ถนนสุขุมวิท,,,,10110\n" +
	"2,สมหญิง,\"99/1 ต.บ้านเลื่อม อ.เมือง จ.อุดรธานี 41000\",,,,\n" +
	"3,broken,too,short\n" +
	"4,มานี,ไม่รู้,ต.ไม่มี,อ.ไม่มี,จ.ไม่มี,99999.0\n"

func TestRunner_CSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(customersCSV), ReadOptions{HasHeader: true})
	require.NoError(t, err)

	var fallbacks []int
	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{
		Mapping: DefaultMapping(),
		Workers: 4,
		OnFallback: func(_ context.Context, line int, _ models.RawGeoInput, res models.ResolvedAddress) {
			assert.False(t, res.Matched)
			fallbacks = append(fallbacks, line)
		},
	}, nil)

	var buf bytes.Buffer
	stats, err := runner.Run(context.Background(), table, NewCSVSink(&buf, false))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 1, stats.Fallback)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.ByStrategy[models.StrategyZipUnique])
	assert.Equal(t, 1, stats.ByStrategy[models.StrategyZipSubdistrictExact])
	assert.Equal(t, []int{5}, fallbacks)

	out, err := ReadCSV(&buf, ReadOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, table.Header, out.Header)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, []string{"1", "สมชาย", "12 ถนนสุขุมวิท", "คลองตัน", "คลองเตย", "กรุงเทพมหานคร", "10110"}, out.Rows[0])
	assert.Equal(t, []string{"บ้านเลื่อม", "เมืองอุดรธานี", "อุดรธานี", "41000"}, out.Rows[1][3:])
	assert.Equal(t, []string{"4", "มานี", "ไม่รู้", "ไม่มี", "ไม่มี", "ไม่มี", "99999"}, out.Rows[2])
}

func TestRunner_PositionalAppendsMissingColumns(t *testing.T) {
	table := &Table{Rows: [][]string{
		{"a", "ตำบลหมากแข้ง 41000"},
		{"b"},
	}}

	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{
		Mapping: Mapping{FreeText: "1"},
	}, nil)

	var buf bytes.Buffer
	stats, err := runner.Run(context.Background(), table, NewCSVSink(&buf, false))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, "a,ตำบลหมากแข้ง 41000,หมากแข้ง,เมืองอุดรธานี,อุดรธานี,41000\n", buf.String())
}

func TestRunner_SQLRejectsBadRows(t *testing.T) {
	table := &Table{
		Header: []string{"id", "postal_code"},
		Rows:   [][]string{{"1", "10110"}, {"x", "41000"}},
	}

	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{
		Mapping: Mapping{PostalCode: "postal_code"},
	}, nil)

	var buf bytes.Buffer
	sink := NewSQLSink(&buf, "customers", []SQLColumn{
		{Name: "id", Coercion: CoerceInt},
		{Name: "postal_code", Coercion: CoerceString},
		{Name: "subdistrict", Coercion: CoerceString},
		{Name: "district", Coercion: CoerceString},
		{Name: "province", Coercion: CoerceString},
	}, 0)

	stats, err := runner.Run(context.Background(), table, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Malformed)
	assert.Contains(t, buf.String(), "(1, '10110', 'คลองตัน', 'คลองเตย', 'กรุงเทพมหานคร');")
}

func TestRunner_BindErrors(t *testing.T) {
	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{
		Mapping: Mapping{PostalCode: "zip"},
	}, nil)

	_, err := runner.Run(context.Background(), &Table{Header: []string{"postal_code"}}, NewCSVSink(&bytes.Buffer{}, false))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownColumn))
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{Mapping: Mapping{FreeText: "0"}}, nil)
	var buf bytes.Buffer
	_, err := runner.Run(ctx, &Table{Rows: [][]string{{"x"}}}, NewCSVSink(&buf, false))

	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestRunner_XLSXFreeTextOnlyRow(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"id", "street", "subdistrict", "district", "province", "postal_code"},
		{"1", "ต.บ้านเลื่อม อ.เมือง จ.อุดรธานี 41000", "", "", "", ""},
	})
	table, err := ReadFile(path, ReadOptions{HasHeader: true})
	require.NoError(t, err)

	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{Mapping: DefaultMapping()}, nil)
	var buf bytes.Buffer
	stats, err := runner.Run(context.Background(), table, NewCSVSink(&buf, false))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Matched)
	assert.Zero(t, stats.Malformed)
	assert.Contains(t, buf.String(), "บ้านเลื่อม,เมืองอุดรธานี,อุดรธานี,41000")
}

func TestRunner_FallbackLineSkipsBlankLines(t *testing.T) {
	input := "id,street,subdistrict,district,province,postal_code\n" +
		"\n" +
		",,,,,\n" +
		"1,ไม่รู้,,,,99999\n"
	table, err := ReadCSV(strings.NewReader(input), ReadOptions{HasHeader: true})
	require.NoError(t, err)

	var lines []int
	runner := NewRunner(parser.NewAddressParser(nil, 0, nil), testMaster(), RunnerConfig{
		Mapping: DefaultMapping(),
		OnFallback: func(_ context.Context, line int, _ models.RawGeoInput, _ models.ResolvedAddress) {
			lines = append(lines, line)
		},
	}, nil)

	_, err = runner.Run(context.Background(), table, NewCSVSink(&bytes.Buffer{}, false))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, lines)
}
