package etl

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is an input file held in memory
type Table struct {
	Header []string // nil when the input has no header row
	Rows   [][]string
	Lines  []int // 1-based source line of each row
}

// Line returns the source line of row i. Tables built without line
// numbers count from the first line after the header.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	if t.Header != nil {
		return i + 2
	}
	return i + 1
}

// ReadOptions configures how an input file is read
type ReadOptions struct {
	HasHeader bool
	Sheet     string // XLSX sheet; empty reads the first one
	Delimiter rune   // CSV delimiter; 0 means ','
}

// ReadFile reads a CSV or XLSX file, chosen by extension
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: open %s", path)
	}
	defer f.Close()

	return ReadCSV(f, opts)
}

// ReadCSV reads UTF-8 CSV, with or without a byte-order mark. Rows may
// have differing widths; the runner decides which are malformed.
func ReadCSV(r io.Reader, opts ReadOptions) (*Table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "etl: read csv")
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return newTable(records, lines, opts.HasHeader), nil
}

// ReadXLSX reads one sheet of a workbook
func ReadXLSX(path string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: open workbook %s", path)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, eris.Errorf("etl: workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	// GetRows keeps empty rows in place, so row i is sheet line i+1
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: read sheet %s", sheet)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	padRows(rows, opts.HasHeader)
	return newTable(rows, lines, opts.HasHeader), nil
}

// padRows restores the trailing empty cells excelize trims, up to the
// header width, or to the widest row when there is no header
func padRows(rows [][]string, hasHeader bool) {
	width := 0
	if hasHeader {
		if len(rows) > 0 {
			width = len(rows[0])
		}
	} else {
		for _, r := range rows {
			width = max(width, len(r))
		}
	}
	for i, r := range rows {
		if len(r) < width {
			rows[i] = append(r, make([]string, width-len(r))...)
		}
	}
}

func newTable(records [][]string, lines []int, hasHeader bool) *Table {
	t := &Table{}
	if hasHeader && len(records) > 0 {
		t.Header = records[0]
		records, lines = records[1:], lines[1:]
	}
	t.Rows = make([][]string, 0, len(records))
	t.Lines = make([]int, 0, len(records))
	for i, rec := range records {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
		t.Lines = append(t.Lines, lines[i])
	}
	return t
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
