package etl

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const defaultSQLBatch = 1000

// Sink receives resolved rows in input order
type Sink interface {
	Begin(header []string) error
	Write(row []string) error
	Finish() error
}

// CSVSink writes rows as CSV
type CSVSink struct {
	w   *csv.Writer
	out io.Writer
	bom bool
}

// NewCSVSink creates a CSVSink; bom prefixes the output with a UTF-8 byte-order mark
func NewCSVSink(w io.Writer, bom bool) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w), out: w, bom: bom}
}

// Begin writes the optional BOM and the header
func (s *CSVSink) Begin(header []string) error {
	if s.bom {
		if _, err := io.WriteString(s.out, "\ufeff"); err != nil {
			return eris.Wrap(err, "etl: write bom")
		}
	}
	if header == nil {
		return nil
	}
	return eris.Wrap(s.w.Write(header), "etl: write csv header")
}

func (s *CSVSink) Write(row []string) error {
	return eris.Wrap(s.w.Write(row), "etl: write csv row")
}

func (s *CSVSink) Finish() error {
	s.w.Flush()
	return eris.Wrap(s.w.Error(), "etl: flush csv")
}

// XLSXSink collects rows into a workbook saved on Finish
type XLSXSink struct {
	f     *excelize.File
	path  string
	sheet string
	row   int
}

// NewXLSXSink creates an XLSXSink that saves to path
func NewXLSXSink(path, sheet string) *XLSXSink {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &XLSXSink{f: excelize.NewFile(), path: path, sheet: sheet}
}

// Begin names the sheet and writes the header
func (s *XLSXSink) Begin(header []string) error {
	if s.sheet != "Sheet1" {
		if err := s.f.SetSheetName("Sheet1", s.sheet); err != nil {
			return eris.Wrap(err, "etl: name sheet")
		}
	}
	if header == nil {
		return nil
	}
	return s.Write(header)
}

func (s *XLSXSink) Write(row []string) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return eris.Wrap(err, "etl: cell name")
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	return eris.Wrapf(s.f.SetSheetRow(s.sheet, cell, &values), "etl: write xlsx row %d", s.row)
}

func (s *XLSXSink) Finish() error {
	defer s.f.Close()
	return eris.Wrapf(s.f.SaveAs(s.path), "etl: save workbook %s", s.path)
}

// SQLColumn is one target column of the generated INSERT
type SQLColumn struct {
	Name     string   `yaml:"name" mapstructure:"name"`
	Coercion Coercion `yaml:"type" mapstructure:"type"`
}

// SQLSink renders rows as batched MySQL INSERT statements. Row cell i
// fills column i; missing cells are NULL.
type SQLSink struct {
	w         *bufio.Writer
	table     string
	columns   []SQLColumn
	batchSize int
	pending   []string
	prefix    string
}

// NewSQLSink creates an SQLSink. With no columns the input header is used
// and every value is a string.
func NewSQLSink(w io.Writer, table string, columns []SQLColumn, batchSize int) *SQLSink {
	if batchSize <= 0 {
		batchSize = defaultSQLBatch
	}
	return &SQLSink{w: bufio.NewWriter(w), table: table, columns: columns, batchSize: batchSize}
}

// Begin writes the session preamble and fixes the column list
func (s *SQLSink) Begin(header []string) error {
	if len(s.columns) == 0 {
		if header == nil {
			return eris.New("etl: sql output needs columns or an input header")
		}
		for _, h := range header {
			s.columns = append(s.columns, SQLColumn{Name: h, Coercion: CoerceString})
		}
	}

	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		if !c.Coercion.IsValid() {
			return eris.Errorf("etl: column %s has unknown type %q", c.Name, c.Coercion)
		}
		names[i] = quoteIdent(c.Name)
	}
	s.prefix = fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(s.table), strings.Join(names, ", "))

	_, err := s.w.WriteString("SET FOREIGN_KEY_CHECKS = 0;\n" +
		"SET SQL_MODE = \"NO_AUTO_VALUE_ON_ZERO\";\n" +
		"START TRANSACTION;\n" +
		"SET time_zone = \"+00:00\";\n\n")
	return eris.Wrap(err, "etl: write sql preamble")
}

// Write coerces one row. A value that does not fit its column rejects the
// whole row with ErrBadValue and nothing is buffered.
func (s *SQLSink) Write(row []string) error {
	values := make([]string, len(s.columns))
	for i, c := range s.columns {
		v, err := c.Coercion.Literal(cell(row, i))
		if err != nil {
			return eris.Wrapf(err, "column %s", c.Name)
		}
		values[i] = v
	}

	s.pending = append(s.pending, "("+strings.Join(values, ", ")+")")
	if len(s.pending) >= s.batchSize {
		return s.flush()
	}
	return nil
}

func (s *SQLSink) flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	_, err := s.w.WriteString(s.prefix + strings.Join(s.pending, ",\n") + ";\n\n")
	s.pending = s.pending[:0]
	return eris.Wrap(err, "etl: write sql batch")
}

// Finish flushes the last batch and commits
func (s *SQLSink) Finish() error {
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.w.WriteString("COMMIT;\nSET FOREIGN_KEY_CHECKS = 1;\n"); err != nil {
		return eris.Wrap(err, "etl: write sql trailer")
	}
	return eris.Wrap(s.w.Flush(), "etl: flush sql")
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
