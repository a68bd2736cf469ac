package etl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLSink_Batches(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSQLSink(&buf, "customers", []SQLColumn{
		{Name: "customer_id", Coercion: CoerceInt},
		{Name: "street", Coercion: CoerceString},
		{Name: "date_registered", Coercion: CoerceDateTime},
	}, 2)

	require.NoError(t, sink.Begin(nil))
	require.NoError(t, sink.Write([]string{"1", `12 O'Neil \ Rd`, "15/12/2025 11:02"}))
	require.NoError(t, sink.Write([]string{"2", "", ""}))
	require.NoError(t, sink.Write([]string{"3"}))
	require.NoError(t, sink.Finish())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "SET FOREIGN_KEY_CHECKS = 0;\n"))
	assert.True(t, strings.HasSuffix(out, "COMMIT;\nSET FOREIGN_KEY_CHECKS = 1;\n"))
	assert.Equal(t, 2, strings.Count(out, "INSERT INTO `customers` (`customer_id`, `street`, `date_registered`) VALUES "))
	assert.Contains(t, out, `(1, '12 O''Neil \\ Rd', '2025-12-15 11:02:00'),`+"\n"+`(2, NULL, NULL);`)
	assert.Contains(t, out, "(3, NULL, NULL);")
}

func TestSQLSink_BadValueRejectsRow(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSQLSink(&buf, "t", []SQLColumn{{Name: "n", Coercion: CoerceInt}}, 0)
	require.NoError(t, sink.Begin(nil))

	err := sink.Write([]string{"abc"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBadValue))

	require.NoError(t, sink.Finish())
	assert.NotContains(t, buf.String(), "INSERT")
}

func TestSQLSink_ColumnsFromHeader(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSQLSink(&buf, "t", nil, 0)

	require.Error(t, NewSQLSink(&buf, "t", nil, 0).Begin(nil))
	require.NoError(t, sink.Begin([]string{"a", "b"}))
	require.NoError(t, sink.Write([]string{"1", "x"}))
	require.NoError(t, sink.Finish())

	assert.Contains(t, buf.String(), "INSERT INTO `t` (`a`, `b`) VALUES ('1', 'x');")
}

func TestSQLSink_UnknownType(t *testing.T) {
	sink := NewSQLSink(&bytes.Buffer{}, "t", []SQLColumn{{Name: "a", Coercion: "money"}}, 0)
	assert.Error(t, sink.Begin(nil))
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCSVSink(&buf, true)

	require.NoError(t, sink.Begin([]string{"id", "street"}))
	require.NoError(t, sink.Write([]string{"1", "12/3, ซอย 5"}))
	require.NoError(t, sink.Finish())

	assert.Equal(t, "\ufeffid,street\n1,\"12/3, ซอย 5\"\n", buf.String())
}

func TestAtomicFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	aborted, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = aborted.WriteString("partial")
	require.NoError(t, err)
	aborted.Abort()
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, aborted.TempPath())

	f, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = f.WriteString("done")
	require.NoError(t, err)
	require.NoError(t, f.Commit())
	f.Abort()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "done", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
