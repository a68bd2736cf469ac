package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	dump := "SET a = 1; -- comment; not a statement\nINSERT INTO t VALUES ('x;y'); /* c; */ INSERT INTO t VALUES (\"a\\\";b\");# tail;\n"
	got := SplitStatements(dump)

	require.Len(t, got, 3)
	assert.Equal(t, "SET a = 1", got[0])
	assert.Equal(t, "INSERT INTO t VALUES ('x;y')", got[1])
	assert.Equal(t, `INSERT INTO t VALUES ("a\";b")`, got[2])
}

func TestParseInsert(t *testing.T) {
	t.Run("quoted commas and escapes", func(t *testing.T) {
		st, err := ParseInsert("INSERT INTO `db`.`address_sub_districts` (`id`, `name`) VALUES (1, 'Ghost, Nowhere'), (2, 'O''Neil'), (3, 'back\\\\slash'), (4, NULL)")
		require.NoError(t, err)

		assert.Equal(t, "address_sub_districts", TableName(st.Table))
		assert.Equal(t, []string{"id", "name"}, st.Columns)
		require.Len(t, st.Rows, 4)
		assert.Equal(t, Row{{Text: "1"}, {Text: "Ghost, Nowhere", Quoted: true}}, st.Rows[0])
		assert.Equal(t, "O'Neil", st.Rows[1][1].Text)
		assert.Equal(t, `back\slash`, st.Rows[2][1].Text)
		assert.True(t, st.Rows[3][1].Null)
		assert.Zero(t, st.Malformed)
	})

	t.Run("parentheses inside literals", func(t *testing.T) {
		st, err := ParseInsert("insert into t values (1, 'a (b), c'),(2,'d')")
		require.NoError(t, err)
		require.Len(t, st.Rows, 2)
		assert.Equal(t, "a (b), c", st.Rows[0][1].Text)
	})

	t.Run("malformed tuple is skipped", func(t *testing.T) {
		st, err := ParseInsert("INSERT INTO t VALUES (1, 'ok'), (2, 'bad' 'x'), (3, )")
		require.NoError(t, err)
		require.Len(t, st.Rows, 1)
		assert.Equal(t, 2, st.Malformed)
	})

	t.Run("unterminated literal", func(t *testing.T) {
		st, err := ParseInsert("INSERT INTO t VALUES (1, 'ok'), (2, 'never closed)")
		require.NoError(t, err)
		require.Len(t, st.Rows, 1)
		assert.Equal(t, 1, st.Malformed)
	})

	t.Run("trailing clause", func(t *testing.T) {
		st, err := ParseInsert("INSERT IGNORE INTO t VALUES (1,'a') ON DUPLICATE KEY UPDATE name=VALUES(name)")
		require.NoError(t, err)
		assert.Len(t, st.Rows, 1)
	})

	t.Run("not an insert", func(t *testing.T) {
		_, err := ParseInsert("CREATE TABLE t (id int)")
		assert.ErrorIs(t, err, ErrNotInsert)
	})

	t.Run("missing values", func(t *testing.T) {
		_, err := ParseInsert("INSERT INTO t SELECT * FROM u")
		assert.Error(t, err)
	})
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "address_provinces", TableName("`address_provinces`"))
	assert.Equal(t, "address_provinces", TableName(`"public"."Address_Provinces"`))
	assert.Equal(t, "address_provinces", TableName("address_provinces"))
}
