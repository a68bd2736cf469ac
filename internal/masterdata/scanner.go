package masterdata

import (
	"errors"
	"fmt"
	"strings"
)

// Value is one field of an INSERT tuple
type Value struct {
	Text   string
	Null   bool
	Quoted bool
}

// Row is one parsed VALUES tuple
type Row []Value

// Statement is an INSERT statement split into rows
type Statement struct {
	Table     string
	Columns   []string
	Rows      []Row
	Malformed int // tuples that could not be parsed
}

// ErrNotInsert is returned by ParseInsert for any other kind of statement
var ErrNotInsert = errors.New("not an INSERT statement")

// scan states shared by the statement and tuple splitters
const (
	stateCode = iota
	stateSingle
	stateDouble
	stateBacktick
	stateLineComment
	stateBlockComment
)

// SplitStatements splits a dump into statements at top-level semicolons.
// Semicolons inside string literals, quoted identifiers and comments do not
// terminate a statement. Comments are dropped from the output.
func SplitStatements(dump string) []string {
	var (
		out   []string
		cur   strings.Builder
		state = stateCode
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(dump); i++ {
		c := dump[i]
		switch state {
		case stateCode:
			switch {
			case c == ';':
				flush()
				continue
			case c == '\'':
				state = stateSingle
			case c == '"':
				state = stateDouble
			case c == '`':
				state = stateBacktick
			case c == '#':
				state = stateLineComment
				continue
			case c == '-' && i+1 < len(dump) && dump[i+1] == '-' && (i+2 == len(dump) || isSpace(dump[i+2])):
				state = stateLineComment
				i++
				continue
			case c == '/' && i+1 < len(dump) && dump[i+1] == '*':
				state = stateBlockComment
				i++
				continue
			}
			cur.WriteByte(c)

		case stateSingle, stateDouble, stateBacktick:
			cur.WriteByte(c)
			q := quoteOf(state)
			if c == '\\' && state != stateBacktick && i+1 < len(dump) {
				i++
				cur.WriteByte(dump[i])
				continue
			}
			if c == q {
				if i+1 < len(dump) && dump[i+1] == q {
					i++
					cur.WriteByte(dump[i])
					continue
				}
				state = stateCode
			}

		case stateLineComment:
			if c == '\n' {
				state = stateCode
				cur.WriteByte(' ')
			}

		case stateBlockComment:
			if c == '*' && i+1 < len(dump) && dump[i+1] == '/' {
				state = stateCode
				cur.WriteByte(' ')
				i++
			}
		}
	}
	flush()
	return out
}

// ParseInsert parses `INSERT [IGNORE] INTO table [(cols)] VALUES (...), (...)`.
// Tuples that cannot be parsed are skipped and counted in Malformed.
func ParseInsert(stmt string) (*Statement, error) {
	s := strings.TrimSpace(stmt)
	rest, ok := cutKeyword(s, "INSERT")
	if !ok {
		return nil, ErrNotInsert
	}
	for _, kw := range []string{"LOW_PRIORITY", "DELAYED", "HIGH_PRIORITY", "IGNORE"} {
		if r, ok := cutKeyword(rest, kw); ok {
			rest = r
		}
	}
	rest, ok = cutKeyword(rest, "INTO")
	if !ok {
		return nil, fmt.Errorf("insert: missing INTO")
	}

	table, rest := readIdentifier(rest)
	if table == "" {
		return nil, fmt.Errorf("insert: missing table name")
	}
	st := &Statement{Table: table}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("insert into %s: unterminated column list", table)
		}
		for _, col := range strings.Split(rest[1:end], ",") {
			st.Columns = append(st.Columns, unquoteIdentifier(strings.TrimSpace(col)))
		}
		rest = rest[end+1:]
	}

	values, ok := cutKeyword(rest, "VALUES")
	if !ok {
		if values, ok = cutKeyword(rest, "VALUE"); !ok {
			return nil, fmt.Errorf("insert into %s: missing VALUES", table)
		}
	}

	tuples, malformed := splitTuples(values)
	st.Malformed = malformed
	for _, t := range tuples {
		row, err := parseFields(t)
		if err != nil {
			st.Malformed++
			continue
		}
		st.Rows = append(st.Rows, row)
	}
	return st, nil
}

// splitTuples returns the bodies of the top-level parenthesised tuples.
// Parentheses and commas inside literals are ignored. An unterminated
// trailing tuple is counted as malformed. Scanning stops at the first
// top-level token that is not a tuple (e.g. ON DUPLICATE KEY UPDATE).
func splitTuples(values string) (tuples []string, malformed int) {
	state := stateCode
	depth := 0
	start := 0

	for i := 0; i < len(values); i++ {
		c := values[i]
		if state == stateSingle || state == stateDouble {
			q := quoteOf(state)
			switch {
			case c == '\\' && i+1 < len(values):
				i++
			case c == q && i+1 < len(values) && values[i+1] == q:
				i++
			case c == q:
				state = stateCode
			}
			continue
		}

		switch c {
		case '\'':
			state = stateSingle
		case '"':
			state = stateDouble
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			if depth == 0 {
				return tuples, malformed
			}
			depth--
			if depth == 0 {
				tuples = append(tuples, values[start:i])
			}
		default:
			if depth == 0 && c != ',' && !isSpace(c) {
				return tuples, malformed
			}
		}
	}
	if depth > 0 || state != stateCode {
		malformed++
	}
	return tuples, malformed
}

// parseFields splits one tuple body into values, unescaping literals
func parseFields(tuple string) (Row, error) {
	var row Row
	i := 0
	n := len(tuple)
	skip := func() {
		for i < n && isSpace(tuple[i]) {
			i++
		}
	}

	skip()
	if i == n {
		return row, nil
	}

	for {
		skip()
		if i == n {
			return nil, fmt.Errorf("tuple: missing value after comma")
		}

		c := tuple[i]
		if c == '\'' || c == '"' {
			text, next, err := readLiteral(tuple, i)
			if err != nil {
				return nil, err
			}
			row = append(row, Value{Text: text, Quoted: true})
			i = next
		} else {
			start := i
			depth := 0
			for i < n {
				b := tuple[i]
				if b == '(' {
					depth++
				} else if b == ')' {
					depth--
				} else if b == ',' && depth == 0 {
					break
				}
				i++
			}
			bare := strings.TrimSpace(tuple[start:i])
			switch {
			case bare == "":
				return nil, fmt.Errorf("tuple: empty value at offset %d", start)
			case strings.EqualFold(bare, "NULL"):
				row = append(row, Value{Null: true})
			default:
				row = append(row, Value{Text: bare})
			}
		}

		skip()
		if i == n {
			return row, nil
		}
		if tuple[i] != ',' {
			return nil, fmt.Errorf("tuple: unexpected %q at offset %d", tuple[i], i)
		}
		i++
	}
}

// readLiteral reads a quoted literal starting at s[start] and returns its
// unescaped text and the offset just past the closing quote
func readLiteral(s string, start int) (string, int, error) {
	q := s[start]
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteString(unescape(s[i]))
		case c == q && i+1 < len(s) && s[i+1] == q:
			i++
			b.WriteByte(q)
		case c == q:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", len(s), fmt.Errorf("tuple: unterminated literal at offset %d", start)
}

func unescape(c byte) string {
	switch c {
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'Z':
		return "\x1a"
	case '%', '_':
		return "\\" + string(c)
	}
	return string(c)
}

func cutKeyword(s, kw string) (string, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
		return s, false
	}
	if len(s) > len(kw) && !isSpace(s[len(kw)]) && s[len(kw)] != '(' && s[len(kw)] != '`' {
		return s, false
	}
	return s[len(kw):], true
}

// readIdentifier reads a possibly quoted, possibly schema-qualified table name
func readIdentifier(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '`' || c == '"' {
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return "", s
			}
			i += end + 2
			continue
		}
		if isSpace(c) || c == '(' {
			break
		}
		i++
	}
	return s[:i], s[i:]
}

// TableName returns the bare lower-case table name of an identifier such as
// `db`.`address_provinces`
func TableName(ident string) string {
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		ident = ident[i+1:]
	}
	return strings.ToLower(unquoteIdentifier(ident))
}

func unquoteIdentifier(s string) string {
	return strings.Trim(s, "`\"[] ")
}

func quoteOf(state int) byte {
	switch state {
	case stateSingle:
		return '\''
	case stateDouble:
		return '"'
	}
	return '`'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
