package dump

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultTable is the dump table that carries monthly city temperatures.
const DefaultTable = "city_temp"

// Tuple is one (month, city, temperature) value group of an insert statement.
type Tuple struct {
	Month int
	City  string
	Value float64
}

// Rules decides where the target statement starts and ends and how value
// tuples are recognised inside it. The Reader state machine only consults
// Rules, so the matching details can be swapped without touching the scan.
type Rules interface {
	StatementStart(line string) bool
	StatementEnd(line string) bool
	Tuples(line string) []Tuple
}

// tupleRe matches `(month, 'city', temperature)` groups,
// e.g. "(1, '广州', 13.6)" -> month=1, city=广州, value=13.6.
var tupleRe = regexp.MustCompile(`\((\d+),\s*'([^']+)',\s*([-\d.]+)\)`)

// InsertRules matches `INSERT INTO <Table>` statements terminated by ';'.
type InsertRules struct {
	Table string
}

// StatementStart reports whether the line opens an insert into the table.
// The match is case-insensitive, accepts a back-quoted table name and
// requires the name to end there (city_temp does not match city_temperature).
func (r InsertRules) StatementStart(line string) bool {
	table := r.Table
	if table == "" {
		table = DefaultTable
	}
	rest, ok := cutPrefixFold(line, "insert into ")
	if !ok {
		return false
	}
	quoted := strings.HasPrefix(rest, "`")
	if quoted {
		rest = rest[1:]
	}
	rest, ok = cutPrefixFold(rest, table)
	if !ok {
		return false
	}
	if quoted {
		return strings.HasPrefix(rest, "`")
	}
	return rest == "" || !isIdentByte(rest[0])
}

// StatementEnd reports whether the line carries the statement terminator.
func (InsertRules) StatementEnd(line string) bool {
	return strings.Contains(line, ";")
}

// Tuples extracts every well-formed value group in the line. Groups whose
// month or temperature do not parse are skipped.
func (InsertRules) Tuples(line string) []Tuple {
	matches := tupleRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Tuple, 0, len(matches))
	for _, m := range matches {
		month, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		out = append(out, Tuple{Month: month, City: m[2], Value: value})
	}
	return out
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
