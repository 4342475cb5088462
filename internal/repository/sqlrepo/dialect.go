package sqlrepo

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax. Queries are written with $N placeholders.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// rebind rewrites $N placeholders to ?N for SQLite, which binds numbered parameters by index.
func (d Dialect) rebind(q string) string {
	if d != SQLite {
		return q
	}
	return strings.ReplaceAll(q, "$", "?")
}

// placeholders returns "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(from + i))
	}
	return b.String()
}
