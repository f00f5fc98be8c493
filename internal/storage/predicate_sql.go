package storage

import (
	"strconv"
	"strings"

	"github.com/hyperjump/bizsearch/internal/query"
)

// MaxLookupRows bounds every catalog lookup.
const MaxLookupRows = 200

// Dialect selects the placeholder syntax of a SQL backend.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $1, $2, ... placeholders.
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

const businessColumns = `id, name, address, area, city, state, phone_number, website,
	category, subcategory, reviews_count, reviews_average, created_at`

// CompileLookup turns a predicate into a SELECT over businesses. User-supplied
// terms and locality only ever appear in args; the returned SQL is built from
// constant fragments.
func CompileLookup(p query.Predicate, limit int, d Dialect) (string, []interface{}) {
	if limit <= 0 || limit > MaxLookupRows {
		limit = MaxLookupRows
	}

	var b strings.Builder
	args := make([]interface{}, 0, 8)
	b.WriteString("SELECT ")
	b.WriteString(businessColumns)
	b.WriteString("\n\tFROM businesses\n\tWHERE (")

	for i, term := range p.Terms() {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(subcategory) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		args = append(args, pattern, pattern, pattern)
	}
	b.WriteString(")")

	if p.HasLocality() {
		b.WriteString("\n\tAND LOWER(city) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(p.Locality)))
	}

	b.WriteString("\n\tAND LOWER(COALESCE(name, '') || ' ' || COALESCE(address, '')) NOT LIKE '%permanently closed%'")
	b.WriteString("\n\tLIMIT ?")
	args = append(args, limit)

	return rebind(b.String(), d), args
}

// escapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// rebind rewrites ? placeholders for the dialect. Question marks inside
// single-quoted literals are left untouched.
func rebind(q string, d Dialect) string {
	if d != DialectPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	inQuote := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
