// Package query turns list-request parameters into parameterized SQL fragments.
//
// The safety invariant of the whole CRUD layer lives here: every
// request-supplied string is passed to the database as a positional bind
// value, never interpolated into SQL text. The only identifiers that reach
// SQL text are column and table names taken from the static entity schemas.
package query

import (
	"fmt"
	"strings"

	"github.com/propllia/backoffice/internal/entity"
)

// DefaultPerPage is the page size applied when the caller does not supply one.
const DefaultPerPage = 25

// Params carries the caller-controlled parts of a list request. Zero values
// mean "not supplied" except PerPage, whose explicit zero or negative value
// disables pagination entirely (deliberate escape hatch for exports and
// dropdowns).
type Params struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
	Order   string
	Filters map[string]string
}

// Builder accumulates WHERE conditions and their bind values in parallel.
type Builder struct {
	conditions []string
	binds      []interface{}
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// AddSearch appends one OR-group of case-insensitive substring matches over
// fields, all sharing a single bind value. Columns are cast to text so
// non-string columns (numerics, dates) participate in the match. No-op when
// the term or the field list is empty.
func (b *Builder) AddSearch(term string, fields []string) {
	if term == "" || len(fields) == 0 {
		return
	}
	idx := len(b.binds) + 1
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s::text ILIKE $%d", f, idx)
	}
	b.conditions = append(b.conditions, "("+strings.Join(parts, " OR ")+")")
	b.binds = append(b.binds, "%"+term+"%")
}

// AddFilter appends an exact-match equality condition with its own bind value.
// The field name must come from a schema whitelist, never from the request.
func (b *Builder) AddFilter(field, value string) {
	idx := len(b.binds) + 1
	b.conditions = append(b.conditions, fmt.Sprintf("%s = $%d", field, idx))
	b.binds = append(b.binds, value)
}

// WhereClause renders the accumulated conditions AND-combined, or an empty
// string when there are none.
func (b *Builder) WhereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// Binds returns the bind values in placeholder order.
func (b *Builder) Binds() []interface{} {
	return b.binds
}

// ForSchema builds the WHERE conditions for a list request: the free-text
// search over the schema's search fields plus equality filters for every
// whitelisted filter field present in the request with a non-empty value.
// Filter keys outside the whitelist are ignored even if present.
func ForSchema(s entity.Schema, p Params) *Builder {
	b := New()
	b.AddSearch(p.Search, s.SearchFields)
	for _, field := range s.FilterFields {
		if value, ok := p.Filters[field]; ok && value != "" {
			b.AddFilter(field, value)
		}
	}
	return b
}

// ResolveSort validates the requested sort column against the schema's
// whitelist, falling back to the schema default. The direction is ascending
// only for the exact token "asc" (case-sensitive); anything else, including
// absence, sorts descending.
func ResolveSort(s entity.Schema, sort, order string) (column, direction string) {
	column = s.DefaultSort
	if sort != "" && s.Sortable(sort) {
		column = sort
	}
	direction = "DESC"
	if order == "asc" {
		direction = "ASC"
	}
	return column, direction
}

// LimitOffset renders the pagination clause. Page is floored at 1. A
// per-page of zero or less disables pagination and returns an empty string.
func LimitOffset(page, perPage int) string {
	if perPage <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", perPage, (page-1)*perPage)
}
