package builder

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder is the bind parameter style of a SQL dialect.
type Placeholder int

const (
	// Dollar renders numbered parameters: $1, $2 (PostgreSQL).
	Dollar Placeholder = iota
	// Question renders positional parameters: ? (SQLite).
	Question
)

func (p Placeholder) mark(n int) string {
	if p == Question {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// SQLBuilder helps construct SQL queries dynamically.
// Conditions are always written with "?" and rebound to the builder's placeholder style.
type SQLBuilder struct {
	placeholder Placeholder
	table       string
	columns     []string
	values      []interface{}
	where       []string
	args        []interface{}
	joins       []string
	groupBy     []string
	orderBy     []string
	limit       int
	isInsert    bool
	isDelete    bool
	isSelect    bool
}

// NewSQLBuilder creates a builder that renders PostgreSQL placeholders.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{placeholder: Dollar}
}

// NewSQLBuilderFor creates a builder for the given placeholder style.
func NewSQLBuilderFor(p Placeholder) *SQLBuilder {
	return &SQLBuilder{placeholder: p}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.isDelete = true
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	b.args = append(b.args, vals...)
	return b
}

// Where adds a condition to the query. Conditions are combined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.args = append(b.args, args...)
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// GroupBy adds a GROUP BY expression.
func (b *SQLBuilder) GroupBy(exprs ...string) *SQLBuilder {
	b.groupBy = append(b.groupBy, exprs...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order ...string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order...)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	argIndex := 1

	switch {
	case b.isInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		placeholders := make([]string, len(b.values))
		for i := range b.values {
			placeholders[i] = b.placeholder.mark(argIndex)
			argIndex++
		}
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
		return sb.String(), b.args
	case b.isDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	case b.isSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join)
		}
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.rebind(strings.Join(b.where, " AND "), &argIndex))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	return sb.String(), b.args
}

// rebind replaces every "?" in clause with the builder's placeholder, numbering from *next.
func (b *SQLBuilder) rebind(clause string, next *int) string {
	if b.placeholder == Question {
		*next += strings.Count(clause, "?")
		return clause
	}
	var sb strings.Builder
	parts := strings.Split(clause, "?")
	for i, part := range parts {
		sb.WriteString(part)
		if i < len(parts)-1 {
			sb.WriteString(b.placeholder.mark(*next))
			*next++
		}
	}
	return sb.String()
}
