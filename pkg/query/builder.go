package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// QueryType represents the type of SQL query
type QueryType string

const (
	QueryTypeSelect QueryType = "SELECT"
	QueryTypeInsert QueryType = "INSERT"
	QueryTypeUpdate QueryType = "UPDATE"
	QueryTypeDelete QueryType = "DELETE"
)

// QueryResult represents the built SQL query and parameters
type QueryResult struct {
	SQL    string
	Params []interface{}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into SQL as a
// backtick-quoted table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

var sqlOperators = map[string]string{
	models.OpEq:  "=",
	models.OpNeq: "<>",
	models.OpGt:  ">",
	models.OpGte: ">=",
	models.OpLt:  "<",
	models.OpLte: "<=",
}

// Builder is a fluent SQL query builder. The first invalid identifier or
// operator is remembered and returned from Build.
type Builder struct {
	queryType    QueryType
	table        string
	fields       []string
	whereClauses []string
	params       []interface{}
	orderBy      string
	limit        *int
	values       map[string]interface{}
	err          error
}

func newBuilder(qt QueryType, table string) *Builder {
	b := &Builder{
		queryType:    qt,
		table:        table,
		whereClauses: make([]string, 0),
		params:       make([]interface{}, 0),
	}
	if !ValidIdentifier(table) {
		b.err = fmt.Errorf("invalid table name %q", table)
	}
	return b
}

// From creates a new SELECT query builder
func From(table string) *Builder {
	return newBuilder(QueryTypeSelect, table)
}

// Insert creates a new INSERT query builder
func Insert(table string, data map[string]interface{}) *Builder {
	b := newBuilder(QueryTypeInsert, table)
	b.values = data
	return b
}

// Update creates a new UPDATE query builder
func Update(table string) *Builder {
	b := newBuilder(QueryTypeUpdate, table)
	b.values = make(map[string]interface{})
	return b
}

// Delete creates a new DELETE query builder
func Delete(table string) *Builder {
	return newBuilder(QueryTypeDelete, table)
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *Builder) column(field string) string {
	if !ValidIdentifier(field) {
		b.fail("invalid column name %q", field)
	}
	return fmt.Sprintf("`%s`", field)
}

// Select specifies which fields to select
func (b *Builder) Select(fields []string) *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}
	for _, field := range fields {
		if field == "*" {
			b.fields = append(b.fields, "*")
			continue
		}
		b.fields = append(b.fields, b.column(field))
	}
	return b
}

// Where adds a WHERE condition
func (b *Builder) Where(condition string, value ...interface{}) *Builder {
	b.whereClauses = append(b.whereClauses, condition)
	if len(value) > 0 {
		b.params = append(b.params, value...)
	}
	return b
}

// WhereCriteria ANDs each criterion as a parameterised comparison.
// A nil value with eq/neq becomes IS NULL / IS NOT NULL.
func (b *Builder) WhereCriteria(criteria []models.QueryCriterion) *Builder {
	for _, c := range criteria {
		col := b.column(c.Field)
		op, ok := sqlOperators[c.Op]
		if !ok {
			b.fail("unsupported operator %q on %s", c.Op, c.Field)
			continue
		}
		if c.Val == nil {
			switch c.Op {
			case models.OpEq:
				b.Where(col + " IS NULL")
				continue
			case models.OpNeq:
				b.Where(col + " IS NOT NULL")
				continue
			}
		}
		b.Where(fmt.Sprintf("%s %s ?", col, op), c.Val)
	}
	return b
}

// Set sets values for UPDATE query
func (b *Builder) Set(data map[string]interface{}) *Builder {
	if b.queryType != QueryTypeUpdate {
		return b
	}
	b.values = data
	return b
}

// OrderBy adds ORDER BY clause
func (b *Builder) OrderBy(field string, direction string) *Builder {
	if b.queryType != QueryTypeSelect || field == "" {
		return b
	}

	dir := strings.ToUpper(direction)
	if dir != constants.SortDESC {
		dir = constants.SortASC
	}
	b.orderBy = fmt.Sprintf("ORDER BY %s %s", b.column(field), dir)
	return b
}

// Limit adds LIMIT clause
func (b *Builder) Limit(n int) *Builder {
	if b.queryType != QueryTypeSelect || n <= 0 {
		return b
	}
	b.limit = &n
	return b
}

// Build constructs the final SQL query
func (b *Builder) Build() (QueryResult, error) {
	var sql string
	var params []interface{}

	switch b.queryType {
	case QueryTypeSelect:
		sql = b.buildSelect()
		params = b.params

	case QueryTypeInsert:
		sql, params = b.buildInsert()

	case QueryTypeUpdate:
		sql, params = b.buildUpdate()

	case QueryTypeDelete:
		sql = b.buildDelete()
		params = b.params
	}

	if b.err != nil {
		return QueryResult{}, b.err
	}
	return QueryResult{
		SQL:    sql,
		Params: params,
	}, nil
}

func (b *Builder) buildSelect() string {
	var parts []string

	fields := "*"
	if len(b.fields) > 0 {
		fields = strings.Join(b.fields, ", ")
	}
	parts = append(parts, fmt.Sprintf("SELECT %s FROM `%s`", fields, b.table))

	if len(b.whereClauses) > 0 {
		parts = append(parts, fmt.Sprintf("WHERE %s", strings.Join(b.whereClauses, " AND ")))
	}
	if b.orderBy != "" {
		parts = append(parts, b.orderBy)
	}
	if b.limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *b.limit))
	}

	return strings.Join(parts, " ")
}

// sortedKeys keeps generated column lists stable between runs.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Builder) buildInsert() (string, []interface{}) {
	if len(b.values) == 0 {
		b.fail("insert into %s has no values", b.table)
		return "", nil
	}

	var cols []string
	var placeholders []string
	var params []interface{}

	for _, key := range sortedKeys(b.values) {
		cols = append(cols, b.column(key))
		placeholders = append(placeholders, "?")
		params = append(params, b.values[key])
	}

	sql := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		b.table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))

	return sql, params
}

func (b *Builder) buildUpdate() (string, []interface{}) {
	if len(b.values) == 0 {
		b.fail("update of %s has no values", b.table)
		return "", nil
	}

	var setClauses []string
	var params []interface{}

	for _, key := range sortedKeys(b.values) {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", b.column(key)))
		params = append(params, b.values[key])
	}

	sql := fmt.Sprintf("UPDATE `%s` SET %s", b.table, strings.Join(setClauses, ", "))

	if len(b.whereClauses) > 0 {
		sql += fmt.Sprintf(" WHERE %s", strings.Join(b.whereClauses, " AND "))
		params = append(params, b.params...)
	}

	return sql, params
}

func (b *Builder) buildDelete() string {
	sql := fmt.Sprintf("DELETE FROM `%s`", b.table)

	if len(b.whereClauses) > 0 {
		sql += fmt.Sprintf(" WHERE %s", strings.Join(b.whereClauses, " AND "))
	}

	return sql
}
