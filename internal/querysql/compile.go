package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
	"github.com/helloworldkim/querydsl/internal/schema"
)

// SQLCompiler translates query specs to parameterized SQL for SQLite.
//
// CRITICAL: Values are never interpolated; every literal becomes a ? parameter.
// CRITICAL: Row-returning queries get a deterministic ORDER BY. User order
// clauses come first, then the identity of every source in scope (or the
// group keys for grouped queries) as tie-breaks.
type SQLCompiler struct {
	builder sq.StatementBuilderType
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// selectMode selects which parts of a spec are rendered.
type selectMode struct {
	tieBreak bool // append deterministic order keys
	fetch    bool // append fetch-join columns
	paging   bool // render offset and limit
	ordering bool // render user order-by clauses
}

var (
	topLevel = selectMode{tieBreak: true, fetch: true, paging: true, ordering: true}
	nested   = selectMode{paging: true, ordering: true}
	counting = selectMode{}
)

// Translate converts a query spec to SQL. The select list is rendered in
// order, with entity items expanded to their columns and fetch-joined
// entities appended after the select items in join order.
func (c *SQLCompiler) Translate(q *queryir.QuerySpec) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}
	r := &renderer{c: c}
	sb, err := c.selectFor(q, r, topLevel)
	if err != nil {
		return "", nil, err
	}
	return sb.ToSql()
}

// TranslateCount converts a query spec to a statement counting its rows,
// ignoring offset, limit and order. Grouped and distinct queries are
// counted through a derived table.
func (c *SQLCompiler) TranslateCount(q *queryir.QuerySpec) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}
	r := &renderer{c: c}

	if q.Grouped() || q.Distinct {
		inner, err := c.selectFor(q, r, counting)
		if err != nil {
			return "", nil, err
		}
		return c.builder.Select("COUNT(*)").FromSelect(inner, "counted").ToSql()
	}

	sb := c.builder.Select("COUNT(*)")
	sb, err := c.fromAndFilters(sb, q, r)
	if err != nil {
		return "", nil, err
	}
	return sb.ToSql()
}

// TranslateMutating converts a bulk update or delete to SQL.
// Set-clause values are rendered as expressions so the backend evaluates
// them per row.
func (c *SQLCompiler) TranslateMutating(m *queryir.MutatingSpec) (string, []any, error) {
	if err := queryir.ValidateMutating(m); err != nil {
		return "", nil, err
	}
	r := &renderer{c: c, target: m.Target}
	table := m.Target.Entity.Table

	var where sq.Sqlizer
	if !m.Where.Absent() {
		sql, args, err := r.render(m.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		where = sq.Expr(sql, args...)
	}

	switch m.Kind {
	case queryir.Update:
		ub := c.builder.Update(table)
		for _, s := range m.Set {
			sql, args, err := r.render(s.Value)
			if err != nil {
				return "", nil, fmt.Errorf("compile set %s: %w", s.Column.Name, err)
			}
			ub = ub.Set(s.Column.Name, sq.Expr(sql, args...))
		}
		if where != nil {
			ub = ub.Where(where)
		}
		return ub.ToSql()
	case queryir.Delete:
		db := c.builder.Delete(table)
		if where != nil {
			db = db.Where(where)
		}
		return db.ToSql()
	default:
		return "", nil, fmt.Errorf("unsupported statement kind: %v", m.Kind)
	}
}

func (c *SQLCompiler) selectFor(q *queryir.QuerySpec, r *renderer, mode selectMode) (sq.SelectBuilder, error) {
	sb := c.builder.Select()
	if q.Distinct {
		sb = sb.Distinct()
	}

	for i, item := range q.Select {
		cols, err := r.selectItem(item)
		if err != nil {
			return sb, fmt.Errorf("compile select item %d: %w", i, err)
		}
		for _, col := range cols {
			sb = sb.Column(col)
		}
	}
	if mode.fetch {
		for _, j := range q.Joins {
			if j.Fetch {
				for _, col := range entityColumns(r, j.Target) {
					sb = sb.Column(col)
				}
			}
		}
	}

	sb, err := c.fromAndFilters(sb, q, r)
	if err != nil {
		return sb, err
	}

	if len(q.GroupBy) > 0 {
		keys := make([]string, len(q.GroupBy))
		for i, g := range q.GroupBy {
			sql, args, err := r.render(g)
			if err != nil {
				return sb, fmt.Errorf("compile group by: %w", err)
			}
			if len(args) > 0 {
				return sb, ir.NewInvalidQuery("group-by expressions cannot carry parameters")
			}
			keys[i] = sql
		}
		sb = sb.GroupBy(keys...)
	}
	if !q.Having.Absent() {
		sql, args, err := r.render(q.Having)
		if err != nil {
			return sb, fmt.Errorf("compile having: %w", err)
		}
		sb = sb.Having(sq.Expr(sql, args...))
	}

	if mode.ordering {
		var seen []string
		for _, o := range q.OrderBy {
			sql, args, err := r.render(o.Expr)
			if err != nil {
				return sb, fmt.Errorf("compile order by: %w", err)
			}
			seen = append(seen, sql)
			sb = sb.OrderByClause(sql+orderSuffix(o), args...)
		}
		if mode.tieBreak && !q.Distinct {
			for _, key := range c.stableOrderKeys(q, r) {
				if !lo.Contains(seen, key) {
					sb = sb.OrderBy(key + " ASC")
				}
			}
		}
	}

	if mode.paging {
		if q.Limit > 0 {
			sb = sb.Limit(uint64(q.Limit))
			if q.Offset > 0 {
				sb = sb.Offset(uint64(q.Offset))
			}
		} else if q.Offset > 0 {
			// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
			sb = sb.Suffix(fmt.Sprintf("LIMIT -1 OFFSET %d", q.Offset))
		}
	}
	return sb, nil
}

// fromAndFilters renders FROM, JOIN and WHERE.
func (c *SQLCompiler) fromAndFilters(sb sq.SelectBuilder, q *queryir.QuerySpec, r *renderer) (sq.SelectBuilder, error) {
	sb = sb.From(strings.Join(lo.Map(q.From, func(s *queryir.Source, _ int) string {
		return sourceSQL(s)
	}), ", "))

	for _, j := range q.Joins {
		cond := j.On
		if j.Path != nil {
			cond = queryir.And(j.Path.Condition(j.Target), j.On)
		}
		sql, args, err := r.render(cond)
		if err != nil {
			return sb, fmt.Errorf("compile join %s: %w", j.Target.Alias, err)
		}
		sb = sb.JoinClause(sq.Expr(fmt.Sprintf("%s %s ON %s", j.Kind, sourceSQL(j.Target), sql), args...))
	}

	if !q.Where.Absent() {
		sql, args, err := r.render(q.Where)
		if err != nil {
			return sb, fmt.Errorf("compile where: %w", err)
		}
		sb = sb.Where(sq.Expr(sql, args...))
	}
	return sb, nil
}

// stableOrderKeys returns the tie-break keys for q.
//
// Grouped queries order by their group keys (one row per group, so the
// keys are unique); a global aggregate yields one row and needs none.
// Everything else orders by the identity of each source in scope, which
// makes the row order total.
func (c *SQLCompiler) stableOrderKeys(q *queryir.QuerySpec, r *renderer) []string {
	if len(q.GroupBy) > 0 {
		var keys []string
		for _, g := range q.GroupBy {
			if sql, args, err := r.render(g); err == nil && len(args) == 0 {
				keys = append(keys, sql)
			}
		}
		return keys
	}
	if q.Grouped() {
		return nil
	}
	return lo.Map(q.Sources(), func(s *queryir.Source, _ int) string {
		return r.qualifier(s) + "." + s.Entity.Identity
	})
}

func orderSuffix(o queryir.Order) string {
	s := " ASC"
	if o.Desc {
		s = " DESC"
	}
	switch o.Nulls {
	case queryir.NullsFirst:
		s += " NULLS FIRST"
	case queryir.NullsLast:
		s += " NULLS LAST"
	}
	return s
}

func sourceSQL(s *queryir.Source) string {
	if s.Alias == s.Entity.Table {
		return s.Entity.Table
	}
	return s.Entity.Table + " AS " + s.Alias
}

func entityColumns(r *renderer, s *queryir.Source) []sq.Sqlizer {
	return lo.Map(s.Entity.Columns, func(col schema.Column, _ int) sq.Sqlizer {
		return sq.Expr(r.qualifier(s) + "." + col.Name)
	})
}
