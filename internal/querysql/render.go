package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// renderer turns expressions into SQL fragments. Parameters are returned
// in the order their placeholders appear in the fragment.
type renderer struct {
	c *SQLCompiler
	// target is the table of a bulk statement. UPDATE and DELETE cannot
	// alias their table, so its columns are qualified by table name.
	target *queryir.Source
}

func (r *renderer) qualifier(s *queryir.Source) string {
	if r.target != nil && s == r.target {
		return s.Entity.Table
	}
	return s.Alias
}

// selectItem renders one select-list entry. Entity references expand to
// every column of the entity.
func (r *renderer) selectItem(e queryir.Expr) ([]sq.Sqlizer, error) {
	switch n := queryir.Unwrap(e).(type) {
	case *queryir.EntityRef:
		return entityColumns(r, n.Source), nil
	case *queryir.Alias:
		sql, args, err := r.render(n.Expr)
		if err != nil {
			return nil, err
		}
		return []sq.Sqlizer{sq.Expr(sql+" AS "+n.Name, args...)}, nil
	default:
		sql, args, err := r.render(n)
		if err != nil {
			return nil, err
		}
		return []sq.Sqlizer{sq.Expr(sql, args...)}, nil
	}
}

func (r *renderer) render(e queryir.Expr) (string, []any, error) {
	switch n := queryir.Unwrap(e).(type) {
	case nil:
		return "", nil, ir.NewInvalidQuery("missing expression")

	case *queryir.Column:
		return r.qualifier(n.Source) + "." + n.Name, nil, nil

	case *queryir.EntityRef:
		return r.qualifier(n.Source) + "." + n.Source.Entity.Identity, nil, nil

	case *queryir.Literal:
		if ir.IsNull(n.Value) {
			return "NULL", nil, nil
		}
		p, err := ir.ToParam(n.Value)
		if err != nil {
			return "", nil, err
		}
		return "?", []any{p}, nil

	case *queryir.Binary:
		l, largs, err := r.operand(n.Op, n.Left)
		if err != nil {
			return "", nil, err
		}
		rs, rargs, err := r.operand(n.Op, n.Right)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s %s", l, n.Op, rs), append(largs, rargs...), nil

	case *queryir.Unary:
		sql, args, err := r.render(n.Operand)
		if err != nil {
			return "", nil, err
		}
		if compound(n.Operand) {
			sql = "(" + sql + ")"
		}
		if n.Op == queryir.UnaryNot {
			return "NOT " + sql, args, nil
		}
		return sql + " " + string(n.Op), args, nil

	case *queryir.Between:
		var b fragments
		b.add(r.wrapped(n.Operand))
		b.add(r.wrapped(n.Low))
		b.add(r.wrapped(n.High))
		if b.err != nil {
			return "", nil, b.err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", b.sql[0], b.sql[1], b.sql[2]), b.args, nil

	case *queryir.In:
		return r.renderIn(n)

	case *queryir.Func:
		var b fragments
		for _, a := range n.Args {
			b.add(r.render(a))
		}
		if b.err != nil {
			return "", nil, b.err
		}
		list := strings.Join(b.sql, ", ")
		switch {
		case n.Name == queryir.FuncText:
			return fmt.Sprintf("CAST(%s AS TEXT)", list), b.args, nil
		case n.Distinct:
			return fmt.Sprintf("%s(DISTINCT %s)", n.Name, list), b.args, nil
		default:
			return fmt.Sprintf("%s(%s)", n.Name, list), b.args, nil
		}

	case *queryir.Case:
		return r.renderCase(n)

	case *queryir.Subquery:
		sb, err := r.c.selectFor(n.Spec, r, nested)
		if err != nil {
			return "", nil, err
		}
		sql, args, err := sb.ToSql()
		if err != nil {
			return "", nil, err
		}
		return "(" + sql + ")", args, nil

	case *queryir.Template:
		var args []any
		var renderErr error
		out, err := queryir.ExpandTemplate(n.Format, len(n.Args), func(i int) string {
			sql, a, err := r.render(n.Args[i])
			if err != nil && renderErr == nil {
				renderErr = err
			}
			args = append(args, a...)
			return sql
		})
		if err != nil {
			return "", nil, ir.NewInvalidQuery(err.Error())
		}
		if renderErr != nil {
			return "", nil, renderErr
		}
		return out, args, nil

	case *queryir.Alias:
		return r.render(n.Expr)

	default:
		return "", nil, fmt.Errorf("unsupported expression %T", n)
	}
}

func (r *renderer) renderIn(n *queryir.In) (string, []any, error) {
	sql, args, err := r.wrapped(n.Operand)
	if err != nil {
		return "", nil, err
	}
	op := "IN"
	if n.Negate {
		op = "NOT IN"
	}

	if len(n.Values) == 1 {
		if _, ok := queryir.Unwrap(n.Values[0]).(*queryir.Subquery); ok {
			sub, subArgs, err := r.render(n.Values[0])
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%s %s %s", sql, op, sub), append(args, subArgs...), nil
		}
	}
	if len(n.Values) == 0 {
		// Membership in an empty list is never true.
		if n.Negate {
			return "1 = 1", nil, nil
		}
		return "0 = 1", nil, nil
	}

	var b fragments
	for _, v := range n.Values {
		b.add(r.render(v))
	}
	if b.err != nil {
		return "", nil, b.err
	}
	return fmt.Sprintf("%s %s (%s)", sql, op, strings.Join(b.sql, ", ")), append(args, b.args...), nil
}

func (r *renderer) renderCase(n *queryir.Case) (string, []any, error) {
	var b fragments
	var sql strings.Builder
	sql.WriteString("CASE")
	if n.Operand != nil {
		b.add(r.wrapped(n.Operand))
		if b.err == nil {
			sql.WriteString(" " + b.last())
		}
	}
	for _, w := range n.Whens {
		b.add(r.render(w.Cond))
		cond := b.last()
		b.add(r.render(w.Result))
		if b.err != nil {
			return "", nil, b.err
		}
		fmt.Fprintf(&sql, " WHEN %s THEN %s", cond, b.last())
	}
	if n.Else != nil {
		b.add(r.render(n.Else))
		if b.err != nil {
			return "", nil, b.err
		}
		sql.WriteString(" ELSE " + b.last())
	}
	if b.err != nil {
		return "", nil, b.err
	}
	sql.WriteString(" END")
	return sql.String(), b.args, nil
}

// operand renders a child of a binary operator, parenthesized unless
// precedence makes the grouping explicit.
func (r *renderer) operand(parent queryir.Op, child queryir.Expr) (string, []any, error) {
	sql, args, err := r.render(child)
	if err != nil {
		return "", nil, err
	}
	if needsParens(parent, queryir.Unwrap(child)) {
		sql = "(" + sql + ")"
	}
	return sql, args, nil
}

// wrapped renders e, parenthesized when it is a compound expression.
func (r *renderer) wrapped(e queryir.Expr) (string, []any, error) {
	sql, args, err := r.render(e)
	if err != nil {
		return "", nil, err
	}
	if compound(e) {
		sql = "(" + sql + ")"
	}
	return sql, args, nil
}

func needsParens(parent queryir.Op, child queryir.Expr) bool {
	switch c := child.(type) {
	case *queryir.Binary:
		if c.Op == parent && parent.Associative() {
			return false
		}
		// Comparisons bind tighter than AND and OR.
		if parent.Logical() && !c.Op.Logical() {
			return false
		}
		return true
	case *queryir.Unary, *queryir.Between, *queryir.In:
		return !parent.Logical()
	}
	return false
}

func compound(e queryir.Expr) bool {
	switch queryir.Unwrap(e).(type) {
	case *queryir.Binary, *queryir.Unary, *queryir.Between, *queryir.In:
		return true
	}
	return false
}

// fragments accumulates rendered parts and the first error.
type fragments struct {
	sql  []string
	args []any
	err  error
}

func (f *fragments) add(sql string, args []any, err error) {
	if f.err != nil {
		return
	}
	if err != nil {
		f.err = err
		return
	}
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args...)
}

func (f *fragments) last() string {
	if len(f.sql) == 0 {
		return ""
	}
	return f.sql[len(f.sql)-1]
}
