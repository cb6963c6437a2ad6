package queryir

import (
	"fmt"
	"strings"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// NullsOrder controls where NULLs sort within one order-by clause.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// Order is one order-by clause.
type Order struct {
	Expr  Expr
	Desc  bool
	Nulls NullsOrder
}

// Asc orders by e ascending.
func Asc(e Expr) Order { return Order{Expr: Unwrap(e)} }

// Desc orders by e descending.
func Desc(e Expr) Order { return Order{Expr: Unwrap(e), Desc: true} }

// NullsFirst returns o with NULLs placed before all values.
func (o Order) NullsFirst() Order {
	o.Nulls = NullsFirst
	return o
}

// NullsLast returns o with NULLs placed after all values.
func (o Order) NullsLast() Order {
	o.Nulls = NullsLast
	return o
}

func (o Order) String() string {
	s := o.Expr.String()
	if o.Desc {
		s += " DESC"
	} else {
		s += " ASC"
	}
	switch o.Nulls {
	case NullsFirst:
		s += " NULLS FIRST"
	case NullsLast:
		s += " NULLS LAST"
	}
	return s
}

// JoinKind is the join flavor.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

func (k JoinKind) String() string {
	if k == LeftJoin {
		return "LEFT JOIN"
	}
	return "JOIN"
}

// Join is one entry of the join list.
//
// Path is the relationship followed, nil for a join between unrelated
// entities; such a join must carry an On predicate. Fetch marks the target
// for eager materialization alongside the owner.
type Join struct {
	Kind   JoinKind
	Target *Source
	Path   *RelationPath
	On     BoolExpr
	Fetch  bool
}

// QuerySpec is the accumulated description of a select statement.
//
// Joins keep declaration order. Where and Having are absent when no present
// predicate was supplied. A Limit of zero means unlimited.
type QuerySpec struct {
	Select   []Expr
	From     []*Source
	Joins    []Join
	Where    BoolExpr
	GroupBy  []Expr
	Having   BoolExpr
	OrderBy  []Order
	Offset   int64
	Limit    int64
	Distinct bool
}

// Clone returns a copy whose slices can be modified independently.
// Expression nodes are immutable and shared.
func (q *QuerySpec) Clone() *QuerySpec {
	c := *q
	c.Select = append([]Expr(nil), q.Select...)
	c.From = append([]*Source(nil), q.From...)
	c.Joins = append([]Join(nil), q.Joins...)
	c.GroupBy = append([]Expr(nil), q.GroupBy...)
	c.OrderBy = append([]Order(nil), q.OrderBy...)
	return &c
}

// Sources returns every source in scope: the from list, then join targets.
func (q *QuerySpec) Sources() []*Source {
	out := append([]*Source(nil), q.From...)
	for _, j := range q.Joins {
		out = append(out, j.Target)
	}
	return out
}

// Grouped reports whether the query folds rows: it has a group-by list or
// an aggregate select item.
func (q *QuerySpec) Grouped() bool {
	if len(q.GroupBy) > 0 {
		return true
	}
	for _, e := range q.Select {
		if IsAggregate(e) {
			return true
		}
	}
	return false
}

// String renders a canonical, dialect-free form of the spec.
func (q *QuerySpec) String() string {
	var b strings.Builder
	b.WriteString("select ")
	if q.Distinct {
		b.WriteString("distinct ")
	}
	b.WriteString(joinExprs(q.Select))

	froms := make([]string, len(q.From))
	for i, s := range q.From {
		froms[i] = s.Entity.Name + " " + s.Alias
	}
	b.WriteString(" from " + strings.Join(froms, ", "))

	for _, j := range q.Joins {
		fmt.Fprintf(&b, " %s ", strings.ToLower(j.Kind.String()))
		if j.Fetch {
			b.WriteString("fetch ")
		}
		if j.Path != nil {
			b.WriteString(j.Path.String() + " ")
		}
		b.WriteString(j.Target.Entity.Name + " " + j.Target.Alias)
		if !j.On.Absent() {
			b.WriteString(" on " + j.On.String())
		}
	}
	if !q.Where.Absent() {
		b.WriteString(" where " + q.Where.String())
	}
	if len(q.GroupBy) > 0 {
		b.WriteString(" group by " + joinExprs(q.GroupBy))
	}
	if !q.Having.Absent() {
		b.WriteString(" having " + q.Having.String())
	}
	if len(q.OrderBy) > 0 {
		orders := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			orders[i] = o.String()
		}
		b.WriteString(" order by " + strings.Join(orders, ", "))
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " offset %d", q.Offset)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " limit %d", q.Limit)
	}
	return b.String()
}

// MutationKind distinguishes bulk statements.
type MutationKind int

const (
	Update MutationKind = iota
	Delete
)

func (k MutationKind) String() string {
	if k == Delete {
		return "delete"
	}
	return "update"
}

// SetClause assigns Value to Column for every affected row. Value may
// reference other columns of the same row; it is evaluated by the backend.
type SetClause struct {
	Column *Column
	Value  Expr
}

// MutatingSpec is the accumulated description of a bulk update or delete.
//
// A spec without a where-predicate affects every row, and is only valid
// when AllRows was set explicitly.
type MutatingSpec struct {
	Kind    MutationKind
	Target  *Source
	Set     []SetClause
	Where   BoolExpr
	AllRows bool
}

// Clone returns a copy whose set list can be modified independently.
func (m *MutatingSpec) Clone() *MutatingSpec {
	c := *m
	c.Set = append([]SetClause(nil), m.Set...)
	return &c
}

// NewSetClause builds a set clause after checking that value fits column.
func NewSetClause(col *Column, value any) (SetClause, error) {
	v, err := Constant(value)
	if err != nil {
		return SetClause{}, err
	}
	v = Unwrap(v)
	if v == nil {
		return SetClause{}, ir.NewInvalidQuery(fmt.Sprintf("set %s: absent value", col))
	}
	if !ir.Assignable(v.Type(), col.T) {
		return SetClause{}, ir.NewTypeMismatch(fmt.Sprintf("cannot assign %s to %s column %s", v.Type(), col.T, col))
	}
	return SetClause{Column: col, Value: v}, nil
}
