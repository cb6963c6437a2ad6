package queryir

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/schema"
)

// Walk visits e and its children depth-first. Returning false from fn skips
// the children of the current node. Subquery bodies are not entered; they
// are separate scopes.
func Walk(e Expr, fn func(Expr) bool) {
	e = Unwrap(e)
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *Between:
		Walk(n.Operand, fn)
		Walk(n.Low, fn)
		Walk(n.High, fn)
	case *In:
		Walk(n.Operand, fn)
		for _, v := range n.Values {
			Walk(v, fn)
		}
	case *Func:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Case:
		Walk(n.Operand, fn)
		for _, w := range n.Whens {
			Walk(w.Cond, fn)
			Walk(w.Result, fn)
		}
		Walk(n.Else, fn)
	case *Template:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Alias:
		Walk(n.Expr, fn)
	}
}

// IsAggregate reports whether e contains an aggregate function outside any
// subquery.
func IsAggregate(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if f, ok := n.(*Func); ok && f.Name.Aggregate() {
			found = true
		}
		return !found
	})
	return found
}

// Validate checks a query spec before translation.
//
// Rules:
//  1. The select list and the from list are non-empty
//  2. Every join has a relationship path or an on-predicate (UNSUPPORTED_JOIN)
//  3. A path join starts from a source already in scope and lands on the
//     relation's target entity
//  4. Fetch joins follow a many-to-one relationship path; collection
//     paths fail with UNSUPPORTED_JOIN
//  5. Where and on-predicates contain no aggregates
//  6. Every column belongs to a source in scope (or an enclosing query)
//  7. Nested subqueries obey the same rules
//
// Validate is a pure function with no side effects.
func Validate(q *QuerySpec) error {
	v := &validator{}
	v.validateQuery(q)
	return v.err
}

// ValidateMutating checks a bulk statement before translation. A statement
// without a where-predicate must have AllRows set (UNBOUNDED_MUTATION).
func ValidateMutating(m *MutatingSpec) error {
	v := &validator{}
	v.validateMutating(m)
	return v.err
}

// validator keeps the first error found during traversal.
type validator struct {
	err    error
	scopes [][]*Source
}

func (v *validator) fail(err error) {
	if v.err == nil {
		v.err = err
	}
}

func (v *validator) invalid(format string, args ...any) {
	v.fail(ir.NewInvalidQuery(fmt.Sprintf(format, args...)))
}

func (v *validator) validateQuery(q *QuerySpec) {
	if q == nil {
		v.invalid("nil query")
		return
	}
	if len(q.Select) == 0 {
		v.invalid("empty select list")
	}
	if len(q.From) == 0 {
		v.invalid("query has no from clause")
		return
	}

	scope := append([]*Source(nil), q.From...)
	v.scopes = append(v.scopes, scope)
	defer func() { v.scopes = v.scopes[:len(v.scopes)-1] }()

	for i, j := range q.Joins {
		v.validateJoin(i, j)
		scope = append(scope, j.Target)
		v.scopes[len(v.scopes)-1] = scope
		if !j.On.Absent() {
			v.validateExpr(j.On)
			if IsAggregate(j.On) {
				v.invalid("aggregate in on-predicate of join to %s", j.Target.Alias)
			}
		}
	}

	for _, e := range q.Select {
		v.validateExpr(e)
	}
	if !q.Where.Absent() {
		v.validateExpr(q.Where)
		if IsAggregate(q.Where) {
			v.invalid("aggregate in where-predicate; use Having")
		}
	}
	for _, e := range q.GroupBy {
		v.validateExpr(e)
	}
	if !q.Having.Absent() {
		v.validateExpr(q.Having)
	}
	for _, o := range q.OrderBy {
		v.validateExpr(o.Expr)
	}
	if q.Offset < 0 || q.Limit < 0 {
		v.invalid("negative offset or limit")
	}
}

func (v *validator) validateJoin(i int, j Join) {
	if j.Target == nil {
		v.invalid("join %d has no target", i)
		return
	}
	if j.Path == nil {
		if j.On.Absent() {
			v.fail(ir.NewUnsupportedJoin(j.Target.Alias))
		}
		if j.Fetch {
			v.invalid("fetch join to %s needs a relationship path", j.Target.Alias)
		}
		return
	}
	if !v.inScope(j.Path.Owner) {
		v.invalid("join path %s starts from a source that is not in scope", j.Path)
	}
	if j.Path.Relation.Target != j.Target.Entity.Name {
		v.invalid("join path %s leads to %s, not %s", j.Path, j.Path.Relation.Target, j.Target.Entity.Name)
	}
	if j.Fetch && j.Path.Relation.Kind == schema.OneToMany {
		v.fail(ir.NewUnsupportedFetchJoin(j.Path.String()))
	}
}

// validateExpr checks column scoping and recurses into subqueries.
func (v *validator) validateExpr(e Expr) {
	Walk(e, func(n Expr) bool {
		switch node := n.(type) {
		case *Column:
			if !v.inScope(node.Source) {
				v.invalid("column %s refers to a source that is not in scope", node)
			}
		case *EntityRef:
			if !v.inScope(node.Source) {
				v.invalid("entity %s is not in scope", node)
			}
		case *Subquery:
			if node.Err != nil {
				v.fail(node.Err)
				return false
			}
			v.validateQuery(node.Spec)
			if len(node.Spec.Select) != 1 {
				v.invalid("subquery must select exactly one item")
			}
		}
		return true
	})
}

func (v *validator) inScope(s *Source) bool {
	for _, scope := range v.scopes {
		for _, src := range scope {
			if src == s {
				return true
			}
		}
	}
	return false
}

func (v *validator) validateMutating(m *MutatingSpec) {
	if m == nil {
		v.invalid("nil statement")
		return
	}
	if m.Target == nil {
		v.invalid("%s has no target", m.Kind)
		return
	}
	v.scopes = [][]*Source{{m.Target}}

	switch m.Kind {
	case Update:
		if len(m.Set) == 0 {
			v.invalid("update of %s has no set clauses", m.Target.Alias)
		}
		for _, s := range m.Set {
			if s.Column.Source != m.Target {
				v.invalid("set %s: column does not belong to %s", s.Column, m.Target.Alias)
			}
			v.validateExpr(s.Value)
			if IsAggregate(s.Value) {
				v.invalid("set %s: aggregate value", s.Column)
			}
		}
	case Delete:
		if len(m.Set) > 0 {
			v.invalid("delete cannot carry set clauses")
		}
	}

	if m.Where.Absent() {
		if !m.AllRows {
			v.fail(ir.NewUnboundedMutation(m.Target.Alias))
		}
		return
	}
	v.validateExpr(m.Where)
	if IsAggregate(m.Where) {
		v.invalid("aggregate in where-predicate of %s", m.Kind)
	}
}
