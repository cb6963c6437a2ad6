package query

import (
	"context"
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Mutation builds a bulk UPDATE or DELETE.
//
// Bulk statements run directly against the backend. Entities materialized
// before the statement keep their old values; reload them afterwards.
type Mutation struct {
	f    *Factory
	spec queryir.MutatingSpec
}

// Update starts a bulk update of target.
func (f *Factory) Update(target queryir.Sourced) *Mutation {
	return &Mutation{f: f, spec: queryir.MutatingSpec{Kind: queryir.Update, Target: target.Src()}}
}

// Delete starts a bulk delete from target.
func (f *Factory) Delete(target queryir.Sourced) *Mutation {
	return &Mutation{f: f, spec: queryir.MutatingSpec{Kind: queryir.Delete, Target: target.Src()}}
}

// Set assigns value to the column of path. value is a Go literal, nil for
// NULL, or an expression over the target row such as member.Age.Add(1).
// A value that does not fit the column fails here with TYPE_MISMATCH and
// leaves m unchanged.
func (m *Mutation) Set(path queryir.Expr, value any) (*Mutation, error) {
	col, ok := queryir.Unwrap(path).(*queryir.Column)
	if !ok {
		return m, ir.NewInvalidQuery(fmt.Sprintf("set target %v is not a column", path))
	}
	clause, err := queryir.NewSetClause(col, value)
	if err != nil {
		return m, err
	}
	m.spec.Set = append(m.spec.Set, clause)
	return m, nil
}

// SetNull assigns NULL to the column of path.
func (m *Mutation) SetNull(path queryir.Expr) (*Mutation, error) {
	return m.Set(path, queryir.Null())
}

// Where adds filter predicates, combined with AND.
func (m *Mutation) Where(preds ...queryir.BoolExpr) *Mutation {
	m.spec.Where = queryir.And(append([]queryir.BoolExpr{m.spec.Where}, preds...)...)
	return m
}

// All allows the statement to affect every row when no predicate is given.
// Without it, a statement with no where-predicate fails with
// UNBOUNDED_MUTATION.
func (m *Mutation) All() *Mutation {
	m.spec.AllRows = true
	return m
}

// Execute runs the statement and returns the number of affected rows.
func (m *Mutation) Execute(ctx context.Context) (int64, error) {
	sql, params, err := m.f.translator.TranslateMutating(m.spec.Clone())
	if err != nil {
		return 0, translateError(err)
	}
	return m.f.mutate(m.f.session(ctx), m.spec.Kind.String(), sql, params)
}
