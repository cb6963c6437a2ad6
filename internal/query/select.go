package query

import (
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// EntityPath is a typed entity path that projects to its entity, such as
// *entity.QMember.
type EntityPath[T any] interface {
	queryir.Sourced
	projection.Projection[T]
}

// Query builds a select statement whose rows map to T.
//
// Chained calls modify the builder in place and return it. A builder
// belongs to one goroutine; each terminal call works on a copy of the
// accumulated spec, so a builder can be executed more than once.
type Query[T any] struct {
	clauses
	f    *Factory
	proj projection.Projection[T]
}

// Select starts a query mapping rows through p.
func Select[T any](f *Factory, p projection.Projection[T]) *Query[T] {
	q := &Query[T]{f: f, proj: p}
	q.spec.Select = p.Exprs()
	return q
}

// SelectFrom starts a query selecting the entity of path from path.
func SelectFrom[T any](f *Factory, path EntityPath[T]) *Query[T] {
	return Select[T](f, path).From(path)
}

// SelectTuple starts a query returning raw tuples of exprs.
func SelectTuple(f *Factory, exprs ...queryir.Expr) *Query[projection.Tuple] {
	return Select(f, projection.Tuples(exprs...))
}

// From adds sources. Several sources form a cross product, narrowed by Where
// (a theta join).
func (q *Query[T]) From(srcs ...queryir.Sourced) *Query[T] {
	q.from(srcs)
	return q
}

// Join adds an inner join along path, binding its target to alias.
func (q *Query[T]) Join(path *queryir.RelationPath, alias queryir.Sourced) *Query[T] {
	q.join(queryir.InnerJoin, path, alias)
	return q
}

// LeftJoin adds a left outer join along path.
func (q *Query[T]) LeftJoin(path *queryir.RelationPath, alias queryir.Sourced) *Query[T] {
	q.join(queryir.LeftJoin, path, alias)
	return q
}

// JoinEntity adds an inner join to an unrelated entity. It needs On.
func (q *Query[T]) JoinEntity(target queryir.Sourced) *Query[T] {
	q.join(queryir.InnerJoin, nil, target)
	return q
}

// LeftJoinEntity adds a left outer join to an unrelated entity. It needs On.
func (q *Query[T]) LeftJoinEntity(target queryir.Sourced) *Query[T] {
	q.join(queryir.LeftJoin, nil, target)
	return q
}

// On adds conditions to the most recent join.
func (q *Query[T]) On(preds ...queryir.BoolExpr) *Query[T] {
	q.on(preds)
	return q
}

// FetchJoin loads the target of the most recent join together with its owner.
func (q *Query[T]) FetchJoin() *Query[T] {
	q.fetchJoin()
	return q
}

// Where adds filter predicates, combined with AND. Absent predicates are
// skipped, so optional filters pass straight through.
func (q *Query[T]) Where(preds ...queryir.BoolExpr) *Query[T] {
	q.where(preds)
	return q
}

func (q *Query[T]) GroupBy(exprs ...queryir.Expr) *Query[T] {
	q.groupBy(exprs)
	return q
}

// Having adds group filter predicates, combined with AND.
func (q *Query[T]) Having(preds ...queryir.BoolExpr) *Query[T] {
	q.having(preds)
	return q
}

func (q *Query[T]) OrderBy(orders ...queryir.Order) *Query[T] {
	q.orderBy(orders)
	return q
}

// Offset skips the first n rows.
func (q *Query[T]) Offset(n int64) *Query[T] {
	q.spec.Offset = n
	return q
}

// Limit caps the result at n rows. Zero means unlimited.
func (q *Query[T]) Limit(n int64) *Query[T] {
	q.spec.Limit = n
	return q
}

func (q *Query[T]) Distinct() *Query[T] {
	q.spec.Distinct = true
	return q
}

// Spec returns a copy of the accumulated query, or the first builder error.
func (q *Query[T]) Spec() (*queryir.QuerySpec, error) {
	return q.freeze()
}
