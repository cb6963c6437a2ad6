package query

import (
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// SubQuery builds a nested query selecting one item of type E. Expr turns
// it into an expression usable in predicates and select lists.
//
//	memberSub := entity.NewQMember("memberSub")
//	oldest := query.Sub(memberSub.Age.Max()).From(memberSub).Expr()
//	query.SelectFrom(f, member).Where(member.Age.EqExpr(oldest))
//
// Sources of the enclosing query stay in scope, so a subquery may be
// correlated.
type SubQuery[E queryir.Typed[E]] struct {
	clauses
	item E
}

// Sub starts a subquery selecting item.
func Sub[E queryir.Typed[E]](item E) *SubQuery[E] {
	s := &SubQuery[E]{item: item}
	s.spec.Select = []queryir.Expr{item}
	return s
}

func (s *SubQuery[E]) From(srcs ...queryir.Sourced) *SubQuery[E] {
	s.from(srcs)
	return s
}

func (s *SubQuery[E]) Join(path *queryir.RelationPath, alias queryir.Sourced) *SubQuery[E] {
	s.join(queryir.InnerJoin, path, alias)
	return s
}

func (s *SubQuery[E]) LeftJoin(path *queryir.RelationPath, alias queryir.Sourced) *SubQuery[E] {
	s.join(queryir.LeftJoin, path, alias)
	return s
}

func (s *SubQuery[E]) JoinEntity(target queryir.Sourced) *SubQuery[E] {
	s.join(queryir.InnerJoin, nil, target)
	return s
}

func (s *SubQuery[E]) On(preds ...queryir.BoolExpr) *SubQuery[E] {
	s.on(preds)
	return s
}

func (s *SubQuery[E]) Where(preds ...queryir.BoolExpr) *SubQuery[E] {
	s.where(preds)
	return s
}

func (s *SubQuery[E]) GroupBy(exprs ...queryir.Expr) *SubQuery[E] {
	s.groupBy(exprs)
	return s
}

func (s *SubQuery[E]) Having(preds ...queryir.BoolExpr) *SubQuery[E] {
	s.having(preds)
	return s
}

func (s *SubQuery[E]) OrderBy(orders ...queryir.Order) *SubQuery[E] {
	s.orderBy(orders)
	return s
}

func (s *SubQuery[E]) Limit(n int64) *SubQuery[E] {
	s.spec.Limit = n
	return s
}

func (s *SubQuery[E]) Offset(n int64) *SubQuery[E] {
	s.spec.Offset = n
	return s
}

func (s *SubQuery[E]) Distinct() *SubQuery[E] {
	s.spec.Distinct = true
	return s
}

// Expr returns the subquery as an expression with the static type of its
// select item. A builder misuse travels with the expression and fails the
// enclosing query when it is validated.
func (s *SubQuery[E]) Expr() E {
	return s.item.Rewrap(&queryir.Subquery{Spec: s.spec.Clone(), T: s.item.Type(), Err: s.err})
}
