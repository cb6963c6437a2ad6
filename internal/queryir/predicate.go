package queryir

import (
	"github.com/samber/lo"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// And conjoins the present predicates. Absent entries are skipped, so
// And(p, BoolExpr{}) is p. With no present predicate the result is absent.
func And(preds ...BoolExpr) BoolExpr {
	return fold(OpAnd, preds)
}

// Or disjoins the present predicates, skipping absent entries.
func Or(preds ...BoolExpr) BoolExpr {
	return fold(OpOr, preds)
}

// Not negates p. The negation of the absent predicate is absent.
func Not(p BoolExpr) BoolExpr {
	if p.Absent() {
		return p
	}
	return BoolExpr{&Unary{Op: UnaryNot, Operand: Unwrap(p)}}
}

func fold(op Op, preds []BoolExpr) BoolExpr {
	present := lo.Filter(preds, func(p BoolExpr, _ int) bool { return !p.Absent() })
	if len(present) == 0 {
		return BoolExpr{}
	}
	acc := Unwrap(present[0])
	for _, p := range present[1:] {
		acc = &Binary{Op: op, Left: acc, Right: Unwrap(p), T: ir.TypeBool}
	}
	return BoolExpr{acc}
}

// BooleanBuilder accumulates a predicate from optional conditions.
//
// It starts as the implicit "true": a builder that never received a present
// predicate contributes nothing to a where clause. Absent arguments are
// ignored by every method.
//
//	b := queryir.NewBooleanBuilder()
//	if name != nil {
//		b.And(m.Username.Eq(*name))
//	}
//	if age != nil {
//		b.And(m.Age.Eq(*age))
//	}
//	q.Where(b.Value())
type BooleanBuilder struct {
	pred BoolExpr
}

// NewBooleanBuilder returns a builder seeded with the conjunction of initial.
func NewBooleanBuilder(initial ...BoolExpr) *BooleanBuilder {
	return &BooleanBuilder{pred: And(initial...)}
}

// And narrows the accumulated predicate.
func (b *BooleanBuilder) And(p BoolExpr) *BooleanBuilder {
	b.pred = And(b.pred, p)
	return b
}

// Or widens the accumulated predicate. Or on an empty builder yields p
// alone; the implicit "true" is not materialized.
func (b *BooleanBuilder) Or(p BoolExpr) *BooleanBuilder {
	b.pred = Or(b.pred, p)
	return b
}

// AndNot narrows by the negation of p.
func (b *BooleanBuilder) AndNot(p BoolExpr) *BooleanBuilder {
	b.pred = And(b.pred, Not(p))
	return b
}

// AndAnyOf narrows by the disjunction of preds.
func (b *BooleanBuilder) AndAnyOf(preds ...BoolExpr) *BooleanBuilder {
	b.pred = And(b.pred, Or(preds...))
	return b
}

// Value returns the accumulated predicate, absent if nothing was added.
func (b *BooleanBuilder) Value() BoolExpr {
	return b.pred
}

// HasValue reports whether any present predicate was added.
func (b *BooleanBuilder) HasValue() bool {
	return !b.pred.Absent()
}
