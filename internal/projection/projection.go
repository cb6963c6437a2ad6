// Package projection maps result rows to target shapes.
//
// A Projection names the select items it needs and maps one Tuple to a
// value. Strategies:
//   - Tuples: the raw row
//   - String, NullableString, Int, Decimal, Value: one scalar item
//   - Bean: setters from a Descriptor, by item label
//   - Fields: field pointers from a Descriptor, by item label
//   - Constructor: positional parameters, checked when built
//   - Of2, Of3: static composition checked by the compiler
//
// Items whose label has no mapping are ignored. The label of an item is its
// alias, or the attribute name of a plain column; other unaliased items
// have no label and never map by name.
package projection

import (
	"github.com/shopspring/decimal"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Projection maps a row to T.
type Projection[T any] interface {
	// Exprs returns the select items, in the order Map expects them.
	Exprs() []queryir.Expr
	Map(t Tuple) (T, error)
}

// Func adapts an item list and a mapping function to a Projection.
type Func[T any] struct {
	Items  []queryir.Expr
	MapFun func(Tuple) (T, error)
}

func (f Func[T]) Exprs() []queryir.Expr { return f.Items }
func (f Func[T]) Map(t Tuple) (T, error) { return f.MapFun(t) }

// Tuples selects exprs and returns rows unchanged.
func Tuples(exprs ...queryir.Expr) Projection[Tuple] {
	return Func[Tuple]{Items: exprs, MapFun: func(t Tuple) (Tuple, error) { return t, nil }}
}

func scalar[T any](e queryir.Expr, conv func(ir.IRValue) (T, error)) Projection[T] {
	return Func[T]{
		Items:  []queryir.Expr{e},
		MapFun: func(t Tuple) (T, error) { return conv(t.At(0)) },
	}
}

// String selects one string item. NULL maps to "".
func String(e queryir.StringExpr) Projection[string] {
	return scalar(queryir.Expr(e), func(v ir.IRValue) (string, error) {
		s, _, err := ir.AsString(v)
		return s, err
	})
}

// NullableString selects one string item. NULL maps to nil.
func NullableString(e queryir.StringExpr) Projection[*string] {
	return scalar(queryir.Expr(e), func(v ir.IRValue) (*string, error) {
		s, ok, err := ir.AsString(v)
		if err != nil || !ok {
			return nil, err
		}
		return &s, nil
	})
}

// Int selects one integer item. NULL maps to 0.
func Int(e queryir.NumberExpr) Projection[int64] {
	return scalar(queryir.Expr(e), func(v ir.IRValue) (int64, error) {
		n, _, err := ir.AsInt(v)
		return n, err
	})
}

// Decimal selects one numeric item. NULL maps to zero.
func Decimal(e queryir.NumberExpr) Projection[decimal.Decimal] {
	return scalar(queryir.Expr(e), func(v ir.IRValue) (decimal.Decimal, error) {
		d, _, err := ir.AsDecimal(v)
		return d, err
	})
}

// Value selects one item of any type.
func Value(e queryir.Expr) Projection[ir.IRValue] {
	return scalar(e, func(v ir.IRValue) (ir.IRValue, error) { return v, nil })
}

// Of2 composes two projections. The select list is a's items followed by b's.
func Of2[A, B, T any](a Projection[A], b Projection[B], build func(A, B) T) Projection[T] {
	na := len(a.Exprs())
	items := append(append([]queryir.Expr(nil), a.Exprs()...), b.Exprs()...)
	return Func[T]{Items: items, MapFun: func(t Tuple) (T, error) {
		var zero T
		va, err := a.Map(t.Slice(0, na))
		if err != nil {
			return zero, err
		}
		vb, err := b.Map(t.Slice(na, t.Len()))
		if err != nil {
			return zero, err
		}
		return build(va, vb), nil
	}}
}

// Of3 composes three projections.
func Of3[A, B, C, T any](a Projection[A], b Projection[B], c Projection[C], build func(A, B, C) T) Projection[T] {
	na, nb := len(a.Exprs()), len(b.Exprs())
	items := append(append(append([]queryir.Expr(nil), a.Exprs()...), b.Exprs()...), c.Exprs()...)
	return Func[T]{Items: items, MapFun: func(t Tuple) (T, error) {
		var zero T
		va, err := a.Map(t.Slice(0, na))
		if err != nil {
			return zero, err
		}
		vb, err := b.Map(t.Slice(na, na+nb))
		if err != nil {
			return zero, err
		}
		vc, err := c.Map(t.Slice(na+nb, t.Len()))
		if err != nil {
			return zero, err
		}
		return build(va, vb, vc), nil
	}}
}
