package queryir

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// StringExpr, NumberExpr and BoolExpr are typed facades over Expr.
//
// Their methods only accept operands of a compatible static type, so the
// Go compiler rejects comparing a string column with a number. Dynamic
// callers use Compare, Arithmetic and Concat, which check types at
// construction and return TYPE_MISMATCH.
//
// The zero BoolExpr is the absent predicate: combinators skip it.
type (
	StringExpr struct{ Expr }
	NumberExpr struct{ Expr }
	BoolExpr   struct{ Expr }
)

// Typed is implemented by the facades; Rewrap puts a node back behind the
// same facade. Generic helpers (subqueries, aliases) use it to keep the
// static type of their input.
type Typed[E any] interface {
	Expr
	Rewrap(Expr) E
}

func (StringExpr) Rewrap(e Expr) StringExpr { return StringExpr{Unwrap(e)} }
func (NumberExpr) Rewrap(e Expr) NumberExpr { return NumberExpr{Unwrap(e)} }
func (BoolExpr) Rewrap(e Expr) BoolExpr     { return BoolExpr{Unwrap(e)} }

// Str returns a string literal.
func Str(s string) StringExpr {
	v, _ := ir.FromGo(s)
	return StringExpr{&Literal{Value: v, T: ir.TypeString}}
}

// Int returns an integer literal.
func Int(n int64) NumberExpr {
	return NumberExpr{&Literal{Value: ir.IRInt(n), T: ir.TypeInt}}
}

// Dec returns a decimal literal.
func Dec(d decimal.Decimal) NumberExpr {
	return NumberExpr{&Literal{Value: ir.IRDecimal{Decimal: d}, T: ir.TypeDecimal}}
}

// Bool returns a boolean literal.
func Bool(b bool) BoolExpr {
	return BoolExpr{&Literal{Value: ir.IRBool(b), T: ir.TypeBool}}
}

// Null returns the NULL literal.
func Null() Expr {
	return &Literal{Value: ir.IRNull{}, T: ir.TypeAny}
}

// Constant converts a Go value into a literal expression.
func Constant(v any) (Expr, error) {
	if e, ok := v.(Expr); ok {
		return e, nil
	}
	val, err := ir.FromGo(v)
	if err != nil {
		return nil, ir.NewTypeMismatch(err.Error())
	}
	return &Literal{Value: val, T: ir.TypeOf(val)}, nil
}

// Compare builds a comparison, checking operand types.
func Compare(op Op, l, r Expr) (BoolExpr, error) {
	if !op.Comparison() {
		return BoolExpr{}, ir.NewInvalidQuery(fmt.Sprintf("%s is not a comparison operator", op))
	}
	lt, rt := l.Type(), r.Type()
	if op == OpLike && !(stringLike(lt) && stringLike(rt)) {
		return BoolExpr{}, ir.NewTypeMismatch(fmt.Sprintf("LIKE needs string operands, got %s and %s", lt, rt))
	}
	if !ir.Comparable(lt, rt) {
		return BoolExpr{}, ir.NewTypeMismatch(fmt.Sprintf("cannot compare %s with %s", lt, rt))
	}
	return compare(op, l, r), nil
}

// Arithmetic builds a numeric operation, checking operand types.
func Arithmetic(op Op, l, r Expr) (NumberExpr, error) {
	if !op.Arithmetic() {
		return NumberExpr{}, ir.NewInvalidQuery(fmt.Sprintf("%s is not an arithmetic operator", op))
	}
	if !numberLike(l.Type()) || !numberLike(r.Type()) {
		return NumberExpr{}, ir.NewTypeMismatch(fmt.Sprintf("arithmetic needs numeric operands, got %s and %s", l.Type(), r.Type()))
	}
	return arithmetic(op, l, r), nil
}

// Concat builds a string concatenation, checking operand types.
func Concat(l, r Expr) (StringExpr, error) {
	if !stringLike(l.Type()) || !stringLike(r.Type()) {
		return StringExpr{}, ir.NewTypeMismatch(fmt.Sprintf("concat needs string operands, got %s and %s", l.Type(), r.Type()))
	}
	return concat(l, r), nil
}

// ToString puts e behind the string facade if its type allows it.
func ToString(e Expr) (StringExpr, error) {
	if !stringLike(e.Type()) {
		return StringExpr{}, ir.NewTypeMismatch(fmt.Sprintf("expected string expression, got %s", e.Type()))
	}
	return StringExpr{Unwrap(e)}, nil
}

// ToNumber puts e behind the number facade if its type allows it.
func ToNumber(e Expr) (NumberExpr, error) {
	if !numberLike(e.Type()) {
		return NumberExpr{}, ir.NewTypeMismatch(fmt.Sprintf("expected numeric expression, got %s", e.Type()))
	}
	return NumberExpr{Unwrap(e)}, nil
}

// ToBool puts e behind the boolean facade if its type allows it.
func ToBool(e Expr) (BoolExpr, error) {
	if t := e.Type(); t != ir.TypeBool && t != ir.TypeAny {
		return BoolExpr{}, ir.NewTypeMismatch(fmt.Sprintf("expected boolean expression, got %s", t))
	}
	return BoolExpr{Unwrap(e)}, nil
}

// As aliases any typed expression, keeping its facade.
func As[E Typed[E]](e E, name string) E {
	return e.Rewrap(&Alias{Expr: Unwrap(e), Name: name})
}

// Count counts non-null values of e.
func Count(e Expr) NumberExpr {
	return NumberExpr{&Func{Name: FuncCount, Args: []Expr{Unwrap(e)}, T: ir.TypeInt}}
}

// CountDistinct counts distinct non-null values of e.
func CountDistinct(e Expr) NumberExpr {
	return NumberExpr{&Func{Name: FuncCount, Args: []Expr{Unwrap(e)}, Distinct: true, T: ir.TypeInt}}
}

// ---- string ----

func (s StringExpr) Eq(v string) BoolExpr          { return compare(OpEq, s, Str(v)) }
func (s StringExpr) EqExpr(o StringExpr) BoolExpr  { return compare(OpEq, s, o) }
func (s StringExpr) Ne(v string) BoolExpr          { return compare(OpNe, s, Str(v)) }
func (s StringExpr) NeExpr(o StringExpr) BoolExpr  { return compare(OpNe, s, o) }
func (s StringExpr) Gt(v string) BoolExpr          { return compare(OpGt, s, Str(v)) }
func (s StringExpr) Lt(v string) BoolExpr          { return compare(OpLt, s, Str(v)) }
func (s StringExpr) Like(pattern string) BoolExpr  { return compare(OpLike, s, Str(pattern)) }
func (s StringExpr) IsNull() BoolExpr              { return isNull(s, UnaryIsNull) }
func (s StringExpr) IsNotNull() BoolExpr           { return isNull(s, UnaryIsNotNull) }
func (s StringExpr) InQuery(sub StringExpr) BoolExpr { return in(s, []Expr{sub}, false) }

func (s StringExpr) In(vs ...string) BoolExpr {
	vals := make([]Expr, len(vs))
	for i, v := range vs {
		vals[i] = Str(v)
	}
	return in(s, vals, false)
}

func (s StringExpr) NotIn(vs ...string) BoolExpr {
	vals := make([]Expr, len(vs))
	for i, v := range vs {
		vals[i] = Str(v)
	}
	return in(s, vals, true)
}

// Concat appends another string expression.
func (s StringExpr) Concat(o StringExpr) StringExpr { return concat(s, o) }

// Append appends a string literal.
func (s StringExpr) Append(v string) StringExpr { return concat(s, Str(v)) }

func (s StringExpr) Lower() StringExpr { return StringExpr{scalarFunc(FuncLower, ir.TypeString, s)} }
func (s StringExpr) Upper() StringExpr { return StringExpr{scalarFunc(FuncUpper, ir.TypeString, s)} }
func (s StringExpr) Length() NumberExpr {
	return NumberExpr{scalarFunc(FuncLength, ir.TypeInt, s)}
}

func (s StringExpr) Max() StringExpr   { return StringExpr{aggregate(FuncMax, ir.TypeString, s)} }
func (s StringExpr) Min() StringExpr   { return StringExpr{aggregate(FuncMin, ir.TypeString, s)} }
func (s StringExpr) Count() NumberExpr { return Count(s) }

func (s StringExpr) As(name string) StringExpr { return As(s, name) }
func (s StringExpr) Asc() Order                { return Asc(s) }
func (s StringExpr) Desc() Order               { return Desc(s) }

// When starts a simple case over s.
func (s StringExpr) When(v string) *SimpleCase { return newSimpleCase(s).When(v) }

// ---- number ----

func (n NumberExpr) Eq(v int64) BoolExpr          { return compare(OpEq, n, Int(v)) }
func (n NumberExpr) EqExpr(o NumberExpr) BoolExpr { return compare(OpEq, n, o) }
func (n NumberExpr) Ne(v int64) BoolExpr          { return compare(OpNe, n, Int(v)) }
func (n NumberExpr) NeExpr(o NumberExpr) BoolExpr { return compare(OpNe, n, o) }
func (n NumberExpr) Gt(v int64) BoolExpr          { return compare(OpGt, n, Int(v)) }
func (n NumberExpr) GtExpr(o NumberExpr) BoolExpr { return compare(OpGt, n, o) }
func (n NumberExpr) Goe(v int64) BoolExpr         { return compare(OpGoe, n, Int(v)) }
func (n NumberExpr) GoeExpr(o NumberExpr) BoolExpr {
	return compare(OpGoe, n, o)
}
func (n NumberExpr) Lt(v int64) BoolExpr          { return compare(OpLt, n, Int(v)) }
func (n NumberExpr) LtExpr(o NumberExpr) BoolExpr { return compare(OpLt, n, o) }
func (n NumberExpr) Loe(v int64) BoolExpr         { return compare(OpLoe, n, Int(v)) }
func (n NumberExpr) LoeExpr(o NumberExpr) BoolExpr {
	return compare(OpLoe, n, o)
}
func (n NumberExpr) IsNull() BoolExpr    { return isNull(n, UnaryIsNull) }
func (n NumberExpr) IsNotNull() BoolExpr { return isNull(n, UnaryIsNotNull) }

// Between is inclusive on both ends.
func (n NumberExpr) Between(lo, hi int64) BoolExpr {
	return BoolExpr{&Between{Operand: Unwrap(n), Low: Unwrap(Int(lo)), High: Unwrap(Int(hi))}}
}

func (n NumberExpr) In(vs ...int64) BoolExpr {
	vals := make([]Expr, len(vs))
	for i, v := range vs {
		vals[i] = Int(v)
	}
	return in(n, vals, false)
}

func (n NumberExpr) NotIn(vs ...int64) BoolExpr {
	vals := make([]Expr, len(vs))
	for i, v := range vs {
		vals[i] = Int(v)
	}
	return in(n, vals, true)
}

// InQuery tests membership in a single-column subquery.
func (n NumberExpr) InQuery(sub NumberExpr) BoolExpr { return in(n, []Expr{sub}, false) }

func (n NumberExpr) Add(v int64) NumberExpr           { return arithmetic(OpAdd, n, Int(v)) }
func (n NumberExpr) AddExpr(o NumberExpr) NumberExpr  { return arithmetic(OpAdd, n, o) }
func (n NumberExpr) Subtract(v int64) NumberExpr      { return arithmetic(OpSub, n, Int(v)) }
func (n NumberExpr) Multiply(v int64) NumberExpr      { return arithmetic(OpMul, n, Int(v)) }
func (n NumberExpr) MultiplyExpr(o NumberExpr) NumberExpr {
	return arithmetic(OpMul, n, o)
}

func (n NumberExpr) Sum() NumberExpr   { return NumberExpr{aggregate(FuncSum, n.Type(), n)} }
func (n NumberExpr) Avg() NumberExpr   { return NumberExpr{aggregate(FuncAvg, ir.TypeDecimal, n)} }
func (n NumberExpr) Max() NumberExpr   { return NumberExpr{aggregate(FuncMax, n.Type(), n)} }
func (n NumberExpr) Min() NumberExpr   { return NumberExpr{aggregate(FuncMin, n.Type(), n)} }
func (n NumberExpr) Count() NumberExpr { return Count(n) }

// StringValue renders the number as text.
func (n NumberExpr) StringValue() StringExpr {
	return StringExpr{scalarFunc(FuncText, ir.TypeString, n)}
}

func (n NumberExpr) As(name string) NumberExpr { return As(n, name) }
func (n NumberExpr) Asc() Order                { return Asc(n) }
func (n NumberExpr) Desc() Order               { return Desc(n) }

// When starts a simple case over n.
func (n NumberExpr) When(v int64) *SimpleCase { return newSimpleCase(n).When(v) }

// ---- bool ----

// Absent reports whether b is the zero predicate.
func (b BoolExpr) Absent() bool { return b.Expr == nil }

// And conjoins b with o; an absent side yields the other.
func (b BoolExpr) And(o BoolExpr) BoolExpr { return And(b, o) }

// Or disjoins b with o; an absent side yields the other.
func (b BoolExpr) Or(o BoolExpr) BoolExpr { return Or(b, o) }

// Not negates b. The negation of the absent predicate is absent.
func (b BoolExpr) Not() BoolExpr { return Not(b) }

func (b BoolExpr) As(name string) BoolExpr { return As(b, name) }

// ---- constructors without checks; callers guarantee types ----

func compare(op Op, l, r Expr) BoolExpr {
	return BoolExpr{&Binary{Op: op, Left: Unwrap(l), Right: Unwrap(r), T: ir.TypeBool}}
}

func arithmetic(op Op, l, r Expr) NumberExpr {
	return NumberExpr{&Binary{Op: op, Left: Unwrap(l), Right: Unwrap(r), T: numericResult(l.Type(), r.Type())}}
}

func concat(l, r Expr) StringExpr {
	return StringExpr{&Binary{Op: OpConcat, Left: Unwrap(l), Right: Unwrap(r), T: ir.TypeString}}
}

func isNull(e Expr, op UnaryOp) BoolExpr {
	return BoolExpr{&Unary{Op: op, Operand: Unwrap(e)}}
}

func in(e Expr, values []Expr, negate bool) BoolExpr {
	unwrapped := make([]Expr, len(values))
	for i, v := range values {
		unwrapped[i] = Unwrap(v)
	}
	return BoolExpr{&In{Operand: Unwrap(e), Values: unwrapped, Negate: negate}}
}

func aggregate(name FuncName, t ir.Type, arg Expr) *Func {
	return &Func{Name: name, Args: []Expr{Unwrap(arg)}, T: t}
}

func scalarFunc(name FuncName, t ir.Type, arg Expr) *Func {
	return &Func{Name: name, Args: []Expr{Unwrap(arg)}, T: t}
}

func numericResult(a, b ir.Type) ir.Type {
	switch {
	case a == ir.TypeAny:
		return b
	case b == ir.TypeAny:
		return a
	}
	return ir.ArithmeticResult(a, b)
}

func stringLike(t ir.Type) bool { return t == ir.TypeString || t == ir.TypeAny }
func numberLike(t ir.Type) bool { return t.Numeric() || t == ir.TypeAny }
