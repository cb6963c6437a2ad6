package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// Expr is a node of the expression tree.
//
// This is a sealed interface: only types in this package implement it, so
// translators can switch exhaustively over the node kinds. Nodes are
// immutable once built.
//
// String returns the canonical form of the node. Two expressions with the
// same canonical form denote the same select item, which is how tuple
// lookups find their column.
type Expr interface {
	Type() ir.Type
	String() string
	exprNode()
}

// Op is a binary operator.
type Op string

const (
	OpEq     Op = "="
	OpNe     Op = "<>"
	OpGt     Op = ">"
	OpGoe    Op = ">="
	OpLt     Op = "<"
	OpLoe    Op = "<="
	OpLike   Op = "LIKE"
	OpAdd    Op = "+"
	OpSub    Op = "-"
	OpMul    Op = "*"
	OpDiv    Op = "/"
	OpConcat Op = "||"
	OpAnd    Op = "AND"
	OpOr     Op = "OR"
)

// Comparison reports whether o yields a boolean from two scalar operands.
func (o Op) Comparison() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGoe, OpLt, OpLoe, OpLike:
		return true
	}
	return false
}

// Arithmetic reports whether o is a numeric operator.
func (o Op) Arithmetic() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// Logical reports whether o combines predicates.
func (o Op) Logical() bool {
	return o == OpAnd || o == OpOr
}

// Associative reports whether chains of o need no grouping.
func (o Op) Associative() bool {
	switch o {
	case OpAnd, OpOr, OpAdd, OpMul, OpConcat:
		return true
	}
	return false
}

// UnaryOp is a prefix or postfix operator over one operand.
type UnaryOp string

const (
	UnaryNot       UnaryOp = "NOT"
	UnaryIsNull    UnaryOp = "IS NULL"
	UnaryIsNotNull UnaryOp = "IS NOT NULL"
)

// FuncName names a function call node.
type FuncName string

const (
	FuncCount  FuncName = "COUNT"
	FuncSum    FuncName = "SUM"
	FuncAvg    FuncName = "AVG"
	FuncMax    FuncName = "MAX"
	FuncMin    FuncName = "MIN"
	FuncLower  FuncName = "LOWER"
	FuncUpper  FuncName = "UPPER"
	FuncLength FuncName = "LENGTH"
	FuncText   FuncName = "TEXT" // rendered as a cast to text
)

// Aggregate reports whether the function folds many rows into one value.
func (f FuncName) Aggregate() bool {
	switch f {
	case FuncCount, FuncSum, FuncAvg, FuncMax, FuncMin:
		return true
	}
	return false
}

// Column references one stored column of a source.
type Column struct {
	Source *Source
	Name   string // SQL column name
	Field  string // attribute name
	T      ir.Type
}

func (*Column) exprNode()        {}
func (c *Column) Type() ir.Type  { return c.T }
func (c *Column) String() string { return c.Source.Alias + "." + c.Field }

// EntityRef selects a whole entity; translators expand it to its columns.
type EntityRef struct {
	Source *Source
}

func (*EntityRef) exprNode()        {}
func (*EntityRef) Type() ir.Type    { return ir.TypeEntity }
func (e *EntityRef) String() string { return e.Source.Alias }

// Literal is a constant bound as a statement parameter.
type Literal struct {
	Value ir.IRValue
	T     ir.Type
}

func (*Literal) exprNode()        {}
func (l *Literal) Type() ir.Type  { return l.T }
func (l *Literal) String() string { return ir.Format(l.Value) }

// Binary applies an infix operator.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
	T     ir.Type
}

func (*Binary) exprNode()       {}
func (b *Binary) Type() ir.Type { return b.T }
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Unary applies NOT, IS NULL or IS NOT NULL.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (*Unary) exprNode()     {}
func (*Unary) Type() ir.Type { return ir.TypeBool }
func (u *Unary) String() string {
	if u.Op == UnaryNot {
		return fmt.Sprintf("NOT %s", u.Operand)
	}
	return fmt.Sprintf("%s %s", u.Operand, u.Op)
}

// Between tests low <= operand <= high.
type Between struct {
	Operand Expr
	Low     Expr
	High    Expr
}

func (*Between) exprNode()     {}
func (*Between) Type() ir.Type { return ir.TypeBool }
func (b *Between) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", b.Operand, b.Low, b.High)
}

// In tests membership in a value list or in a single-column subquery.
type In struct {
	Operand Expr
	Values  []Expr
	Negate  bool
}

func (*In) exprNode()     {}
func (*In) Type() ir.Type { return ir.TypeBool }
func (in *In) String() string {
	op := "IN"
	if in.Negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", in.Operand, op, joinExprs(in.Values))
}

// Func is a scalar or aggregate function call.
type Func struct {
	Name     FuncName
	Args     []Expr
	Distinct bool
	T        ir.Type
}

func (*Func) exprNode()       {}
func (f *Func) Type() ir.Type { return f.T }
func (f *Func) String() string {
	if f.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", strings.ToLower(string(f.Name)), joinExprs(f.Args))
	}
	return fmt.Sprintf("%s(%s)", strings.ToLower(string(f.Name)), joinExprs(f.Args))
}

// When is one branch of a Case.
type When struct {
	Cond   Expr
	Result Expr
}

// Case evaluates branches in order and yields the first matching result.
// Operand is nil for a searched case. A nil Else yields NULL.
type Case struct {
	Operand Expr
	Whens   []When
	Else    Expr
	T       ir.Type
}

func (*Case) exprNode()       {}
func (c *Case) Type() ir.Type { return c.T }
func (c *Case) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	if c.Operand != nil {
		b.WriteString(" " + c.Operand.String())
	}
	for _, w := range c.Whens {
		fmt.Fprintf(&b, " WHEN %s THEN %s", w.Cond, w.Result)
	}
	if c.Else != nil {
		fmt.Fprintf(&b, " ELSE %s", c.Else)
	}
	b.WriteString(" END")
	return b.String()
}

// Subquery nests a query. Its type is the type of its single select item.
// Err records a failure while the nested query was built; Validate
// reports it.
type Subquery struct {
	Spec *QuerySpec
	T    ir.Type
	Err  error
}

func (*Subquery) exprNode()       {}
func (s *Subquery) Type() ir.Type { return s.T }
func (s *Subquery) String() string {
	return "(" + s.Spec.String() + ")"
}

// Template is a raw SQL fragment with {n} placeholders for its arguments.
type Template struct {
	Format string
	Args   []Expr
	T      ir.Type
}

func (*Template) exprNode()       {}
func (t *Template) Type() ir.Type { return t.T }
func (t *Template) String() string {
	out, _ := ExpandTemplate(t.Format, len(t.Args), func(i int) string { return t.Args[i].String() })
	return out
}

// Alias names a select item. Outside the select list it behaves as its
// inner expression.
type Alias struct {
	Expr Expr
	Name string
}

func (*Alias) exprNode()       {}
func (a *Alias) Type() ir.Type { return a.Expr.Type() }
func (a *Alias) String() string {
	return fmt.Sprintf("%s AS %s", a.Expr, a.Name)
}

// Unwrap strips typed facades so callers can switch on node types.
func Unwrap(e Expr) Expr {
	for {
		switch v := e.(type) {
		case StringExpr:
			e = v.Expr
		case NumberExpr:
			e = v.Expr
		case BoolExpr:
			e = v.Expr
		default:
			return e
		}
	}
}

// Label returns the name a projection maps an item to: the alias when one
// is given, otherwise the attribute name of a plain column.
func Label(e Expr) string {
	switch v := Unwrap(e).(type) {
	case *Alias:
		return v.Name
	case *Column:
		return v.Field
	}
	return ""
}

// ExpandTemplate substitutes {n} placeholders with render(n).
// It fails on placeholders outside [0, n).
func ExpandTemplate(format string, n int, render func(int) string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '{' {
			b.WriteByte(format[i])
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in template %q", format)
		}
		idx, err := strconv.Atoi(format[i+1 : i+end])
		if err != nil {
			return "", fmt.Errorf("bad placeholder %q in template %q", format[i:i+end+1], format)
		}
		if idx < 0 || idx >= n {
			return "", fmt.Errorf("placeholder {%d} out of range: template has %d arguments", idx, n)
		}
		b.WriteString(render(idx))
		i += end
	}
	return b.String(), nil
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
