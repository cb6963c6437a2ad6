package queryir

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// StringTemplate builds a string-typed SQL fragment. Placeholders {0}, {1}
// ... refer to args, which may be expressions or Go literals:
//
//	queryir.StringTemplate("replace({0}, {1}, {2})", m.Username, "member", "M")
func StringTemplate(format string, args ...any) (StringExpr, error) {
	t, err := template(format, ir.TypeString, args)
	return StringExpr{t}, err
}

// NumberTemplate builds a numeric SQL fragment.
func NumberTemplate(format string, t ir.Type, args ...any) (NumberExpr, error) {
	if !t.Numeric() {
		return NumberExpr{}, ir.NewTypeMismatch(fmt.Sprintf("number template declared as %s", t))
	}
	tmpl, err := template(format, t, args)
	return NumberExpr{tmpl}, err
}

// BoolTemplate builds a boolean SQL fragment usable as a predicate.
func BoolTemplate(format string, args ...any) (BoolExpr, error) {
	t, err := template(format, ir.TypeBool, args)
	return BoolExpr{t}, err
}

func template(format string, t ir.Type, args []any) (Expr, error) {
	exprs := make([]Expr, len(args))
	for i, a := range args {
		e, err := Constant(a)
		if err != nil {
			return nil, err
		}
		if exprs[i] = Unwrap(e); exprs[i] == nil {
			return nil, ir.NewTypeMismatch(fmt.Sprintf("template argument %d is absent", i))
		}
	}
	if _, err := ExpandTemplate(format, len(exprs), func(int) string { return "" }); err != nil {
		return nil, ir.NewInvalidQuery(err.Error())
	}
	return &Template{Format: format, Args: exprs, T: t}, nil
}
