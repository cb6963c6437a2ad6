package projection

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Ctor describes a positional constructor of T.
type Ctor[T any] struct {
	Name   string
	Params []ir.Type
	New    func(args []ir.IRValue) (T, error)
}

// Constructor binds exprs to the parameters of c, in order.
//
// The arity and the type of every argument are checked here, so a
// mismatched projection fails before any row is fetched.
func Constructor[T any](c Ctor[T], exprs ...queryir.Expr) (Projection[T], error) {
	if len(exprs) != len(c.Params) {
		err := ir.NewArityMismatch(len(c.Params), len(exprs))
		err.Details["constructor"] = c.Name
		return nil, err
	}
	for i, e := range exprs {
		if !ir.Assignable(e.Type(), c.Params[i]) {
			return nil, ir.NewTypeMismatch(fmt.Sprintf(
				"%s argument %d: cannot pass %s as %s", c.Name, i, e.Type(), c.Params[i]))
		}
	}

	return Func[T]{Items: exprs, MapFun: func(t Tuple) (T, error) {
		args := make([]ir.IRValue, len(exprs))
		for i := range exprs {
			args[i] = t.At(i)
		}
		return c.New(args)
	}}, nil
}
