package queryir

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// caseChain accumulates branches shared by simple and searched cases.
// The first construction error is kept and reported by Otherwise or End;
// later calls are no-ops.
type caseChain struct {
	operand Expr
	whens   []When
	pending Expr
	result  ir.Type
	err     error
}

func (c *caseChain) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *caseChain) when(cond Expr) {
	if c.err != nil {
		return
	}
	if c.pending != nil {
		c.fail(ir.NewInvalidQuery("case: When called twice without Then"))
		return
	}
	c.pending = cond
}

func (c *caseChain) then(v any) {
	if c.err != nil {
		return
	}
	if c.pending == nil {
		c.fail(ir.NewInvalidQuery("case: Then without a preceding When"))
		return
	}
	res, err := c.branch(v)
	if err != nil {
		c.fail(err)
		return
	}
	c.whens = append(c.whens, When{Cond: c.pending, Result: res})
	c.pending = nil
}

// branch converts a result value and folds its type into the case type.
func (c *caseChain) branch(v any) (Expr, error) {
	res, err := Constant(v)
	if err != nil {
		return nil, err
	}
	res = Unwrap(res)
	if res == nil {
		return nil, ir.NewInvalidQuery("case: absent branch result")
	}
	t := res.Type()
	switch {
	case t == ir.TypeAny:
	case c.result == ir.TypeAny:
		c.result = t
	case c.result.Numeric() && t.Numeric():
		c.result = ir.ArithmeticResult(c.result, t)
	case c.result != t:
		return nil, ir.NewTypeMismatch(fmt.Sprintf("case branch yields %s, earlier branches yield %s", t, c.result))
	}
	return res, nil
}

func (c *caseChain) end(otherwise any, hasElse bool) (Expr, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.pending != nil {
		return nil, ir.NewInvalidQuery("case: When without Then")
	}
	if len(c.whens) == 0 {
		return nil, ir.NewInvalidQuery("case: no branches")
	}
	node := &Case{Operand: c.operand, Whens: c.whens}
	if hasElse {
		res, err := c.branch(otherwise)
		if err != nil {
			return nil, err
		}
		node.Else = res
	}
	node.T = c.result
	return node, nil
}

// SimpleCase is CASE operand WHEN value THEN result ... END.
type SimpleCase struct {
	chain caseChain
}

func newSimpleCase(operand Expr) *SimpleCase {
	return &SimpleCase{chain: caseChain{operand: Unwrap(operand)}}
}

// When adds a branch matching operand = v. v is a Go value or an Expr.
func (c *SimpleCase) When(v any) *SimpleCase {
	if c.chain.operand == nil {
		c.chain.fail(ir.NewTypeMismatch("case: absent operand"))
		return c
	}
	val, err := Constant(v)
	if err != nil {
		c.chain.fail(err)
		return c
	}
	val = Unwrap(val)
	if val == nil {
		c.chain.fail(ir.NewTypeMismatch("case: absent When value"))
		return c
	}
	if !ir.Comparable(c.chain.operand.Type(), val.Type()) {
		c.chain.fail(ir.NewTypeMismatch(fmt.Sprintf("case compares %s with %s", c.chain.operand.Type(), val.Type())))
		return c
	}
	c.chain.when(val)
	return c
}

// Then sets the result of the preceding When.
func (c *SimpleCase) Then(v any) *SimpleCase {
	c.chain.then(v)
	return c
}

// Otherwise closes the case with a default result.
func (c *SimpleCase) Otherwise(v any) (Expr, error) {
	return c.chain.end(v, true)
}

// End closes the case without a default; unmatched rows yield NULL.
func (c *SimpleCase) End() (Expr, error) {
	return c.chain.end(nil, false)
}

// SearchedCase is CASE WHEN predicate THEN result ... END.
type SearchedCase struct {
	chain caseChain
}

// NewCase starts a searched case.
func NewCase() *SearchedCase {
	return &SearchedCase{}
}

// When adds a branch guarded by cond. An absent predicate is an error here:
// a branch must test something.
func (c *SearchedCase) When(cond BoolExpr) *SearchedCase {
	if cond.Absent() {
		c.chain.fail(ir.NewInvalidQuery("case: When with an absent predicate"))
		return c
	}
	c.chain.when(Unwrap(cond))
	return c
}

// Then sets the result of the preceding When.
func (c *SearchedCase) Then(v any) *SearchedCase {
	c.chain.then(v)
	return c
}

// Otherwise closes the case with a default result.
func (c *SearchedCase) Otherwise(v any) (Expr, error) {
	return c.chain.end(v, true)
}

// End closes the case without a default; unmatched rows yield NULL.
func (c *SearchedCase) End() (Expr, error) {
	return c.chain.end(nil, false)
}
