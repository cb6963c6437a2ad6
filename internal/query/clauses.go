package query

import (
	"github.com/samber/lo"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// clauses accumulates a QuerySpec for the select and subquery builders.
// The first misuse is kept and reported by the terminal call.
type clauses struct {
	spec queryir.QuerySpec
	err  error
}

func (c *clauses) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *clauses) from(srcs []queryir.Sourced) {
	for _, s := range srcs {
		c.spec.From = append(c.spec.From, s.Src())
	}
}

func (c *clauses) join(kind queryir.JoinKind, path *queryir.RelationPath, target queryir.Sourced) {
	if target == nil {
		c.fail(ir.NewInvalidQuery("join without a target"))
		return
	}
	c.spec.Joins = append(c.spec.Joins, queryir.Join{Kind: kind, Target: target.Src(), Path: path})
}

// lastJoin returns the join that On and FetchJoin refine.
func (c *clauses) lastJoin(call string) (*queryir.Join, bool) {
	if len(c.spec.Joins) == 0 {
		c.fail(ir.NewInvalidQuery(call + " must follow a join"))
		return nil, false
	}
	return &c.spec.Joins[len(c.spec.Joins)-1], true
}

func (c *clauses) on(preds []queryir.BoolExpr) {
	if j, ok := c.lastJoin("On"); ok {
		j.On = queryir.And(append([]queryir.BoolExpr{j.On}, preds...)...)
	}
}

func (c *clauses) fetchJoin() {
	if j, ok := c.lastJoin("FetchJoin"); ok {
		j.Fetch = true
	}
}

func (c *clauses) where(preds []queryir.BoolExpr) {
	c.spec.Where = queryir.And(append([]queryir.BoolExpr{c.spec.Where}, preds...)...)
}

func (c *clauses) having(preds []queryir.BoolExpr) {
	c.spec.Having = queryir.And(append([]queryir.BoolExpr{c.spec.Having}, preds...)...)
}

func (c *clauses) groupBy(exprs []queryir.Expr) {
	c.spec.GroupBy = append(c.spec.GroupBy, lo.Map(exprs, func(e queryir.Expr, _ int) queryir.Expr {
		return queryir.Unwrap(e)
	})...)
}

func (c *clauses) orderBy(orders []queryir.Order) {
	c.spec.OrderBy = append(c.spec.OrderBy, orders...)
}

// freeze returns an independent copy of the accumulated spec.
func (c *clauses) freeze() (*queryir.QuerySpec, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.spec.Clone(), nil
}
