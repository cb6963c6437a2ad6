package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Results is one page of a query together with the total row count.
type Results[T any] struct {
	Total  int64
	Limit  int64
	Offset int64
	Items  []T
}

// Empty reports whether the page holds no items.
func (r Results[T]) Empty() bool { return len(r.Items) == 0 }

// Fetch returns every matching row. An empty result is an empty slice, never nil.
func (q *Query[T]) Fetch(ctx context.Context) ([]T, error) {
	spec, err := q.freeze()
	if err != nil {
		return nil, err
	}
	return q.fetch(q.f.session(ctx), spec)
}

// FetchOne returns the single matching row. found is false when no row
// matches; more than one match fails with TOO_MANY_RESULTS. At most two
// rows are read.
func (q *Query[T]) FetchOne(ctx context.Context) (T, bool, error) {
	var zero T
	spec, err := q.freeze()
	if err != nil {
		return zero, false, err
	}
	if spec.Limit == 0 || spec.Limit > 2 {
		spec.Limit = 2
	}
	items, err := q.fetch(q.f.session(ctx), spec)
	if err != nil {
		return zero, false, err
	}
	switch len(items) {
	case 0:
		return zero, false, nil
	case 1:
		return items[0], true, nil
	default:
		return zero, false, ir.NewTooManyResults(len(items))
	}
}

// FetchFirst returns the first row in query order.
func (q *Query[T]) FetchFirst(ctx context.Context) (T, bool, error) {
	var zero T
	spec, err := q.freeze()
	if err != nil {
		return zero, false, err
	}
	spec.Limit = 1
	items, err := q.fetch(q.f.session(ctx), spec)
	if err != nil || len(items) == 0 {
		return zero, false, err
	}
	return items[0], true, nil
}

// FetchCount returns the number of rows the query matches, ignoring
// offset, limit and order.
func (q *Query[T]) FetchCount(ctx context.Context) (int64, error) {
	spec, err := q.freeze()
	if err != nil {
		return 0, err
	}
	return q.f.count(q.f.session(ctx), spec)
}

// FetchResults returns the requested page and the total count. When the
// backend supports snapshots, both statements observe the same data.
func (q *Query[T]) FetchResults(ctx context.Context) (Results[T], error) {
	spec, err := q.freeze()
	if err != nil {
		return Results[T]{}, err
	}

	res := Results[T]{Limit: spec.Limit, Offset: spec.Offset}
	err = q.f.snapshot(q.f.session(ctx), func(ctx context.Context) error {
		total, err := q.f.count(ctx, spec)
		if err != nil {
			return err
		}
		items, err := q.fetch(ctx, spec)
		if err != nil {
			return err
		}
		res.Total, res.Items = total, items
		return nil
	})
	if err != nil {
		return Results[T]{}, err
	}
	return res, nil
}

func (q *Query[T]) fetch(ctx context.Context, spec *queryir.QuerySpec) ([]T, error) {
	sql, params, err := q.f.translator.Translate(spec)
	if err != nil {
		return nil, translateError(err)
	}
	raw, err := q.f.rows(ctx, "fetch", sql, params)
	if err != nil {
		return nil, err
	}

	lay := layoutOf(spec)
	hashed := q.f.logger.Enabled(ctx, slog.LevelDebug)
	var decoded [][]ir.IRValue
	out := make([]T, 0, len(raw))
	for i, row := range raw {
		t, err := lay.tuple(row)
		if err != nil {
			return nil, ir.NewBackendError(fmt.Sprintf("decode row %d", i), err)
		}
		if hashed {
			decoded = append(decoded, flatten(t))
		}
		v, err := q.proj.Map(t)
		if err != nil {
			return nil, ir.NewBackendError(fmt.Sprintf("map row %d", i), err)
		}
		out = append(out, v)
	}
	if hashed {
		q.f.logResult(ctx, sql, params, decoded)
	}
	return out, nil
}

func flatten(t projection.Tuple) []ir.IRValue {
	var vals []ir.IRValue
	for i := 0; i < t.Len(); i++ {
		vals = append(vals, t.Group(i)...)
	}
	return vals
}

func (f *Factory) count(ctx context.Context, spec *queryir.QuerySpec) (int64, error) {
	sql, params, err := f.translator.TranslateCount(spec)
	if err != nil {
		return 0, translateError(err)
	}
	raw, err := f.rows(ctx, "count", sql, params)
	if err != nil {
		return 0, err
	}
	if len(raw) != 1 || len(raw[0]) != 1 {
		return 0, ir.NewBackendError("count", fmt.Errorf("count returned %d rows", len(raw)))
	}
	v, err := ir.FromDriver(raw[0][0], ir.TypeInt)
	if err != nil {
		return 0, ir.NewBackendError("count", err)
	}
	n, _, err := ir.AsInt(v)
	return n, err
}

// layout describes how the flat columns of a result row group into select
// items and fetch-joined entities. It mirrors the column order the
// translator emits.
type layout struct {
	items   []queryir.Expr
	groups  [][]ir.Type
	fetched []fetchGroup
}

type fetchGroup struct {
	key   string
	types []ir.Type
}

func layoutOf(spec *queryir.QuerySpec) layout {
	l := layout{items: spec.Select}
	for _, item := range spec.Select {
		if ref, ok := queryir.Unwrap(item).(*queryir.EntityRef); ok {
			l.groups = append(l.groups, entityTypes(ref.Source))
			continue
		}
		l.groups = append(l.groups, []ir.Type{item.Type()})
	}
	for _, j := range spec.Joins {
		if j.Fetch && j.Path != nil {
			l.fetched = append(l.fetched, fetchGroup{
				key:   projection.FetchKey(j.Path.Owner, j.Path.Relation.Name),
				types: entityTypes(j.Target),
			})
		}
	}
	return l
}

func entityTypes(s *queryir.Source) []ir.Type {
	types := make([]ir.Type, len(s.Entity.Columns))
	for i, c := range s.Entity.Columns {
		types[i] = c.Type
	}
	return types
}

func (l layout) width() int {
	n := 0
	for _, g := range l.groups {
		n += len(g)
	}
	for _, g := range l.fetched {
		n += len(g.types)
	}
	return n
}

func (l layout) tuple(row []any) (projection.Tuple, error) {
	if len(row) != l.width() {
		return projection.Tuple{}, ir.NewArityMismatch(l.width(), len(row))
	}

	pos := 0
	next := func(types []ir.Type) ([]ir.IRValue, error) {
		vals := make([]ir.IRValue, len(types))
		for i, t := range types {
			v, err := ir.FromDriver(row[pos], t)
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", pos, err)
			}
			vals[i] = v
			pos++
		}
		return vals, nil
	}

	values := make([][]ir.IRValue, len(l.groups))
	for i, g := range l.groups {
		vals, err := next(g)
		if err != nil {
			return projection.Tuple{}, err
		}
		values[i] = vals
	}

	var fetched map[string][]ir.IRValue
	for _, g := range l.fetched {
		vals, err := next(g.types)
		if err != nil {
			return projection.Tuple{}, err
		}
		if fetched == nil {
			fetched = make(map[string][]ir.IRValue, len(l.fetched))
		}
		fetched[g.key] = vals
	}
	return projection.NewTuple(l.items, values, fetched), nil
}
