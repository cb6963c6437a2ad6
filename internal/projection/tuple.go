package projection

import (
	"github.com/shopspring/decimal"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Tuple is one result row grouped by select item.
//
// Scalar items hold one value; entity items hold one value per entity
// column. Fetched holds the columns of fetch-joined entities keyed by
// "ownerAlias.relation".
type Tuple struct {
	items   []queryir.Expr
	values  [][]ir.IRValue
	fetched map[string][]ir.IRValue
}

// NewTuple builds a tuple. values[i] holds the columns of items[i].
func NewTuple(items []queryir.Expr, values [][]ir.IRValue, fetched map[string][]ir.IRValue) Tuple {
	return Tuple{items: items, values: values, fetched: fetched}
}

// FetchKey names the fetched columns of relation on owner.
func FetchKey(owner *queryir.Source, relation string) string {
	return owner.Alias + "." + relation
}

// Len returns the number of select items.
func (t Tuple) Len() int { return len(t.items) }

// Items returns the select items in order.
func (t Tuple) Items() []queryir.Expr { return t.items }

// At returns the value of item i, or NULL when i is out of range.
// For entity items it returns the identity column.
func (t Tuple) At(i int) ir.IRValue {
	if i < 0 || i >= len(t.values) || len(t.values[i]) == 0 {
		return ir.IRNull{}
	}
	return t.values[i][0]
}

// Group returns every column value of item i.
func (t Tuple) Group(i int) []ir.IRValue {
	if i < 0 || i >= len(t.values) {
		return nil
	}
	return t.values[i]
}

// Index returns the position of e in the select list, matched by
// canonical form, or -1.
func (t Tuple) Index(e queryir.Expr) int {
	want := queryir.Unwrap(e).String()
	for i, item := range t.items {
		if queryir.Unwrap(item).String() == want {
			return i
		}
	}
	return -1
}

// Get returns the value selected for e.
func (t Tuple) Get(e queryir.Expr) (ir.IRValue, bool) {
	i := t.Index(e)
	if i < 0 {
		return ir.IRNull{}, false
	}
	return t.At(i), true
}

// GetString returns the string selected for e; false when NULL or not selected.
func (t Tuple) GetString(e queryir.Expr) (string, bool) {
	v, ok := t.Get(e)
	if !ok {
		return "", false
	}
	s, ok, err := ir.AsString(v)
	return s, ok && err == nil
}

// GetInt returns the integer selected for e; false when NULL or not selected.
func (t Tuple) GetInt(e queryir.Expr) (int64, bool) {
	v, ok := t.Get(e)
	if !ok {
		return 0, false
	}
	n, ok, err := ir.AsInt(v)
	return n, ok && err == nil
}

// GetDecimal returns the number selected for e; false when NULL or not selected.
func (t Tuple) GetDecimal(e queryir.Expr) (decimal.Decimal, bool) {
	v, ok := t.Get(e)
	if !ok {
		return decimal.Zero, false
	}
	d, ok, err := ir.AsDecimal(v)
	return d, ok && err == nil
}

// Slice returns the items [from, to) as a tuple sharing the fetched columns.
func (t Tuple) Slice(from, to int) Tuple {
	return Tuple{items: t.items[from:to], values: t.values[from:to], fetched: t.fetched}
}

// Fetched returns the columns fetched for key.
func (t Tuple) Fetched(key string) ([]ir.IRValue, bool) {
	v, ok := t.fetched[key]
	return v, ok
}
