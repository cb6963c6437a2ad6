// Package queryir is the typed expression model and query description layer.
//
// It is the abstraction boundary between the fluent query builder and the
// SQL translator:
//
//	[query builder] -> [QuerySpec / MutatingSpec] -> [querysql translator] -> SQL
//
// EXPRESSIONS:
//
// Expr is a sealed interface using the marker method pattern. Node kinds:
//   - Column, EntityRef: references to stored data
//   - Literal: a constant, bound as a parameter; NULL is rendered inline
//   - Binary, Unary, Between, In: operators
//   - Func: scalar and aggregate functions
//   - Case: simple and searched case/when
//   - Subquery: a nested QuerySpec
//   - Template: a raw SQL fragment with {n} placeholders
//   - Alias: a named select item
//
// Every node carries a static ir.Type. The typed facades StringExpr,
// NumberExpr and BoolExpr expose operations only for compatible operand
// types; Compare, Arithmetic and Concat perform the same checks at runtime
// for dynamically built expressions and fail with TYPE_MISMATCH.
//
// PREDICATES:
//
// The zero BoolExpr is the absent predicate. And, Or and BooleanBuilder skip
// absent entries, so optional filters can be passed straight through:
//
//	q.Where(usernameEq(name), ageEq(age)) // either may be absent
//
// SPECS:
//
// QuerySpec and MutatingSpec are plain values owned by one builder until a
// terminal call freezes a copy with Clone. Validate and ValidateMutating
// enforce the structural rules (join targets, aggregates outside where,
// explicit whole-table mutations) before any SQL is produced.
package queryir
