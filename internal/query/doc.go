// Package query is the fluent, typed entry point for reading and bulk
// modifying entities.
//
// A Factory binds a Backend and a Translator. Builders accumulate a
// queryir spec; terminal calls translate it to SQL, execute it and map the
// rows through a projection:
//
//	f := query.NewFactory(st)
//	member := entity.NewQMember("member")
//	members, err := query.SelectFrom(f, member).
//		Where(member.Username.Eq("member1"), member.Age.Between(10, 30)).
//		OrderBy(member.Age.Desc()).
//		Fetch(ctx)
//
// # Terminals
//
//   - Fetch: every row, never nil
//   - FetchOne: zero or one row; more fails with TOO_MANY_RESULTS. At most
//     two rows are read.
//   - FetchFirst: the first row in query order
//   - FetchCount: the row count, ignoring offset, limit and order
//   - FetchResults: one page plus the total, inside one backend snapshot
//
// Row order is deterministic: after the caller's order clauses, rows are
// ordered by the identity of every source in scope, and grouped rows by
// their group keys.
//
// # Bulk statements
//
// Update and Delete run one statement against the backend and return the
// affected-row count. Entities fetched before the statement are not
// refreshed.
//
// # Errors
//
// Query builder misuse is recorded and returned by the terminal call;
// nothing reaches the backend. Mutation.Set rejects a bad clause at once.
// Translation, driver and row decoding failures are ir.QueryError values
// with code BACKEND_EXECUTION wrapping the cause. A fetch join over a
// collection path fails with UNSUPPORTED_JOIN.
//
// # Logging
//
// Every statement is logged at Debug with its SQL, statement fingerprint
// and session token. The session token is shared by all statements of one
// terminal call, such as the count and page of FetchResults.
package query
