// Package store is the SQLite execution backend for translated queries.
//
// It runs parameterized statements produced by querysql and returns raw
// driver values; decoding into typed values belongs to the caller, which
// knows the static type of every column.
//
// # Snapshots
//
// Snapshot opens a transaction and carries it in the context. Execute and
// ExecuteMutating called with that context run inside the transaction, so
// a count and a page fetched together observe the same rows.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout: 5000 ms unless WithBusyTimeout overrides it
//   - foreign_keys=ON: member.team_id must reference an existing team
//   - one connection: SQLite has one writer, and ":memory:" databases
//     live exactly as long as their connection
//
// Tables are created from the schema model (schema.Model.DDL) and the
// schema version is tracked in PRAGMA user_version.
package store
