package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/helloworldkim/querydsl/internal/schema"
)

// Schema version tracking:
// 0 - empty database
// 1 - entity tables from the schema model
const currentSchemaVersion = 1

const defaultBusyTimeout = 5 * time.Second

// Store executes translated statements against SQLite.
type Store struct {
	db    *sqlx.DB
	model *schema.Model
}

type config struct {
	busyTimeout time.Duration
	model       *schema.Model
}

// Option configures Open.
type Option func(*config)

// WithBusyTimeout sets how long a statement waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) { c.busyTimeout = d }
}

// WithSchema creates the tables of m instead of the default model.
func WithSchema(m *schema.Model) Option {
	return func(c *config) { c.model = m }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - a busy timeout for lock contention (5 seconds unless overridden)
//   - foreign key enforcement
//
// ":memory:" opens a private in-memory database; it lives as long as the
// store's single connection.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.model == nil {
		m, err := schema.Default()
		if err != nil {
			return nil, fmt.Errorf("load default schema: %w", err)
		}
		cfg.model = m
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; one connection also keeps an in-memory
	// database alive and makes snapshots see a single session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, cfg.busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := runMigrations(db, cfg.model); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, model: cfg.model}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for direct queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Model returns the schema the tables were created from.
func (s *Store) Model() *schema.Model {
	return s.model
}

func applyPragmas(db *sqlx.DB, busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sqlx.DB, model *schema.Model) error {
	var version int
	if err := db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db, model); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 creates the entity tables. The DDL uses IF NOT EXISTS, so
// a database created by an older build is left as it is.
func migrateToV1(db *sqlx.DB, model *schema.Model) error {
	if _, err := db.Exec(model.DDL()); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.Get(&value, fmt.Sprintf("PRAGMA %s", name)); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// sessionKey carries the open snapshot transaction.
type sessionKey struct{}

type session struct {
	store *Store
	tx    *sqlx.Tx
}

// Snapshot runs fn inside one transaction. Every Execute and
// ExecuteMutating call made with the context passed to fn reads the same
// database state. The transaction commits when fn returns nil.
func (s *Store) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.session(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	if err := fn(context.WithValue(ctx, sessionKey{}, &session{store: s, tx: tx})); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *Store) session(ctx context.Context) (*session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session)
	return sess, ok && sess.store == s
}
