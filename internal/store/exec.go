package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/helloworldkim/querydsl/internal/entity"
)

// ext returns the snapshot transaction carried by ctx, or the database.
func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if sess, ok := s.session(ctx); ok {
		return sess.tx
	}
	return s.db
}

// Execute runs a row-returning statement and returns every row as raw
// driver values, in result order. It returns an empty slice, never nil.
func (s *Store) Execute(ctx context.Context, query string, params []any) ([][]any, error) {
	rows, err := s.ext(ctx).QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := [][]any{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// ExecuteMutating runs an update or delete and returns the affected-row count.
func (s *Store) ExecuteMutating(ctx context.Context, stmt string, params []any) (int64, error) {
	res, err := s.ext(ctx).ExecContext(ctx, stmt, params...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PersistTeam inserts t and stores its generated identity in t.ID.
func (s *Store) PersistTeam(ctx context.Context, t *entity.Team) error {
	res, err := sqlx.NamedExecContext(ctx, s.ext(ctx),
		`INSERT INTO team (name) VALUES (:name)`,
		map[string]any{"name": t.Name})
	if err != nil {
		return fmt.Errorf("insert team %q: %w", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("team id: %w", err)
	}
	t.ID = id
	return nil
}

// PersistMember inserts m and stores its generated identity in m.ID.
// The team, when set, must already be persisted.
func (s *Store) PersistMember(ctx context.Context, m *entity.Member) error {
	var teamID any
	if id, ok := m.TeamID(); ok {
		teamID = id
	}
	var username any
	if m.Username != nil {
		username = *m.Username
	}

	res, err := sqlx.NamedExecContext(ctx, s.ext(ctx),
		`INSERT INTO member (username, age, team_id) VALUES (:username, :age, :team_id)`,
		map[string]any{"username": username, "age": m.Age, "team_id": teamID})
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("member id: %w", err)
	}
	m.ID = id
	return nil
}
