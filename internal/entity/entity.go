// Package entity holds the mapped entity structs and their typed query paths.
//
// Entities are plain values decoded from result rows. There is no identity
// map and no dirty checking: two fetches of the same row yield two
// independent structs. After a bulk update or delete, structs fetched
// earlier are stale and callers must fetch them again.
package entity

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/schema"
)

// Team groups members.
type Team struct {
	ID   int64
	Name string
}

// Member belongs to at most one team.
type Member struct {
	ID       int64
	Username *string
	Age      int64
	Team     Ref[Team]
}

// IsLoaded reports whether relation was materialized; it is true for team
// only when it came from a fetch join.
func (m *Member) IsLoaded(relation string) bool {
	return relation == "team" && m.Team.Loaded()
}

// TeamID returns the foreign key to store for the team reference. A loaded
// team supplies its current identity, so a team persisted after the member
// was built is still referenced correctly.
func (m *Member) TeamID() (int64, bool) {
	if t, ok := m.Team.Get(); ok {
		if t == nil {
			return 0, false
		}
		return t.ID, true
	}
	return m.Team.ID, m.Team.Present
}

// NewMember returns an unaffiliated member.
func NewMember(username string, age int64) *Member {
	return &Member{Username: &username, Age: age}
}

// NewTeamMember returns a member of team.
func NewTeamMember(username string, age int64, team *Team) *Member {
	m := NewMember(username, age)
	m.Team = RefOf(team)
	return m
}

// Ref is a many-to-one reference.
//
// A reference read without its target holds the foreign key only; Get
// reports it as not loaded. Nothing loads it later: fetch-join the
// relation to materialize it in the same round-trip.
type Ref[T any] struct {
	ID      int64
	Present bool // the foreign key is not NULL

	loaded bool
	value  *T
}

// RefOf returns a loaded reference to v. A nil v is an absent reference.
func RefOf[T any](v *T) Ref[T] {
	return Ref[T]{Present: v != nil, loaded: true, value: v}
}

// Loaded reports whether the target was materialized.
func (r Ref[T]) Loaded() bool { return r.loaded }

// Get returns the target and whether it was materialized. A loaded absent
// reference returns (nil, true).
func (r Ref[T]) Get() (*T, bool) { return r.value, r.loaded }

func (r *Ref[T]) scan(v ir.IRValue) error {
	id, ok, err := ir.AsInt(v)
	if err != nil {
		return err
	}
	r.ID, r.Present = id, ok
	return nil
}

func (r *Ref[T]) load(v *T) {
	r.loaded = true
	r.value = v
}

// IsLoaded reports whether relation of e was materialized by a fetch join.
// Entities without such a relation report false.
func IsLoaded(e any, relation string) bool {
	l, ok := e.(interface{ IsLoaded(string) bool })
	return ok && l.IsLoaded(relation)
}

var teamDescriptor = projection.NewDescriptor[Team]("Team").
	Field("id", func(t *Team) any { return &t.ID }).
	Field("name", func(t *Team) any { return &t.Name })

var memberDescriptor = projection.NewDescriptor[Member]("Member").
	Field("id", func(m *Member) any { return &m.ID }).
	Field("username", func(m *Member) any { return &m.Username }).
	Field("age", func(m *Member) any { return &m.Age }).
	Setter("team", func(m *Member, v ir.IRValue) error { return m.Team.scan(v) })

// decode reads one entity from its columns in schema order. A NULL
// identity (the unmatched side of a left join) decodes to nil.
func decode[T any](d *projection.Descriptor[T], e *schema.Entity, values []ir.IRValue) (*T, error) {
	if len(values) != len(e.Columns) {
		return nil, fmt.Errorf("decode %s: %w", e.Name, ir.NewArityMismatch(len(e.Columns), len(values)))
	}
	out := new(T)
	for i, col := range e.Columns {
		if col.Name == e.Identity && ir.IsNull(values[i]) {
			return nil, nil
		}
		if _, err := d.Apply(out, col.Field, values[i]); err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", e.Name, col.Field, err)
		}
	}
	return out, nil
}
