package testutil

import (
	"context"
	"embed"
	"fmt"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/helloworldkim/querydsl/internal/entity"
	"github.com/helloworldkim/querydsl/internal/store"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// Fixture is a set of teams and members described in YAML.
type Fixture struct {
	Teams   []TeamFixture   `yaml:"teams"`
	Members []MemberFixture `yaml:"members"`
}

type TeamFixture struct {
	Name string `yaml:"name"`
}

// MemberFixture describes one member. Team names a team of the same
// fixture, or of a fixture persisted earlier into the same Seeded.
type MemberFixture struct {
	Username *string `yaml:"username"`
	Age      int64   `yaml:"age"`
	Team     string  `yaml:"team"`
}

// Persister stores entities and assigns their identities.
// Implemented by store.Store.
type Persister interface {
	PersistTeam(ctx context.Context, t *entity.Team) error
	PersistMember(ctx context.Context, m *entity.Member) error
}

// Seeded holds the persisted entities with their generated identities.
type Seeded struct {
	Teams   map[string]*entity.Team
	Members []*entity.Member
}

// Member returns the first persisted member with the given username.
func (s *Seeded) Member(username string) *entity.Member {
	for _, m := range s.Members {
		if m.Username != nil && *m.Username == username {
			return m
		}
	}
	return nil
}

// LoadFixture reads fixtures/<name>.yaml.
func LoadFixture(name string) (*Fixture, error) {
	data, err := fixtureFS.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", name, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", name, err)
	}
	return &f, nil
}

// Persist stores the fixture's teams, then its members, in file order.
// into may be nil; passing the result of an earlier Persist lets members
// refer to teams persisted before.
func (f *Fixture) Persist(ctx context.Context, p Persister, into *Seeded) (*Seeded, error) {
	if into == nil {
		into = &Seeded{Teams: make(map[string]*entity.Team)}
	}
	for _, tf := range f.Teams {
		t := &entity.Team{Name: tf.Name}
		if err := p.PersistTeam(ctx, t); err != nil {
			return nil, err
		}
		into.Teams[tf.Name] = t
	}
	for _, mf := range f.Members {
		m := &entity.Member{Username: mf.Username, Age: mf.Age}
		if mf.Team != "" {
			t, ok := into.Teams[mf.Team]
			if !ok {
				return nil, fmt.Errorf("member %v: unknown team %q", mf.Username, mf.Team)
			}
			m.Team = entity.RefOf(t)
		}
		if err := p.PersistMember(ctx, m); err != nil {
			return nil, err
		}
		into.Members = append(into.Members, m)
	}
	return into, nil
}

// NewStore opens an in-memory store that is closed when the test ends.
func NewStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Seed persists the named fixtures into p, in order.
func Seed(t testing.TB, p Persister, names ...string) *Seeded {
	t.Helper()
	var seeded *Seeded
	for _, name := range names {
		f, err := LoadFixture(name)
		if err != nil {
			t.Fatalf("load fixture: %v", err)
		}
		seeded, err = f.Persist(context.Background(), p, seeded)
		if err != nil {
			t.Fatalf("persist fixture %s: %v", name, err)
		}
	}
	return seeded
}

// MembersStore returns an in-memory store holding teamA (member1, member2)
// and teamB (member3, member4).
func MembersStore(t testing.TB) (*store.Store, *Seeded) {
	t.Helper()
	s := NewStore(t)
	return s, Seed(t, s, "members")
}
