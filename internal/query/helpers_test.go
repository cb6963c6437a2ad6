package query_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/helloworldkim/querydsl/internal/entity"
	"github.com/helloworldkim/querydsl/internal/query"
	"github.com/helloworldkim/querydsl/internal/store"
	"github.com/helloworldkim/querydsl/internal/testutil"
)

// env is a factory over an in-memory store seeded with teamA (member1,
// member2) and teamB (member3, member4). Every statement passes through
// rec.
type env struct {
	f      *query.Factory
	store  *store.Store
	rec    *testutil.Recorder
	seeded *testutil.Seeded

	member *entity.QMember
	team   *entity.QTeam
}

func newEnv(t *testing.T, fixtures ...string) *env {
	t.Helper()
	s, seeded := testutil.MembersStore(t)
	if len(fixtures) > 0 {
		more := testutil.Seed(t, s, fixtures...)
		seeded.Members = append(seeded.Members, more.Members...)
	}
	rec := testutil.NewRecorder(s)
	return &env{
		f: query.NewFactory(rec,
			query.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			query.WithTokenGenerator(testutil.NewSessions("")),
		),
		store:  s,
		rec:    rec,
		seeded: seeded,
		member: entity.NewQMember("member"),
		team:   entity.NewQTeam("team"),
	}
}

func usernames(members []*entity.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		if m.Username == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = *m.Username
	}
	return out
}

func ages(members []*entity.Member) []int64 {
	out := make([]int64, len(members))
	for i, m := range members {
		out[i] = m.Age
	}
	return out
}
