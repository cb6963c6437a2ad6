package entity

import (
	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/queryir"
	"github.com/helloworldkim/querydsl/internal/schema"
)

// QMember is a typed query path over Member. Each alias is an independent
// source, so the same entity can appear twice in one query (subqueries,
// self joins).
type QMember struct {
	*queryir.Source

	ID       queryir.NumberExpr
	Username queryir.StringExpr
	Age      queryir.NumberExpr
}

// NewQMember returns a Member path. An empty alias uses the table name.
func NewQMember(alias string) *QMember {
	src := queryir.NewSource(schema.MustDefault().MustEntity("Member"), alias)
	return &QMember{
		Source:   src,
		ID:       queryir.NumberExpr{Expr: src.Col("id")},
		Username: queryir.StringExpr{Expr: src.Col("username")},
		Age:      queryir.NumberExpr{Expr: src.Col("age")},
	}
}

// Team is the member to team relation.
func (q *QMember) Team() *queryir.RelationPath { return q.Path("team") }

// Count counts members.
func (q *QMember) Count() queryir.NumberExpr { return queryir.Count(q.ID) }

// Exprs selects the whole entity.
func (q *QMember) Exprs() []queryir.Expr { return []queryir.Expr{q.Ref()} }

// Map decodes the member selected first in t, attaching its team when the
// team relation was fetch-joined.
func (q *QMember) Map(t projection.Tuple) (*Member, error) {
	return q.read(t, 0)
}

// Read decodes this member from a tuple that selected it.
func (q *QMember) Read(t projection.Tuple) (*Member, error) {
	i := t.Index(q.Ref())
	if i < 0 {
		return nil, ir.NewInvalidQuery("member " + q.Alias + " is not selected")
	}
	return q.read(t, i)
}

func (q *QMember) read(t projection.Tuple, i int) (*Member, error) {
	m, err := decode(memberDescriptor, q.Entity, t.Group(i))
	if err != nil || m == nil {
		return nil, err
	}
	if cols, ok := t.Fetched(projection.FetchKey(q.Source, "team")); ok {
		team, err := decode(teamDescriptor, schema.MustDefault().MustEntity("Team"), cols)
		if err != nil {
			return nil, err
		}
		m.Team.load(team)
	}
	return m, nil
}

// QTeam is a typed query path over Team.
type QTeam struct {
	*queryir.Source

	ID   queryir.NumberExpr
	Name queryir.StringExpr
}

// NewQTeam returns a Team path. An empty alias uses the table name.
func NewQTeam(alias string) *QTeam {
	src := queryir.NewSource(schema.MustDefault().MustEntity("Team"), alias)
	return &QTeam{
		Source: src,
		ID:     queryir.NumberExpr{Expr: src.Col("id")},
		Name:   queryir.StringExpr{Expr: src.Col("name")},
	}
}

// Members is the inverse team to member relation.
func (q *QTeam) Members() *queryir.RelationPath { return q.Path("members") }

// Count counts teams.
func (q *QTeam) Count() queryir.NumberExpr { return queryir.Count(q.ID) }

func (q *QTeam) Exprs() []queryir.Expr { return []queryir.Expr{q.Ref()} }

func (q *QTeam) Map(t projection.Tuple) (*Team, error) {
	return decode(teamDescriptor, q.Entity, t.Group(0))
}

// Read decodes this team from a tuple that selected it. An unmatched left
// join yields nil.
func (q *QTeam) Read(t projection.Tuple) (*Team, error) {
	i := t.Index(q.Ref())
	if i < 0 {
		return nil, ir.NewInvalidQuery("team " + q.Alias + " is not selected")
	}
	return decode(teamDescriptor, q.Entity, t.Group(i))
}
