package querysql

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
	"github.com/helloworldkim/querydsl/internal/schema"
)

type memberPath struct {
	src      *queryir.Source
	username queryir.StringExpr
	age      queryir.NumberExpr
}

func newMember(alias string) memberPath {
	src := queryir.NewSource(schema.MustDefault().MustEntity("Member"), alias)
	return memberPath{
		src:      src,
		username: queryir.StringExpr{Expr: src.Col("username")},
		age:      queryir.NumberExpr{Expr: src.Col("age")},
	}
}

type teamPath struct {
	src  *queryir.Source
	name queryir.StringExpr
}

func newTeam(alias string) teamPath {
	src := queryir.NewSource(schema.MustDefault().MustEntity("Team"), alias)
	return teamPath{src: src, name: queryir.StringExpr{Expr: src.Col("name")}}
}

func subquery(spec *queryir.QuerySpec, t ir.Type) queryir.NumberExpr {
	return queryir.NumberExpr{Expr: &queryir.Subquery{Spec: spec, T: t}}
}

func mustExpr(t *testing.T, e queryir.Expr, err error) queryir.Expr {
	t.Helper()
	require.NoError(t, err)
	return e
}

func assertGolden(t *testing.T, name, sql string, params []any) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(fmt.Sprintf("%s\n-- params: %v\n", sql, params)))
}

func TestTranslate(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")
	team := newTeam("team")

	tests := []struct {
		name   string
		spec   *queryir.QuerySpec
		sql    string
		params []any
	}{
		{
			name: "entity select with filter",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Where:  m.username.Eq("member1"),
			},
			sql:    "SELECT member.id, member.username, member.age, member.team_id FROM member WHERE member.username = ? ORDER BY member.id ASC",
			params: []any{"member1"},
		},
		{
			name: "and chain is flat",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username},
				From:   []*queryir.Source{m.src},
				Where:  queryir.And(m.username.Eq("member1"), m.age.Between(10, 30), m.age.Ne(20)),
			},
			sql:    "SELECT member.username FROM member WHERE member.username = ? AND member.age BETWEEN ? AND ? AND member.age <> ? ORDER BY member.id ASC",
			params: []any{"member1", int64(10), int64(30), int64(20)},
		},
		{
			name: "or under and is grouped",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username},
				From:   []*queryir.Source{m.src},
				Where:  m.age.Gt(10).And(m.username.Eq("a").Or(m.username.IsNull())),
			},
			sql:    "SELECT member.username FROM member WHERE member.age > ? AND (member.username = ? OR member.username IS NULL) ORDER BY member.id ASC",
			params: []any{int64(10), "a"},
		},
		{
			name: "user order precedes tie-break",
			spec: &queryir.QuerySpec{
				Select:  []queryir.Expr{m.src.Ref()},
				From:    []*queryir.Source{m.src},
				Where:   m.age.Eq(100),
				OrderBy: []queryir.Order{m.age.Desc(), m.username.Asc().NullsLast()},
			},
			sql:    "SELECT member.id, member.username, member.age, member.team_id FROM member WHERE member.age = ? ORDER BY member.age DESC, member.username ASC NULLS LAST, member.id ASC",
			params: []any{int64(100)},
		},
		{
			name: "paging",
			spec: &queryir.QuerySpec{
				Select:  []queryir.Expr{m.username},
				From:    []*queryir.Source{m.src},
				OrderBy: []queryir.Order{m.username.Desc()},
				Offset:  1,
				Limit:   2,
			},
			sql: "SELECT member.username FROM member ORDER BY member.username DESC, member.id ASC LIMIT 2 OFFSET 1",
		},
		{
			name: "offset without limit",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username},
				From:   []*queryir.Source{m.src},
				Offset: 2,
			},
			sql: "SELECT member.username FROM member ORDER BY member.id ASC LIMIT -1 OFFSET 2",
		},
		{
			name: "global aggregates need no order",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.age.Count(), m.age.Sum(), m.age.Avg(), m.age.Max(), m.age.Min()},
				From:   []*queryir.Source{m.src},
			},
			sql: "SELECT COUNT(member.age), SUM(member.age), AVG(member.age), MAX(member.age), MIN(member.age) FROM member",
		},
		{
			name: "group by orders by keys",
			spec: &queryir.QuerySpec{
				Select:  []queryir.Expr{team.name, m.age.Avg()},
				From:    []*queryir.Source{m.src},
				Joins:   []queryir.Join{{Kind: queryir.InnerJoin, Target: team.src, Path: m.src.Path("team")}},
				GroupBy: []queryir.Expr{team.name},
			},
			sql: "SELECT team.name, AVG(member.age) FROM member JOIN team ON member.team_id = team.id GROUP BY team.name ORDER BY team.name ASC",
		},
		{
			name: "left join with extra condition",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref(), team.src.Ref()},
				From:   []*queryir.Source{m.src},
				Joins: []queryir.Join{{
					Kind: queryir.LeftJoin, Target: team.src, Path: m.src.Path("team"), On: team.name.Eq("teamA"),
				}},
			},
			sql:    "SELECT member.id, member.username, member.age, member.team_id, team.id, team.name FROM member LEFT JOIN team ON member.team_id = team.id AND team.name = ? ORDER BY member.id ASC, team.id ASC",
			params: []any{"teamA"},
		},
		{
			name: "theta join",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src, team.src},
				Where:  m.username.EqExpr(team.name),
			},
			sql: "SELECT member.id, member.username, member.age, member.team_id FROM member, team WHERE member.username = team.name ORDER BY member.id ASC, team.id ASC",
		},
		{
			name: "join on unrelated entity",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref(), team.src.Ref()},
				From:   []*queryir.Source{m.src},
				Joins:  []queryir.Join{{Kind: queryir.LeftJoin, Target: team.src, On: m.username.EqExpr(team.name)}},
			},
			sql: "SELECT member.id, member.username, member.age, member.team_id, team.id, team.name FROM member LEFT JOIN team ON member.username = team.name ORDER BY member.id ASC, team.id ASC",
		},
		{
			name: "fetch join appends target columns",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Joins:  []queryir.Join{{Kind: queryir.InnerJoin, Target: team.src, Path: m.src.Path("team"), Fetch: true}},
				Where:  m.username.Eq("member1"),
			},
			sql:    "SELECT member.id, member.username, member.age, member.team_id, team.id, team.name FROM member JOIN team ON member.team_id = team.id WHERE member.username = ? ORDER BY member.id ASC, team.id ASC",
			params: []any{"member1"},
		},
		{
			name: "distinct skips tie-break",
			spec: &queryir.QuerySpec{
				Select:   []queryir.Expr{m.username},
				From:     []*queryir.Source{m.src},
				Distinct: true,
			},
			sql: "SELECT DISTINCT member.username FROM member",
		},
		{
			name: "alias in select list",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username.As("name"), m.age},
				From:   []*queryir.Source{m.src},
			},
			sql: "SELECT member.username AS name, member.age FROM member ORDER BY member.id ASC",
		},
		{
			name: "in list and empty in",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username},
				From:   []*queryir.Source{m.src},
				Where:  m.age.In(10, 20).And(m.username.NotIn()),
			},
			sql:    "SELECT member.username FROM member WHERE member.age IN (?, ?) AND 1 = 1 ORDER BY member.id ASC",
			params: []any{int64(10), int64(20)},
		},
		{
			name: "negation and arithmetic",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.age.Add(1).Multiply(2)},
				From:   []*queryir.Source{m.src},
				Where:  m.age.Gt(18).Not(),
			},
			sql:    "SELECT (member.age + ?) * ? FROM member WHERE NOT (member.age > ?) ORDER BY member.id ASC",
			params: []any{int64(1), int64(2), int64(18)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.Translate(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			if tt.params == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestTranslateNeverInterpolatesValues(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")

	spec := &queryir.QuerySpec{
		Select: []queryir.Expr{m.username},
		From:   []*queryir.Source{m.src},
		Where:  m.username.Eq("x'; DROP TABLE member; --"),
	}
	sql, params, err := compiler.Translate(spec)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE member; --"}, params)
}

func TestTranslateRejectsInvalidSpecs(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")
	team := newTeam("team")

	_, _, err := compiler.Translate(&queryir.QuerySpec{
		Select: []queryir.Expr{m.src.Ref()},
		From:   []*queryir.Source{m.src},
		Joins:  []queryir.Join{{Target: team.src}},
	})
	assert.True(t, ir.IsUnsupportedJoin(err), "got %v", err)

	_, _, err = compiler.Translate(&queryir.QuerySpec{From: []*queryir.Source{m.src}})
	assert.True(t, ir.HasCode(err, ir.ErrCodeInvalidQuery), "got %v", err)

	_, _, err = compiler.TranslateMutating(&queryir.MutatingSpec{Kind: queryir.Delete, Target: m.src})
	assert.True(t, ir.HasCode(err, ir.ErrCodeUnboundedMutation), "got %v", err)
}

func TestTranslateCount(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")
	team := newTeam("team")

	tests := []struct {
		name   string
		spec   *queryir.QuerySpec
		sql    string
		params []any
	}{
		{
			name: "ignores paging and order",
			spec: &queryir.QuerySpec{
				Select:  []queryir.Expr{m.src.Ref()},
				From:    []*queryir.Source{m.src},
				Where:   m.age.Goe(10),
				OrderBy: []queryir.Order{m.username.Desc()},
				Offset:  1,
				Limit:   2,
			},
			sql:    "SELECT COUNT(*) FROM member WHERE member.age >= ?",
			params: []any{int64(10)},
		},
		{
			name: "keeps joins",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Joins:  []queryir.Join{{Kind: queryir.InnerJoin, Target: team.src, Path: m.src.Path("team"), Fetch: true}},
			},
			sql: "SELECT COUNT(*) FROM member JOIN team ON member.team_id = team.id",
		},
		{
			name: "grouped query counts groups",
			spec: &queryir.QuerySpec{
				Select:  []queryir.Expr{team.name, m.age.Avg()},
				From:    []*queryir.Source{m.src},
				Joins:   []queryir.Join{{Kind: queryir.InnerJoin, Target: team.src, Path: m.src.Path("team")}},
				GroupBy: []queryir.Expr{team.name},
			},
			sql: "SELECT COUNT(*) FROM (SELECT team.name, AVG(member.age) FROM member JOIN team ON member.team_id = team.id GROUP BY team.name) AS counted",
		},
		{
			name: "distinct query counts distinct rows",
			spec: &queryir.QuerySpec{
				Select:   []queryir.Expr{m.username},
				From:     []*queryir.Source{m.src},
				Distinct: true,
			},
			sql: "SELECT COUNT(*) FROM (SELECT DISTINCT member.username FROM member) AS counted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.TranslateCount(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			if tt.params == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestTranslateMutating(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")
	sub := newMember("memberSub")

	rename, err := queryir.NewSetClause(m.src.Col("username"), "guest")
	require.NoError(t, err)
	bump, err := queryir.NewSetClause(m.src.Col("age"), m.age.Add(1))
	require.NoError(t, err)
	unset, err := queryir.NewSetClause(m.src.Col("username"), nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		spec   *queryir.MutatingSpec
		sql    string
		params []any
	}{
		{
			name:   "update with filter",
			spec:   &queryir.MutatingSpec{Kind: queryir.Update, Target: m.src, Set: []queryir.SetClause{rename}, Where: m.age.Lt(28)},
			sql:    "UPDATE member SET username = ? WHERE member.age < ?",
			params: []any{"guest", int64(28)},
		},
		{
			name:   "whole-table arithmetic update",
			spec:   &queryir.MutatingSpec{Kind: queryir.Update, Target: m.src, Set: []queryir.SetClause{bump}, AllRows: true},
			sql:    "UPDATE member SET age = member.age + ?",
			params: []any{int64(1)},
		},
		{
			name:   "null is rendered inline",
			spec:   &queryir.MutatingSpec{Kind: queryir.Update, Target: m.src, Set: []queryir.SetClause{unset}, Where: m.age.Eq(10)},
			sql:    "UPDATE member SET username = NULL WHERE member.age = ?",
			params: []any{int64(10)},
		},
		{
			name:   "delete",
			spec:   &queryir.MutatingSpec{Kind: queryir.Delete, Target: m.src, Where: m.age.Gt(18)},
			sql:    "DELETE FROM member WHERE member.age > ?",
			params: []any{int64(18)},
		},
		{
			name: "aliased target is qualified by table",
			spec: func() *queryir.MutatingSpec {
				m2 := newMember("m2")
				return &queryir.MutatingSpec{Kind: queryir.Delete, Target: m2.src, Where: m2.username.IsNull()}
			}(),
			sql: "DELETE FROM member WHERE member.username IS NULL",
		},
		{
			name: "subquery in filter",
			spec: &queryir.MutatingSpec{
				Kind:   queryir.Delete,
				Target: m.src,
				Where: m.age.LtExpr(subquery(&queryir.QuerySpec{
					Select: []queryir.Expr{sub.age.Avg()},
					From:   []*queryir.Source{sub.src},
				}, ir.TypeDecimal)),
			},
			sql: "DELETE FROM member WHERE member.age < (SELECT AVG(memberSub.age) FROM member AS memberSub)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.TranslateMutating(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			if tt.params == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

// Statements with nested structure are pinned with golden files.
func TestTranslateGolden(t *testing.T) {
	compiler := NewSQLCompiler()
	m := newMember("member")
	sub := newMember("memberSub")

	maxAge := subquery(&queryir.QuerySpec{
		Select: []queryir.Expr{sub.age.Max()},
		From:   []*queryir.Source{sub.src},
	}, ir.TypeInt)
	avgAge := subquery(&queryir.QuerySpec{
		Select: []queryir.Expr{sub.age.Avg()},
		From:   []*queryir.Source{sub.src},
	}, ir.TypeDecimal)
	olderThan10 := subquery(&queryir.QuerySpec{
		Select: []queryir.Expr{sub.age},
		From:   []*queryir.Source{sub.src},
		Where:  sub.age.Gt(10),
	}, ir.TypeInt)

	basicCaseExpr, err := m.age.When(10).Then("ten").When(20).Then("twenty").Otherwise("other")
	basicCase := mustExpr(t, basicCaseExpr, err)
	rankCaseExpr, err := queryir.NewCase().
		When(m.age.Between(0, 20)).Then("0-20").
		When(m.age.Between(21, 30)).Then("21-30").
		Otherwise("other")
	rankCase := mustExpr(t, rankCaseExpr, err)
	replaced, err := queryir.StringTemplate("replace({0}, {1}, {2})", m.username, "member", "M")
	require.NoError(t, err)

	tests := []struct {
		golden string
		spec   *queryir.QuerySpec
	}{
		{
			golden: "subquery_eq",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Where:  m.age.EqExpr(maxAge),
			},
		},
		{
			golden: "subquery_goe",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Where:  m.age.GoeExpr(avgAge),
			},
		},
		{
			golden: "subquery_in",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.src.Ref()},
				From:   []*queryir.Source{m.src},
				Where:  m.age.InQuery(olderThan10),
			},
		},
		{
			golden: "select_subquery",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username, avgAge},
				From:   []*queryir.Source{m.src},
			},
		},
		{
			golden: "simple_case",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{basicCase},
				From:   []*queryir.Source{m.src},
			},
		},
		{
			golden: "searched_case",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{rankCase},
				From:   []*queryir.Source{m.src},
			},
		},
		{
			golden: "concat",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{m.username.Append("_").Concat(m.age.StringValue())},
				From:   []*queryir.Source{m.src},
				Where:  m.username.Eq("member1"),
			},
		},
		{
			golden: "template",
			spec: &queryir.QuerySpec{
				Select: []queryir.Expr{replaced},
				From:   []*queryir.Source{m.src},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			sql, params, err := compiler.Translate(tt.spec)
			require.NoError(t, err)
			assertGolden(t, tt.golden, sql, params)
		})
	}
}
