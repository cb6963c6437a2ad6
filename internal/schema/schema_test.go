package schema

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helloworldkim/querydsl/internal/ir"
)

func TestDefaultModel(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	require.Len(t, m.Entities, 2)

	team := m.MustEntity("Team")
	assert.Equal(t, "team", team.Table)
	assert.Equal(t, "id", team.Identity)
	assert.Equal(t, []string{"id", "name"}, columnNames(team))

	member := m.MustEntity("Member")
	assert.Equal(t, "member", member.Table)
	assert.Equal(t, []string{"id", "username", "age", "team_id"}, columnNames(member))

	username := member.MustColumn("username")
	assert.Equal(t, ir.TypeString, username.Type)
	assert.True(t, username.Nullable)

	age := member.MustColumn("age")
	assert.Equal(t, ir.TypeInt, age.Type)
	assert.False(t, age.Nullable)

	fk := member.MustColumn("team")
	assert.Equal(t, "team_id", fk.Name)
	assert.Equal(t, "team", fk.Relation)
}

func TestDefaultModelResolvesRelations(t *testing.T) {
	m := MustDefault()

	toTeam, ok := m.MustEntity("Member").Relation("team")
	require.True(t, ok)
	assert.Equal(t, ManyToOne, toTeam.Kind)
	assert.Equal(t, "team_id", toTeam.LocalColumn)
	assert.Equal(t, "id", toTeam.TargetColumn)

	members, ok := m.MustEntity("Team").Relation("members")
	require.True(t, ok)
	assert.Equal(t, OneToMany, members.Kind)
	assert.Equal(t, "id", members.LocalColumn)
	assert.Equal(t, "team_id", members.TargetColumn)
}

func TestDefaultIsCompiledOnce(t *testing.T) {
	a := MustDefault()
	b := MustDefault()
	assert.Same(t, a, b)
}

func TestCompileEntity(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		entity: Order: {
			table: "orders"
			identity: "order_id"
			fields: {
				order_id: int
				total:    number
				paid:     bool
				note:     string | null
			}
		}
	`)
	require.NoError(t, v.Err())

	e, err := Compile(v.LookupPath(cue.ParsePath("entity.Order")))
	require.NoError(t, err)

	assert.Equal(t, "Order", e.Name)
	assert.Equal(t, "order_id", e.IdentityColumn().Name)

	tests := []struct {
		field    string
		typ      ir.Type
		nullable bool
	}{
		{"order_id", ir.TypeInt, false},
		{"total", ir.TypeDecimal, false},
		{"paid", ir.TypeBool, false},
		{"note", ir.TypeString, true},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			c, ok := e.Column(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.typ, c.Type)
			assert.Equal(t, tt.nullable, c.Nullable)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		path    string
		message string
	}{
		{
			name:    "missing table",
			src:     `entity: X: { fields: { id: int } }`,
			path:    "entity.X",
			message: "table is required",
		},
		{
			name:    "missing fields",
			src:     `entity: X: { table: "x" }`,
			path:    "entity.X",
			message: "fields are required",
		},
		{
			name:    "identity not declared",
			src:     `entity: X: { table: "x", fields: { name: string } }`,
			path:    "entity.X",
			message: `identity field "id" is not declared`,
		},
		{
			name:    "unsupported kind",
			src:     `entity: X: { table: "x", fields: { id: int, tags: [...string] } }`,
			path:    "entity.X",
			message: "unsupported type kind",
		},
		{
			name: "unsupported relation",
			src: `entity: X: {
				table: "x"
				fields: { id: int }
				relation: y: { kind: "many_to_many", target: "Y" }
			}`,
			path:    "entity.X",
			message: `unsupported relation kind "many_to_many"`,
		},
		{
			name: "many_to_one without column",
			src: `entity: X: {
				table: "x"
				fields: { id: int }
				relation: y: { kind: "many_to_one", target: "Y" }
			}`,
			path:    "entity.X",
			message: "column is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := Compile(v.LookupPath(cue.ParsePath(tt.path)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var ce *CompileError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestParseRejectsUnknownTarget(t *testing.T) {
	_, err := Parse("bad.cue", `
		entity: X: {
			table: "x"
			fields: { id: int }
			relation: y: { kind: "many_to_one", target: "Missing", column: "y_id" }
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target entity "Missing"`)
}

func TestParseRejectsBadMappedBy(t *testing.T) {
	_, err := Parse("bad.cue", `
		entity: A: {
			table: "a"
			fields: { id: int }
			relation: bs: { kind: "one_to_many", target: "B", mapped_by: "nope" }
		}
		entity: B: {
			table: "b"
			fields: { id: int }
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapped_by")
}

func TestParseReportsCUEPosition(t *testing.T) {
	_, err := Parse("broken.cue", `entity: X: { table: 1 & 2 }`)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadDirectory(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "entities"))
	require.NoError(t, err)

	book := m.MustEntity("Book")
	assert.Equal(t, []string{"id", "title", "price", "author_id"}, columnNames(book))
	assert.Equal(t, ir.TypeDecimal, book.MustColumn("price").Type)

	books, ok := m.MustEntity("Author").Relation("books")
	require.True(t, ok)
	assert.Equal(t, "author_id", books.TargetColumn)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist"))
	require.Error(t, err)
}

func TestDDL(t *testing.T) {
	want := `CREATE TABLE IF NOT EXISTS team (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS member (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT,
	age INTEGER NOT NULL,
	team_id INTEGER REFERENCES team(id)
);
`
	assert.Equal(t, want, MustDefault().DDL())
}

func columnNames(e *Entity) []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}
