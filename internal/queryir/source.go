package queryir

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/schema"
)

// Source is an aliased entity in a FROM or JOIN clause.
type Source struct {
	Entity *schema.Entity
	Alias  string
}

// Sourced is implemented by everything that can stand in a FROM or JOIN
// clause. Source implements it, and typed entity paths embed a *Source.
type Sourced interface {
	Src() *Source
}

// NewSource returns a source for entity e under alias. An empty alias
// defaults to the table name.
func NewSource(e *schema.Entity, alias string) *Source {
	if alias == "" {
		alias = e.Table
	}
	return &Source{Entity: e, Alias: alias}
}

// Src implements Sourced.
func (s *Source) Src() *Source { return s }

// Ref returns the whole-entity select item.
func (s *Source) Ref() *EntityRef {
	return &EntityRef{Source: s}
}

// Col returns the column for the named attribute.
// It panics on unknown attributes; entity paths are built from the schema
// once, so a miss is a programming error.
func (s *Source) Col(field string) *Column {
	c := s.Entity.MustColumn(field)
	return &Column{Source: s, Name: c.Name, Field: c.Field, T: c.Type}
}

// ID returns the identity column.
func (s *Source) ID() *Column {
	c := s.Entity.IdentityColumn()
	return &Column{Source: s, Name: c.Name, Field: c.Field, T: c.Type}
}

// Path returns the relationship path for the named relation.
func (s *Source) Path(relation string) *RelationPath {
	r, ok := s.Entity.Relation(relation)
	if !ok {
		panic(fmt.Sprintf("queryir: entity %s has no relation %q", s.Entity.Name, relation))
	}
	return &RelationPath{Owner: s, Relation: r}
}

// RelationPath is a declared association reached from an owner source.
type RelationPath struct {
	Owner    *Source
	Relation *schema.Relation
}

func (p *RelationPath) String() string {
	return p.Owner.Alias + "." + p.Relation.Name
}

// Condition returns the join condition implied by the path when its target
// is bound to target.
func (p *RelationPath) Condition(target *Source) BoolExpr {
	local := p.Owner.Entity.MustColumnByName(p.Relation.LocalColumn)
	remote := target.Entity.MustColumnByName(p.Relation.TargetColumn)
	return BoolExpr{&Binary{
		Op:    OpEq,
		Left:  &Column{Source: p.Owner, Name: local.Name, Field: local.Field, T: local.Type},
		Right: &Column{Source: target, Name: remote.Name, Field: remote.Field, T: remote.Type},
		T:     ir.TypeBool,
	}}
}
