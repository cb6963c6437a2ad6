package schema

import (
	"fmt"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// RelationKind distinguishes the owning side of an association.
type RelationKind string

const (
	// ManyToOne is the owning side: the entity carries the foreign key column.
	ManyToOne RelationKind = "many_to_one"

	// OneToMany is the inverse side, mapped by a ManyToOne on the target.
	OneToMany RelationKind = "one_to_many"
)

// Model is the compiled set of entities, in declaration order.
type Model struct {
	Entities []*Entity

	byName map[string]*Entity
}

// Entity describes one mapped table.
type Entity struct {
	Name      string
	Table     string
	Identity  string // identity column name
	Columns   []Column
	Relations []*Relation
}

// Column is a stored attribute. Foreign key columns carry the name of the
// relation they implement in Relation.
type Column struct {
	Name     string // SQL column name
	Field    string // attribute name used for projection lookup
	Type     ir.Type
	Nullable bool
	Relation string
}

// Relation is an association between two entities.
//
// After model compilation LocalColumn and TargetColumn hold the join
// condition: owner.LocalColumn = target.TargetColumn.
type Relation struct {
	Name     string
	Kind     RelationKind
	Target   string
	Column   string // foreign key column (many_to_one only)
	MappedBy string // owning relation on the target (one_to_many only)

	LocalColumn  string
	TargetColumn string
}

// Entity returns the entity with the given name.
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// MustEntity is like Entity but panics when the entity is unknown.
func (m *Model) MustEntity(name string) *Entity {
	e, ok := m.byName[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown entity %q", name))
	}
	return e
}

// Column returns the column backing the named attribute.
func (e *Entity) Column(field string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// MustColumn is like Column but panics when the attribute is unknown.
func (e *Entity) MustColumn(field string) Column {
	c, ok := e.Column(field)
	if !ok {
		panic(fmt.Sprintf("schema: entity %s has no attribute %q", e.Name, field))
	}
	return c
}

// MustColumnByName returns the column with the given SQL name.
func (e *Entity) MustColumnByName(name string) Column {
	for _, c := range e.Columns {
		if c.Name == name {
			return c
		}
	}
	panic(fmt.Sprintf("schema: entity %s has no column %q", e.Name, name))
}

// IdentityColumn returns the identity column.
func (e *Entity) IdentityColumn() Column {
	for _, c := range e.Columns {
		if c.Name == e.Identity {
			return c
		}
	}
	return Column{Name: e.Identity, Field: e.Identity, Type: ir.TypeInt}
}

// Relation returns the named relation.
func (e *Entity) Relation(name string) (*Relation, bool) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// newModel indexes entities and resolves relation join columns.
func newModel(entities []*Entity) (*Model, error) {
	m := &Model{
		Entities: entities,
		byName:   make(map[string]*Entity, len(entities)),
	}
	for _, e := range entities {
		if _, dup := m.byName[e.Name]; dup {
			return nil, &CompileError{Field: "entity." + e.Name, Message: "duplicate entity"}
		}
		m.byName[e.Name] = e
	}

	for _, e := range entities {
		for _, r := range e.Relations {
			if err := m.resolve(e, r); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Model) resolve(owner *Entity, r *Relation) error {
	field := fmt.Sprintf("entity.%s.relation.%s", owner.Name, r.Name)

	target, ok := m.byName[r.Target]
	if !ok {
		return &CompileError{Field: field, Message: fmt.Sprintf("unknown target entity %q", r.Target)}
	}

	switch r.Kind {
	case ManyToOne:
		r.LocalColumn = r.Column
		r.TargetColumn = target.Identity
	case OneToMany:
		inverse, ok := target.Relation(r.MappedBy)
		if !ok || inverse.Kind != ManyToOne {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("mapped_by %q is not a many_to_one relation on %s", r.MappedBy, target.Name),
			}
		}
		r.LocalColumn = owner.Identity
		r.TargetColumn = inverse.Column
	}
	return nil
}
