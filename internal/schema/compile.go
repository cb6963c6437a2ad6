package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/helloworldkim/querydsl/internal/ir"
)

// Compile parses one entity definition.
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Team: { table: "team", fields: { id: int } }`)
//	e, err := Compile(v.LookupPath(cue.ParsePath("entity.Team")))
//
// Relations are parsed but not resolved; CompileModel resolves them against
// the other entities.
func Compile(v cue.Value) (*Entity, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	e := &Entity{Identity: "id"}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		e.Name = labels[len(labels)-1].String()
	}

	tableVal := v.LookupPath(cue.ParsePath("table"))
	if !tableVal.Exists() {
		return nil, &CompileError{Field: "table", Message: "table is required", Pos: v.Pos()}
	}
	table, err := tableVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	e.Table = table

	if idVal := v.LookupPath(cue.ParsePath("identity")); idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		e.Identity = id
	}

	e.Columns, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	if _, ok := e.Column(e.Identity); !ok {
		return nil, &CompileError{
			Field:   "fields",
			Message: fmt.Sprintf("identity field %q is not declared", e.Identity),
			Pos:     v.Pos(),
		}
	}

	e.Relations, err = parseRelations(v)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Relations {
		if r.Kind == ManyToOne {
			e.Columns = append(e.Columns, Column{
				Name:     r.Column,
				Field:    r.Name,
				Type:     ir.TypeInt,
				Nullable: true,
				Relation: r.Name,
			})
		}
	}

	return e, nil
}

// CompileModel compiles every entity under the top-level "entity" field.
func CompileModel(v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entities declared", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := Compile(iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return newModel(entities)
}

func parseFields(v cue.Value) ([]Column, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields are required", Pos: v.Pos()}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []Column
	for iter.Next() {
		name := iter.Label()
		typ, nullable, err := extractType(iter.Value())
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:     name,
			Field:    name,
			Type:     typ,
			Nullable: nullable,
		})
	}
	return cols, nil
}

func parseRelations(v cue.Value) ([]*Relation, error) {
	relVal := v.LookupPath(cue.ParsePath("relation"))
	if !relVal.Exists() {
		return nil, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rels []*Relation
	for iter.Next() {
		name := iter.Label()
		rv := iter.Value()
		field := "relation." + name

		kind, err := requiredString(rv, "kind", field)
		if err != nil {
			return nil, err
		}
		target, err := requiredString(rv, "target", field)
		if err != nil {
			return nil, err
		}

		r := &Relation{Name: name, Kind: RelationKind(kind), Target: target}
		switch r.Kind {
		case ManyToOne:
			if r.Column, err = requiredString(rv, "column", field); err != nil {
				return nil, err
			}
		case OneToMany:
			if r.MappedBy, err = requiredString(rv, "mapped_by", field); err != nil {
				return nil, err
			}
		default:
			return nil, &CompileError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unsupported relation kind %q", kind),
				Pos:     rv.Pos(),
			}
		}
		rels = append(rels, r)
	}
	return rels, nil
}

func requiredString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", &CompileError{
			Field:   field + "." + path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// extractType maps a CUE field constraint to a static type. A disjunction
// with null ("string | null") marks the column nullable.
func extractType(v cue.Value) (ir.Type, bool, error) {
	kind := v.IncompleteKind()
	nullable := kind&cue.NullKind != 0 && kind != cue.NullKind
	kind &^= cue.NullKind

	switch kind {
	case cue.StringKind:
		return ir.TypeString, nullable, nil
	case cue.IntKind:
		return ir.TypeInt, nullable, nil
	case cue.BoolKind:
		return ir.TypeBool, nullable, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.TypeDecimal, nullable, nil
	default:
		return ir.TypeAny, false, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
