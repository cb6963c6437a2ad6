package projection

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// Descriptor is the mapping table of one target type: named setters for
// Bean projections and named field pointers for Fields projections.
// Register everything before building projections from it.
type Descriptor[T any] struct {
	name    string
	setters map[string]func(*T, ir.IRValue) error
	fields  map[string]func(*T) any
}

// NewDescriptor creates an empty descriptor; name appears in errors.
func NewDescriptor[T any](name string) *Descriptor[T] {
	return &Descriptor[T]{
		name:    name,
		setters: make(map[string]func(*T, ir.IRValue) error),
		fields:  make(map[string]func(*T) any),
	}
}

// Name returns the target type name.
func (d *Descriptor[T]) Name() string { return d.name }

// Setter registers the setter for property name.
func (d *Descriptor[T]) Setter(name string, set func(*T, ir.IRValue) error) *Descriptor[T] {
	d.setters[name] = set
	return d
}

// Field registers the field for name. ptr returns a pointer to the field:
// *string, **string, *int, *int64, *bool, *decimal.Decimal or *ir.IRValue.
func (d *Descriptor[T]) Field(name string, ptr func(*T) any) *Descriptor[T] {
	d.fields[name] = ptr
	return d
}

// Apply stores v into target under name, preferring the setter over the
// field. It reports whether name is mapped.
func (d *Descriptor[T]) Apply(target *T, name string, v ir.IRValue) (bool, error) {
	if set, ok := d.setters[name]; ok {
		return true, set(target, v)
	}
	if ptr, ok := d.fields[name]; ok {
		return true, Assign(ptr(target), v)
	}
	return false, nil
}

// Bean maps rows by calling the setter registered for each item's label.
func Bean[T any](d *Descriptor[T], exprs ...queryir.Expr) Projection[T] {
	labels := labelsOf(exprs)
	return Func[T]{Items: exprs, MapFun: func(t Tuple) (T, error) {
		var out T
		for i, label := range labels {
			set, ok := d.setters[label]
			if !ok {
				continue
			}
			if err := set(&out, t.At(i)); err != nil {
				return out, fmt.Errorf("%s.%s: %w", d.name, label, err)
			}
		}
		return out, nil
	}}
}

// Fields maps rows by assigning the field registered for each item's label.
func Fields[T any](d *Descriptor[T], exprs ...queryir.Expr) Projection[T] {
	labels := labelsOf(exprs)
	return Func[T]{Items: exprs, MapFun: func(t Tuple) (T, error) {
		var out T
		for i, label := range labels {
			ptr, ok := d.fields[label]
			if !ok {
				continue
			}
			if err := Assign(ptr(&out), t.At(i)); err != nil {
				return out, fmt.Errorf("%s.%s: %w", d.name, label, err)
			}
		}
		return out, nil
	}}
}

func labelsOf(exprs []queryir.Expr) []string {
	labels := make([]string, len(exprs))
	for i, e := range exprs {
		labels[i] = queryir.Label(e)
	}
	return labels
}

// Assign stores v through ptr. NULL stores the zero value.
func Assign(ptr any, v ir.IRValue) error {
	switch p := ptr.(type) {
	case *string:
		s, _, err := ir.AsString(v)
		if err != nil {
			return err
		}
		*p = s
	case **string:
		s, ok, err := ir.AsString(v)
		if err != nil {
			return err
		}
		if ok {
			*p = &s
		} else {
			*p = nil
		}
	case *int:
		n, _, err := ir.AsInt(v)
		if err != nil {
			return err
		}
		*p = int(n)
	case *int64:
		n, _, err := ir.AsInt(v)
		if err != nil {
			return err
		}
		*p = n
	case *bool:
		b, _, err := ir.AsBool(v)
		if err != nil {
			return err
		}
		*p = b
	case *decimal.Decimal:
		d, _, err := ir.AsDecimal(v)
		if err != nil {
			return err
		}
		*p = d
	case *ir.IRValue:
		*p = v
	default:
		return ir.NewTypeMismatch(fmt.Sprintf("unsupported field type %T", ptr))
	}
	return nil
}
