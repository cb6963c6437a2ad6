package ir

import "fmt"

// Type is the static result type of an expression or column.
// Projection mapping and construction-time validation both key off it.
type Type int

const (
	// TypeAny matches every type. Literal NULL and untyped templates use it.
	TypeAny Type = iota
	TypeString
	TypeInt
	TypeDecimal
	TypeBool
	// TypeEntity marks a whole-entity select item (expanded to its columns).
	TypeEntity
)

var typeNames = map[Type]string{
	TypeAny:     "any",
	TypeString:  "string",
	TypeInt:     "int",
	TypeDecimal: "decimal",
	TypeBool:    "bool",
	TypeEntity:  "entity",
}

// String returns the schema name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType resolves a schema type name ("string", "int", "decimal", "bool").
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name && t != TypeEntity && t != TypeAny {
			return t, nil
		}
	}
	return TypeAny, fmt.Errorf("unknown type %q", name)
}

// Numeric reports whether t is an integer or decimal type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeDecimal
}

// Comparable reports whether values of a and b may be compared with each other.
// Integers and decimals compare freely; TypeAny compares with everything.
func Comparable(a, b Type) bool {
	if a == TypeAny || b == TypeAny {
		return a != TypeEntity && b != TypeEntity
	}
	if a == TypeEntity || b == TypeEntity {
		return false
	}
	if a.Numeric() && b.Numeric() {
		return true
	}
	return a == b
}

// Assignable reports whether a value of type from can populate a slot of type to.
// Integers widen to decimals; decimals never narrow to integers.
func Assignable(from, to Type) bool {
	if from == TypeAny || to == TypeAny {
		return true
	}
	if from == TypeInt && to == TypeDecimal {
		return true
	}
	return from == to
}

// ArithmeticResult returns the result type of combining two numeric operands.
func ArithmeticResult(a, b Type) Type {
	if a == TypeInt && b == TypeInt {
		return TypeInt
	}
	return TypeDecimal
}
