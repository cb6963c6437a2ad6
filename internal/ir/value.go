package ir

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// IRValue is a sealed interface representing constrained value types.
// Only IRNull, IRString, IRInt, IRBool and IRDecimal implement this.
// NO float type - fractional results are carried as exact decimals.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents an absent (SQL NULL) value.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value.
// Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRDecimal represents an exact fractional number, e.g. the result of avg().
type IRDecimal struct {
	decimal.Decimal
}

func (IRDecimal) irValue() {}

// NewIRString creates an IRString value.
func NewIRString(s string) IRString {
	return IRString(s)
}

// NewIRInt creates an IRInt value.
func NewIRInt(n int64) IRInt {
	return IRInt(n)
}

// NewIRBool creates an IRBool value.
func NewIRBool(b bool) IRBool {
	return IRBool(b)
}

// NewIRDecimal creates an IRDecimal value.
func NewIRDecimal(d decimal.Decimal) IRDecimal {
	return IRDecimal{Decimal: d}
}

// IsNull reports whether v is absent. A nil interface counts as null.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// TypeOf returns the static type of a value.
// IRNull has TypeAny: it is assignable everywhere.
func TypeOf(v IRValue) Type {
	switch v.(type) {
	case IRString:
		return TypeString
	case IRInt:
		return TypeInt
	case IRBool:
		return TypeBool
	case IRDecimal:
		return TypeDecimal
	default:
		return TypeAny
	}
}

// MarshalIRValue marshals an IRValue to JSON bytes.
// Uses type-switch dispatch to handle all IRValue types correctly.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRDecimal:
		return []byte(val.String()), nil
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// Format renders a value for logs and test output.
func Format(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return fmt.Sprintf("%q", string(val))
	case IRInt:
		return fmt.Sprintf("%d", int64(val))
	case IRBool:
		return fmt.Sprintf("%t", bool(val))
	case IRDecimal:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
