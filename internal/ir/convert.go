package ir

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// FromGo converts a Go literal into an IRValue.
// Strings are NFC normalized so that literals compare equal to stored values
// regardless of the composition form they were typed in.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(norm.NFC.String(val)), nil
	case *string:
		if val == nil {
			return IRNull{}, nil
		}
		return IRString(norm.NFC.String(*val)), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case bool:
		return IRBool(val), nil
	case decimal.Decimal:
		return IRDecimal{Decimal: val}, nil
	case float64, float32:
		return nil, fmt.Errorf("floats are not accepted as literals, use decimal.Decimal: %v", val)
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// FromDriver converts a raw database/sql value into an IRValue, steering the
// result toward the expected static type. SQLite reports averages as REAL and
// text as string or []byte; both are normalized here.
func FromDriver(raw any, want Type) (IRValue, error) {
	if raw == nil {
		return IRNull{}, nil
	}

	switch val := raw.(type) {
	case int64:
		switch want {
		case TypeDecimal:
			return IRDecimal{Decimal: decimal.NewFromInt(val)}, nil
		case TypeBool:
			return IRBool(val != 0), nil
		case TypeString:
			return IRString(strconv.FormatInt(val, 10)), nil
		}
		return IRInt(val), nil
	case float64:
		if want == TypeInt && val == math.Trunc(val) {
			return IRInt(int64(val)), nil
		}
		return IRDecimal{Decimal: decimal.NewFromFloat(val)}, nil
	case bool:
		return IRBool(val), nil
	case []byte:
		return fromDriverText(string(val), want)
	case string:
		return fromDriverText(val, want)
	default:
		return nil, fmt.Errorf("unsupported driver value type: %T", raw)
	}
}

func fromDriverText(s string, want Type) (IRValue, error) {
	switch want {
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column value %q is not an int: %w", s, err)
		}
		return IRInt(n), nil
	case TypeDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("column value %q is not a decimal: %w", s, err)
		}
		return IRDecimal{Decimal: d}, nil
	}
	return IRString(s), nil
}

// ToParam converts an IRValue to a native Go value for a SQL parameter.
func ToParam(v IRValue) (any, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return nil, nil
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRBool:
		return bool(val), nil
	case IRDecimal:
		// SQLite has no exact decimal storage; REAL is what it compares against.
		return val.InexactFloat64(), nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}

// AsString extracts a string. Null yields "" and ok=false.
func AsString(v IRValue) (string, bool, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return "", false, nil
	case IRString:
		return string(val), true, nil
	default:
		return "", false, NewTypeMismatch(fmt.Sprintf("expected string, got %s", TypeOf(v)))
	}
}

// AsInt extracts an int64. Decimals convert only when they carry no fraction.
func AsInt(v IRValue) (int64, bool, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return 0, false, nil
	case IRInt:
		return int64(val), true, nil
	case IRDecimal:
		if !val.Equal(val.Truncate(0)) {
			return 0, false, NewTypeMismatch(fmt.Sprintf("decimal %s has a fractional part", val.String()))
		}
		return val.IntPart(), true, nil
	default:
		return 0, false, NewTypeMismatch(fmt.Sprintf("expected int, got %s", TypeOf(v)))
	}
}

// AsDecimal extracts a decimal; integers widen.
func AsDecimal(v IRValue) (decimal.Decimal, bool, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return decimal.Zero, false, nil
	case IRInt:
		return decimal.NewFromInt(int64(val)), true, nil
	case IRDecimal:
		return val.Decimal, true, nil
	default:
		return decimal.Zero, false, NewTypeMismatch(fmt.Sprintf("expected decimal, got %s", TypeOf(v)))
	}
}

// AsBool extracts a bool.
func AsBool(v IRValue) (bool, bool, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return false, false, nil
	case IRBool:
		return bool(val), true, nil
	case IRInt:
		return val != 0, true, nil
	default:
		return false, false, NewTypeMismatch(fmt.Sprintf("expected bool, got %s", TypeOf(v)))
	}
}
