package ir

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeString, TypeOf(IRString("a")))
	assert.Equal(t, TypeInt, TypeOf(IRInt(1)))
	assert.Equal(t, TypeBool, TypeOf(IRBool(true)))
	assert.Equal(t, TypeDecimal, TypeOf(NewIRDecimal(decimal.NewFromInt(1))))
	assert.Equal(t, TypeAny, TypeOf(IRNull{}))
	assert.Equal(t, TypeAny, TypeOf(nil))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(IRNull{}))
	assert.False(t, IsNull(IRString("")))
	assert.False(t, IsNull(IRInt(0)))
}

func TestComparable(t *testing.T) {
	testCases := []struct {
		name string
		a, b Type
		want bool
	}{
		{"string vs string", TypeString, TypeString, true},
		{"int vs decimal", TypeInt, TypeDecimal, true},
		{"string vs int", TypeString, TypeInt, false},
		{"bool vs int", TypeBool, TypeInt, false},
		{"any vs string", TypeAny, TypeString, true},
		{"entity vs any", TypeEntity, TypeAny, false},
		{"entity vs entity", TypeEntity, TypeEntity, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Comparable(tc.a, tc.b))
			assert.Equal(t, tc.want, Comparable(tc.b, tc.a), "Comparable must be symmetric")
		})
	}
}

func TestAssignable(t *testing.T) {
	assert.True(t, Assignable(TypeInt, TypeDecimal))
	assert.False(t, Assignable(TypeDecimal, TypeInt))
	assert.True(t, Assignable(TypeAny, TypeInt))
	assert.True(t, Assignable(TypeString, TypeString))
	assert.False(t, Assignable(TypeString, TypeInt))
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"string", "int", "decimal", "bool"} {
		typ, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}

	_, err := ParseType("entity")
	assert.Error(t, err)
	_, err = ParseType("float")
	assert.Error(t, err)
}

func TestFromGo(t *testing.T) {
	v, err := FromGo("member1")
	require.NoError(t, err)
	assert.Equal(t, IRString("member1"), v)

	v, err = FromGo(10)
	require.NoError(t, err)
	assert.Equal(t, IRInt(10), v)

	var absent *string
	v, err = FromGo(absent)
	require.NoError(t, err)
	assert.Equal(t, IRNull{}, v)

	_, err = FromGo(1.5)
	assert.Error(t, err)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestFromGoNormalizesNFC(t *testing.T) {
	// "e" plus a combining acute accent becomes the precomposed form.
	v, err := FromGo("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, IRString("\u00e9"), v)
}

func TestFromDriver(t *testing.T) {
	testCases := []struct {
		name string
		raw  any
		want Type
		out  IRValue
	}{
		{"nil", nil, TypeString, IRNull{}},
		{"int", int64(40), TypeInt, IRInt(40)},
		{"int as decimal", int64(40), TypeDecimal, NewIRDecimal(decimal.NewFromInt(40))},
		{"text bytes", []byte("member1"), TypeString, IRString("member1")},
		{"text string", "member1", TypeAny, IRString("member1")},
		{"bool from int", int64(1), TypeBool, IRBool(true)},
		{"integral real as int", float64(4), TypeInt, IRInt(4)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromDriver(tc.raw, tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.out, got)
		})
	}
}

func TestFromDriverAverageBecomesDecimal(t *testing.T) {
	got, err := FromDriver(float64(15), TypeDecimal)
	require.NoError(t, err)

	d, ok, err := AsDecimal(got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(15)), "got %s", d)

	got, err = FromDriver(float64(12.5), TypeDecimal)
	require.NoError(t, err)
	d, _, err = AsDecimal(got)
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.String())
}

func TestFromDriverRejectsBadText(t *testing.T) {
	_, err := FromDriver("abc", TypeInt)
	assert.Error(t, err)
}

func TestToParam(t *testing.T) {
	p, err := ToParam(IRString("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", p)

	p, err = ToParam(IRInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), p)

	p, err = ToParam(IRNull{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ToParam(NewIRDecimal(decimal.RequireFromString("2.5")))
	require.NoError(t, err)
	assert.Equal(t, 2.5, p)
}

func TestAsInt(t *testing.T) {
	n, ok, err := AsInt(IRInt(7))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	n, ok, err = AsInt(NewIRDecimal(decimal.NewFromInt(25)))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(25), n)

	_, _, err = AsInt(NewIRDecimal(decimal.RequireFromString("25.5")))
	assert.True(t, IsTypeMismatch(err))

	_, ok, err = AsInt(IRNull{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = AsInt(IRString("x"))
	assert.True(t, IsTypeMismatch(err))
}

func TestAsString(t *testing.T) {
	s, ok, err := AsString(IRString("teamA"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "teamA", s)

	_, ok, err = AsString(IRNull{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = AsString(IRInt(1))
	assert.True(t, IsTypeMismatch(err))
}

func TestAsBool(t *testing.T) {
	b, ok, err := AsBool(IRInt(0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, b)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "null", Format(IRNull{}))
	assert.Equal(t, `"a"`, Format(IRString("a")))
	assert.Equal(t, "15", Format(NewIRDecimal(decimal.NewFromInt(15))))
}

func TestMarshalIRValue(t *testing.T) {
	b, err := MarshalIRValue(IRString("<a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a>"`, string(b))

	b, err = MarshalIRValue(IRNull{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
