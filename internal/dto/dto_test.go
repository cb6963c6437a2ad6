package dto

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helloworldkim/querydsl/internal/entity"
	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

func tupleOf(items []queryir.Expr, values ...ir.IRValue) projection.Tuple {
	groups := make([][]ir.IRValue, len(values))
	for i, v := range values {
		groups[i] = []ir.IRValue{v}
	}
	return projection.NewTuple(items, groups, nil)
}

func TestMemberDTOStrategies(t *testing.T) {
	m := entity.NewQMember("member")
	want := MemberDTO{Username: "member1", Age: 10}

	ctor, err := projection.Constructor(NewMemberDTO, m.Username, m.Age)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    projection.Projection[MemberDTO]
	}{
		{"setter", projection.Bean(MemberDTOs, m.Username, m.Age)},
		{"field", projection.Fields(MemberDTOs, m.Username, m.Age)},
		{"constructor", ctor},
		{"query projection", NewQMemberDTO(m.Username, m.Age)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Map(tupleOf(tt.p.Exprs(), ir.IRString("member1"), ir.IRInt(10)))
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("MemberDTO mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUserDTONeedsAlias(t *testing.T) {
	m := entity.NewQMember("member")

	unaliased := projection.Fields(UserDTOs, m.Username, m.Age)
	got, err := unaliased.Map(tupleOf(unaliased.Exprs(), ir.IRString("member1"), ir.IRInt(10)))
	require.NoError(t, err)
	assert.Equal(t, UserDTO{Age: 10}, got)

	aliased := projection.Fields(UserDTOs, m.Username.As("name"), m.Age)
	got, err = aliased.Map(tupleOf(aliased.Exprs(), ir.IRString("member1"), ir.IRInt(10)))
	require.NoError(t, err)
	assert.Equal(t, UserDTO{Name: "member1", Age: 10}, got)
}

func TestConstructorArityFailsBeforeMapping(t *testing.T) {
	m := entity.NewQMember("member")

	_, err := projection.Constructor(NewUserDTO, m.Username)
	require.Error(t, err)
	assert.True(t, ir.IsArityMismatch(err))
}
