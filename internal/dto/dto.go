// Package dto holds flat projection targets and their mapping tables.
package dto

import (
	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/projection"
	"github.com/helloworldkim/querydsl/internal/queryir"
)

// MemberDTO carries a member's username and age.
type MemberDTO struct {
	Username string
	Age      int
}

// UserDTO names the username differently; selecting into it needs an alias.
type UserDTO struct {
	Name string
	Age  int
}

// SetUsername is the setter used by bean projections.
func (d *MemberDTO) SetUsername(s string) { d.Username = s }

// SetAge is the setter used by bean projections.
func (d *MemberDTO) SetAge(age int) { d.Age = age }

// MemberDTOs maps items labelled username and age.
var MemberDTOs = projection.NewDescriptor[MemberDTO]("MemberDTO").
	Setter("username", func(d *MemberDTO, v ir.IRValue) error {
		s, _, err := ir.AsString(v)
		d.SetUsername(s)
		return err
	}).
	Setter("age", func(d *MemberDTO, v ir.IRValue) error {
		n, _, err := ir.AsInt(v)
		d.SetAge(int(n))
		return err
	}).
	Field("username", func(d *MemberDTO) any { return &d.Username }).
	Field("age", func(d *MemberDTO) any { return &d.Age })

// UserDTOs maps items labelled name and age.
var UserDTOs = projection.NewDescriptor[UserDTO]("UserDTO").
	Field("name", func(d *UserDTO) any { return &d.Name }).
	Field("age", func(d *UserDTO) any { return &d.Age })

// NewMemberDTO is the positional constructor (username, age).
var NewMemberDTO = projection.Ctor[MemberDTO]{
	Name:   "MemberDTO",
	Params: []ir.Type{ir.TypeString, ir.TypeInt},
	New: func(args []ir.IRValue) (MemberDTO, error) {
		var d MemberDTO
		if err := projection.Assign(&d.Username, args[0]); err != nil {
			return d, err
		}
		return d, projection.Assign(&d.Age, args[1])
	},
}

// NewUserDTO is the positional constructor (name, age).
var NewUserDTO = projection.Ctor[UserDTO]{
	Name:   "UserDTO",
	Params: []ir.Type{ir.TypeString, ir.TypeInt},
	New: func(args []ir.IRValue) (UserDTO, error) {
		var d UserDTO
		if err := projection.Assign(&d.Name, args[0]); err != nil {
			return d, err
		}
		return d, projection.Assign(&d.Age, args[1])
	},
}

// NewQMemberDTO is the statically checked projection into MemberDTO: the
// argument types are fixed by the signature, so a mismatched select list
// does not compile.
func NewQMemberDTO(username queryir.StringExpr, age queryir.NumberExpr) projection.Projection[MemberDTO] {
	return projection.Of2(projection.String(username), projection.Int(age),
		func(u string, a int64) MemberDTO { return MemberDTO{Username: u, Age: int(a)} })
}
