package model

import "github.com/google/uuid"

type Role string

const (
	RoleOwner        Role = "owner"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleDoctor, RoleNurse, RoleReceptionist:
		return true
	}
	return false
}

// InvitableRoles are the roles an owner may hand out. Ownership is only
// created at hospital registration.
var InvitableRoles = []Role{RoleDoctor, RoleNurse, RoleReceptionist}

func Invitable(r Role) bool {
	for _, role := range InvitableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is a staff account. Its id is the identity-provider user id.
// DepartmentID is only meaningful for doctors and survives department
// deletion as NULL.
type Profile struct {
	Base
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	HospitalID   uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	Role         Role       `db:"role" json:"role"`
	DepartmentID *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	PasswordSet  bool       `db:"password_set" json:"password_set"`
}

type InviteStaffRequest struct {
	Email        string `json:"email" binding:"required,email"`
	FullName     string `json:"fullName" binding:"required,min=2"`
	Role         Role   `json:"role" binding:"required,oneof=doctor nurse receptionist"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
}

type UpdateStaffRequest struct {
	FullName     *string `json:"full_name" binding:"omitempty,min=2"`
	Role         *Role   `json:"role" binding:"omitempty,oneof=doctor nurse receptionist"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}
