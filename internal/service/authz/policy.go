// Package authz holds the role-based write rules as one pure function,
// testable without a request handler or a database. Every mutating service
// method consults it first; unknown combinations are denied.
package authz

import (
	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

// Action names a mutation in the system.
type Action string

const (
	ActionOpenVisit          Action = "visit.open"
	ActionRecordVitals       Action = "visit.record_vitals"
	ActionRecordPrescription Action = "visit.record_prescription"
	ActionGenerateInvoice    Action = "visit.generate_invoice"
	ActionCancelVisit        Action = "visit.cancel"

	ActionRegisterPatient Action = "patient.register"
	ActionUpdatePatient   Action = "patient.update"

	ActionInviteStaff       Action = "staff.invite"
	ActionUpdateStaff       Action = "staff.update"
	ActionRemoveStaff       Action = "staff.remove"
	ActionManageDepartments Action = "department.manage"
	ActionUpdateHospital    Action = "hospital.update"
)

// rules maps each action to the roles allowed to perform it. Absence means
// denied.
var rules = map[Action][]model.Role{
	ActionOpenVisit:          {model.RoleReceptionist, model.RoleOwner},
	ActionRecordVitals:       {model.RoleNurse},
	ActionRecordPrescription: {model.RoleDoctor},
	ActionGenerateInvoice:    {model.RoleReceptionist, model.RoleOwner},
	ActionCancelVisit:        {model.RoleOwner},

	ActionRegisterPatient: {model.RoleReceptionist, model.RoleOwner},
	ActionUpdatePatient:   {model.RoleReceptionist, model.RoleOwner},

	ActionInviteStaff:       {model.RoleOwner},
	ActionUpdateStaff:       {model.RoleOwner},
	ActionRemoveStaff:       {model.RoleOwner},
	ActionManageDepartments: {model.RoleOwner},
	ActionUpdateHospital:    {model.RoleOwner},
}

// Can reports whether the role may perform the action.
func Can(role model.Role, action Action) bool {
	for _, allowed := range rules[action] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Require returns Forbidden unless the role may perform the action.
func Require(actor *model.Actor, action Action) error {
	if actor == nil || !Can(actor.Role, action) {
		return apperrors.Forbidden("")
	}
	return nil
}

// RequireTenant returns Forbidden when the actor and the row belong to
// different hospitals. This backs the conditional updates; the data store's
// row policies are the second line of defense.
func RequireTenant(actor *model.Actor, hospitalID uuid.UUID) error {
	if actor == nil || actor.HospitalID != hospitalID {
		return apperrors.Forbidden("resource belongs to another hospital")
	}
	return nil
}
