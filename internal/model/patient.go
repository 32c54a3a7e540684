package model

import "github.com/google/uuid"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is the long-lived person record. One patient accumulates many
// visits. Aadhar uniqueness is per hospital: the same person at two
// hospitals is two independent rows.
type Patient struct {
	Base
	HospitalID    uuid.UUID `db:"hospital_id" json:"hospital_id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Age           int       `db:"age" json:"age"`
	Gender        Gender    `db:"gender" json:"gender"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	AadharNumber  string    `db:"aadhar_number" json:"aadhar_number"`
}

type RegisterPatientRequest struct {
	FullName      string `json:"full_name" binding:"required,min=2"`
	Age           int    `json:"age" binding:"min=0,max=120"`
	Gender        Gender `json:"gender" binding:"required,oneof=male female other"`
	ContactNumber string `json:"contact_number" binding:"required,min=10"`
	AadharNumber  string `json:"aadhar_number" binding:"required,len=12,numeric"`
}

type UpdatePatientRequest struct {
	FullName      *string `json:"full_name" binding:"omitempty,min=2"`
	Age           *int    `json:"age" binding:"omitempty,min=0,max=120"`
	Gender        *Gender `json:"gender" binding:"omitempty,oneof=male female other"`
	ContactNumber *string `json:"contact_number" binding:"omitempty,min=10"`
}

type PatientFilters struct {
	HospitalID uuid.UUID
	Search     string
	Pagination
}
