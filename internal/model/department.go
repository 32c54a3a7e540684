package model

import "github.com/google/uuid"

type Department struct {
	Base
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}
