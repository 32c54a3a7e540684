package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Medication struct {
	Name      string `json:"name" binding:"required"`
	Dosage    string `json:"dosage" binding:"required"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// MedicationList is stored as a JSONB column.
type MedicationList []Medication

func (m MedicationList) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MedicationList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported medication list type %T", src)
}

// Prescription is the doctor's consultation outcome for a visit, one row
// per visit.
type Prescription struct {
	Base
	HospitalID  uuid.UUID      `db:"hospital_id" json:"hospital_id"`
	VisitID     uuid.UUID      `db:"visit_id" json:"visit_id"`
	PatientID   uuid.UUID      `db:"patient_id" json:"patient_id"`
	DoctorID    *uuid.UUID     `db:"doctor_id" json:"doctor_id,omitempty"`
	Diagnosis   string         `db:"diagnosis" json:"diagnosis"`
	Medications MedicationList `db:"medications" json:"medications"`
	Notes       string         `db:"notes" json:"notes"`
}

// RecordPrescriptionRequest advances a visit from waiting_doctor to
// waiting_billing.
type RecordPrescriptionRequest struct {
	Diagnosis   string       `json:"diagnosis" binding:"required,min=2"`
	Medications []Medication `json:"medications" binding:"omitempty,dive"`
	Notes       string       `json:"notes" binding:"omitempty,max=2000"`
}
