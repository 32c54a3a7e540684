package model

import "github.com/google/uuid"

// Vital is the single nurse-recorded measurement set for a visit. The
// schema enforces one row per visit.
type Vital struct {
	Base
	HospitalID    uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	VisitID       uuid.UUID  `db:"visit_id" json:"visit_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordedBy    *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	BloodPressure string     `db:"blood_pressure" json:"blood_pressure"`
	HeartRate     *int       `db:"heart_rate" json:"heart_rate,omitempty"`
	Temperature   *float64   `db:"temperature" json:"temperature,omitempty"`
	OxygenLevel   *int       `db:"oxygen_level" json:"oxygen_level,omitempty"`
}

// RecordVitalsRequest advances a visit from waiting_vitals to
// waiting_doctor. Measurement fields may be left empty for emergencies;
// otherwise blood pressure and heart rate are required.
type RecordVitalsRequest struct {
	BloodPressure string   `json:"blood_pressure" binding:"omitempty,max=16"`
	HeartRate     *int     `json:"heart_rate" binding:"omitempty,min=0,max=300"`
	Temperature   *float64 `json:"temperature" binding:"omitempty,min=25,max=45"`
	OxygenLevel   *int     `json:"oxygen_level" binding:"omitempty,min=0,max=100"`
	DoctorID      string   `json:"doctor_id" binding:"required,uuid"`
	IsEmergency   bool     `json:"is_emergency"`
}
