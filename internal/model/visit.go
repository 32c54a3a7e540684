package model

import (
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitWaitingVitals  VisitStatus = "waiting_vitals"
	VisitWaitingDoctor  VisitStatus = "waiting_doctor"
	VisitWaitingBilling VisitStatus = "waiting_billing"
	VisitCompleted      VisitStatus = "completed"
	VisitCancelled      VisitStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Visit is the workflow unit: one episode of care moving through
// waiting_vitals → waiting_doctor → waiting_billing → completed, with
// cancelled as an owner-only alternate terminal state.
type Visit struct {
	Base
	HospitalID     uuid.UUID     `db:"hospital_id" json:"hospital_id"`
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID       *uuid.UUID    `db:"doctor_id" json:"doctor_id,omitempty"`
	ChiefComplaint string        `db:"chief_complaint" json:"chief_complaint"`
	VisitDate      time.Time     `db:"visit_date" json:"visit_date"`
	IsEmergency    bool          `db:"is_emergency" json:"is_emergency"`
	Status         VisitStatus   `db:"status" json:"status"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
}

// Terminal reports whether no further transitions are permitted.
func (s VisitStatus) Terminal() bool {
	return s == VisitCompleted || s == VisitCancelled
}

// Next returns the single legal successor in the forward workflow, or ""
// for terminal states.
func (s VisitStatus) Next() VisitStatus {
	switch s {
	case VisitWaitingVitals:
		return VisitWaitingDoctor
	case VisitWaitingDoctor:
		return VisitWaitingBilling
	case VisitWaitingBilling:
		return VisitCompleted
	}
	return ""
}

type OpenVisitRequest struct {
	PatientID      string `json:"patient_id" binding:"required,uuid"`
	ChiefComplaint string `json:"chief_complaint" binding:"omitempty,max=1000"`
}

type VisitFilters struct {
	HospitalID uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	Status     VisitStatus
	ActiveOnly bool
}
