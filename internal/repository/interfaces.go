package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
)

// Sentinel errors returned by implementations; services translate them into
// the caller-facing taxonomy.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate row")
	// ErrConflict means a conditional update matched zero rows: the row's
	// state was not what the caller expected.
	ErrConflict = errors.New("state conflict")
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	GetByResetToken(ctx context.Context, token string) (*model.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type HospitalRepository interface {
	Create(ctx context.Context, hospital *model.Hospital) error
	Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
	Update(ctx context.Context, hospital *model.Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DepartmentRepository interface {
	Create(ctx context.Context, department *model.Department) error
	Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Department, error)
	List(ctx context.Context, hospitalID uuid.UUID) ([]*model.Department, error)
	Delete(ctx context.Context, id, hospitalID uuid.UUID) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	List(ctx context.Context, hospitalID uuid.UUID) ([]*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	// Delete removes the profile row scoped to a hospital. A zero-row
	// delete is not an error: the row may already be gone via cascade.
	Delete(ctx context.Context, id, hospitalID uuid.UUID) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Patient, error)
	// FindByAadhar returns ErrNotFound when no patient with that national
	// id exists in the hospital. Both filters are mandatory.
	FindByAadhar(ctx context.Context, aadhar string, hospitalID uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
}

// VisitRepository exposes one conditional-update method per workflow
// transition. Each returns ErrConflict when the visit was not in the
// expected source state.
type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Visit, error)
	List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error)

	AdvanceToDoctor(ctx context.Context, visitID, hospitalID, doctorID uuid.UUID, isEmergency bool) error
	AdvanceToBilling(ctx context.Context, visitID, hospitalID uuid.UUID) error
	Cancel(ctx context.Context, visitID, hospitalID uuid.UUID) error

	// ClearDoctorAssignments nulls doctor_id on any visit referencing the
	// staff member, within one hospital.
	ClearDoctorAssignments(ctx context.Context, doctorID, hospitalID uuid.UUID) error
}

type VitalRepository interface {
	Create(ctx context.Context, vital *model.Vital) error
	GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Vital, error)
	// Delete detaches a measurement set whose visit left the workflow
	// between the insert and the status update.
	Delete(ctx context.Context, id, hospitalID uuid.UUID) error
	ClearRecordedBy(ctx context.Context, profileID, hospitalID uuid.UUID) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, prescription *model.Prescription) error
	GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Prescription, error)
	Delete(ctx context.Context, id, hospitalID uuid.UUID) error
	ClearDoctor(ctx context.Context, doctorID, hospitalID uuid.UUID) error
}

type InvoiceRepository interface {
	// Finalize inserts the invoice with its items and completes the visit
	// (status completed, payment paid) in a single transaction. Returns
	// ErrConflict when the visit is no longer in waiting_billing and
	// ErrDuplicate when an invoice already exists for the visit.
	Finalize(ctx context.Context, invoice *model.Invoice, items []*model.InvoiceItem) error
	Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Invoice, error)
	GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Invoice, error)
	ListItems(ctx context.Context, invoiceID, hospitalID uuid.UUID) ([]*model.InvoiceItem, error)
	List(ctx context.Context, hospitalID uuid.UUID, p *model.Pagination) ([]*model.Invoice, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event *model.OutboxEvent) error
	// FetchPending also returns failed events that have publish attempts
	// left, so a transient broker outage does not drop a pulse for good.
	FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// ReportRepository serves the read-only reporting queries.
type ReportRepository interface {
	VisitCountsByStatus(ctx context.Context, hospitalID uuid.UUID) (map[model.VisitStatus]int, error)
	DailyVisitCounts(ctx context.Context, hospitalID uuid.UUID, days int) (map[string]int, error)
	RevenueTotal(ctx context.Context, hospitalID uuid.UUID) (float64, error)
	StaffCountsByRole(ctx context.Context, hospitalID uuid.UUID) (map[model.Role]int, error)
}
