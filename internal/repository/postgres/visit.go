package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/metrics"
)

type visitRepository struct {
	BaseRepository
}

func NewVisitRepository(db *sqlx.DB, m *metrics.Metrics) repository.VisitRepository {
	return &visitRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	query := `
		INSERT INTO visits (id, hospital_id, patient_id, doctor_id, chief_complaint,
			visit_date, is_emergency, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = visit.CreatedAt

	err := r.WithTenant(ctx, visit.HospitalID, "visits.create", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			visit.ID,
			visit.HospitalID,
			visit.PatientID,
			visit.DoctorID,
			visit.ChiefComplaint,
			visit.VisitDate,
			visit.IsEmergency,
			visit.Status,
			visit.PaymentStatus,
			visit.CreatedAt,
			visit.UpdatedAt,
		)
		return err
	})
	return mapError(err)
}

func (r *visitRepository) Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE id = $1 AND hospital_id = $2`
	var visit model.Visit
	err := r.WithTenant(ctx, hospitalID, "visits.get", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &visit, query, id, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &visit, nil
}

// List orders by visit_date ascending so queue displays show the
// oldest-waiting visit first.
func (r *visitRepository) List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	query := `
		SELECT * FROM visits
		WHERE hospital_id = $1
		  AND ($2::uuid IS NULL OR patient_id = $2)
		  AND ($3::uuid IS NULL OR doctor_id = $3)
		  AND ($4 = '' OR status = $4)
		  AND (NOT $5 OR status NOT IN ('completed', 'cancelled'))
		ORDER BY visit_date ASC
	`
	var visits []*model.Visit
	err := r.WithTenant(ctx, filters.HospitalID, "visits.list", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &visits, query,
			filters.HospitalID,
			nullableUUID(filters.PatientID),
			nullableUUID(filters.DoctorID),
			string(filters.Status),
			filters.ActiveOnly,
		)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return visits, nil
}

// AdvanceToDoctor is a compare-and-swap on the current status: two nurses
// racing on the same visit means exactly one wins and the other sees
// ErrConflict.
func (r *visitRepository) AdvanceToDoctor(ctx context.Context, visitID, hospitalID, doctorID uuid.UUID, isEmergency bool) error {
	query := `
		UPDATE visits
		SET status = $1, doctor_id = $2, is_emergency = $3, updated_at = $4
		WHERE id = $5 AND hospital_id = $6 AND status = $7
	`
	return r.advance(ctx, hospitalID, "visits.advance_to_doctor", query,
		model.VisitWaitingDoctor, doctorID, isEmergency, time.Now(),
		visitID, hospitalID, model.VisitWaitingVitals)
}

func (r *visitRepository) AdvanceToBilling(ctx context.Context, visitID, hospitalID uuid.UUID) error {
	query := `
		UPDATE visits
		SET status = $1, payment_status = $2, updated_at = $3
		WHERE id = $4 AND hospital_id = $5 AND status = $6
	`
	return r.advance(ctx, hospitalID, "visits.advance_to_billing", query,
		model.VisitWaitingBilling, model.PaymentPending, time.Now(),
		visitID, hospitalID, model.VisitWaitingDoctor)
}

func (r *visitRepository) Cancel(ctx context.Context, visitID, hospitalID uuid.UUID) error {
	query := `
		UPDATE visits
		SET status = $1, updated_at = $2
		WHERE id = $3 AND hospital_id = $4 AND status NOT IN ('completed', 'cancelled')
	`
	return r.advance(ctx, hospitalID, "visits.cancel", query,
		model.VisitCancelled, time.Now(), visitID, hospitalID)
}

func (r *visitRepository) advance(ctx context.Context, hospitalID uuid.UUID, op, query string, args ...interface{}) error {
	err := r.WithTenant(ctx, hospitalID, op, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return repository.ErrConflict
		}
		return nil
	})
	if err == repository.ErrConflict {
		return err
	}
	return mapError(err)
}

func (r *visitRepository) ClearDoctorAssignments(ctx context.Context, doctorID, hospitalID uuid.UUID) error {
	query := `UPDATE visits SET doctor_id = NULL, updated_at = $1 WHERE doctor_id = $2 AND hospital_id = $3`
	err := r.WithTenant(ctx, hospitalID, "visits.clear_doctor", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, time.Now(), doctorID, hospitalID)
		return err
	})
	return mapError(err)
}

func nullableUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
