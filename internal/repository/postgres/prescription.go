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

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB, m *metrics.Metrics) repository.PrescriptionRepository {
	return &prescriptionRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (id, hospital_id, visit_id, patient_id, doctor_id,
			diagnosis, medications, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	prescription.CreatedAt = time.Now()
	prescription.UpdatedAt = prescription.CreatedAt

	err := r.WithTenant(ctx, prescription.HospitalID, "prescriptions.create", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			prescription.ID,
			prescription.HospitalID,
			prescription.VisitID,
			prescription.PatientID,
			prescription.DoctorID,
			prescription.Diagnosis,
			prescription.Medications,
			prescription.Notes,
			prescription.CreatedAt,
			prescription.UpdatedAt,
		)
		return err
	})
	return mapError(err)
}

func (r *prescriptionRepository) GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE visit_id = $1 AND hospital_id = $2`
	var prescription model.Prescription
	err := r.WithTenant(ctx, hospitalID, "prescriptions.get_by_visit", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &prescription, query, visitID, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id, hospitalID uuid.UUID) error {
	err := r.WithTenant(ctx, hospitalID, "prescriptions.delete", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM prescriptions WHERE id = $1 AND hospital_id = $2`, id, hospitalID)
		return err
	})
	return mapError(err)
}

func (r *prescriptionRepository) ClearDoctor(ctx context.Context, doctorID, hospitalID uuid.UUID) error {
	query := `UPDATE prescriptions SET doctor_id = NULL, updated_at = $1 WHERE doctor_id = $2 AND hospital_id = $3`
	err := r.WithTenant(ctx, hospitalID, "prescriptions.clear_doctor", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, time.Now(), doctorID, hospitalID)
		return err
	})
	return mapError(err)
}
