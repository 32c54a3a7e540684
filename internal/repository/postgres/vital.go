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

type vitalRepository struct {
	BaseRepository
}

func NewVitalRepository(db *sqlx.DB, m *metrics.Metrics) repository.VitalRepository {
	return &vitalRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *vitalRepository) Create(ctx context.Context, vital *model.Vital) error {
	// UNIQUE(visit_id) turns the one-measurement-set-per-visit assumption
	// into a constraint; a second insert surfaces ErrDuplicate.
	query := `
		INSERT INTO vitals (id, hospital_id, visit_id, patient_id, recorded_by,
			blood_pressure, heart_rate, temperature, oxygen_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	vital.CreatedAt = time.Now()
	vital.UpdatedAt = vital.CreatedAt

	err := r.WithTenant(ctx, vital.HospitalID, "vitals.create", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			vital.ID,
			vital.HospitalID,
			vital.VisitID,
			vital.PatientID,
			vital.RecordedBy,
			vital.BloodPressure,
			vital.HeartRate,
			vital.Temperature,
			vital.OxygenLevel,
			vital.CreatedAt,
			vital.UpdatedAt,
		)
		return err
	})
	return mapError(err)
}

func (r *vitalRepository) GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Vital, error) {
	query := `SELECT * FROM vitals WHERE visit_id = $1 AND hospital_id = $2`
	var vital model.Vital
	err := r.WithTenant(ctx, hospitalID, "vitals.get_by_visit", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &vital, query, visitID, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &vital, nil
}

func (r *vitalRepository) Delete(ctx context.Context, id, hospitalID uuid.UUID) error {
	err := r.WithTenant(ctx, hospitalID, "vitals.delete", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM vitals WHERE id = $1 AND hospital_id = $2`, id, hospitalID)
		return err
	})
	return mapError(err)
}

func (r *vitalRepository) ClearRecordedBy(ctx context.Context, profileID, hospitalID uuid.UUID) error {
	query := `UPDATE vitals SET recorded_by = NULL, updated_at = $1 WHERE recorded_by = $2 AND hospital_id = $3`
	err := r.WithTenant(ctx, hospitalID, "vitals.clear_recorded_by", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, time.Now(), profileID, hospitalID)
		return err
	})
	return mapError(err)
}
