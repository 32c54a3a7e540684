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

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, hospital_id, full_name, age, gender, contact_number, aadhar_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	err := r.WithTenant(ctx, patient.HospitalID, "patients.create", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			patient.ID,
			patient.HospitalID,
			patient.FullName,
			patient.Age,
			patient.Gender,
			patient.ContactNumber,
			patient.AadharNumber,
			patient.CreatedAt,
			patient.UpdatedAt,
		)
		return err
	})
	return mapError(err)
}

func (r *patientRepository) Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1 AND hospital_id = $2`
	var patient model.Patient
	err := r.WithTenant(ctx, hospitalID, "patients.get", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &patient, query, id, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &patient, nil
}

// FindByAadhar filters by national id AND hospital. The hospital filter is
// load-bearing: without it a receptionist could see another tenant's
// patient with the same aadhar.
func (r *patientRepository) FindByAadhar(ctx context.Context, aadhar string, hospitalID uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE aadhar_number = $1 AND hospital_id = $2 LIMIT 1`
	var patient model.Patient
	err := r.WithTenant(ctx, hospitalID, "patients.find_by_aadhar", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &patient, query, aadhar, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET full_name = $1, age = $2, gender = $3, contact_number = $4, updated_at = $5
		WHERE id = $6 AND hospital_id = $7
	`
	patient.UpdatedAt = time.Now()
	err := r.WithTenant(ctx, patient.HospitalID, "patients.update", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			patient.FullName,
			patient.Age,
			patient.Gender,
			patient.ContactNumber,
			patient.UpdatedAt,
			patient.ID,
			patient.HospitalID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err == repository.ErrNotFound {
		return err
	}
	return mapError(err)
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	filters.Normalize()
	query := `
		SELECT * FROM patients
		WHERE hospital_id = $1
		  AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR aadhar_number = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	var patients []*model.Patient
	err := r.WithTenant(ctx, filters.HospitalID, "patients.list", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &patients, query,
			filters.HospitalID, filters.Search, filters.PageSize, filters.Offset())
	})
	if err != nil {
		return nil, mapError(err)
	}
	return patients, nil
}
