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

type departmentRepository struct {
	BaseRepository
}

func NewDepartmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.DepartmentRepository {
	return &departmentRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	query := `
		INSERT INTO departments (id, hospital_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	department.CreatedAt = time.Now()
	department.UpdatedAt = department.CreatedAt

	err := r.WithTenant(ctx, department.HospitalID, "departments.create", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			department.ID,
			department.HospitalID,
			department.Name,
			department.CreatedAt,
			department.UpdatedAt,
		)
		return err
	})
	return mapError(err)
}

func (r *departmentRepository) Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Department, error) {
	query := `SELECT * FROM departments WHERE id = $1 AND hospital_id = $2`
	var department model.Department
	err := r.WithTenant(ctx, hospitalID, "departments.get", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &department, query, id, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &department, nil
}

func (r *departmentRepository) List(ctx context.Context, hospitalID uuid.UUID) ([]*model.Department, error) {
	query := `SELECT * FROM departments WHERE hospital_id = $1 ORDER BY name ASC`
	var departments []*model.Department
	err := r.WithTenant(ctx, hospitalID, "departments.list", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &departments, query, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return departments, nil
}

func (r *departmentRepository) Delete(ctx context.Context, id, hospitalID uuid.UUID) error {
	// profiles.department_id is ON DELETE SET NULL, so staff rows survive.
	err := r.WithTenant(ctx, hospitalID, "departments.delete", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM departments WHERE id = $1 AND hospital_id = $2`, id, hospitalID)
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
