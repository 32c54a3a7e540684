package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
)

type hospitalRepository struct {
	db *sqlx.DB
}

func NewHospitalRepository(db *sqlx.DB) repository.HospitalRepository {
	return &hospitalRepository{db: db}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) error {
	query := `
		INSERT INTO hospitals (id, name, subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	hospital.CreatedAt = time.Now()
	hospital.UpdatedAt = hospital.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		hospital.ID,
		hospital.Name,
		hospital.SubscriptionStatus,
		hospital.CreatedAt,
		hospital.UpdatedAt,
	)
	return mapError(err)
}

func (r *hospitalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	query := `SELECT * FROM hospitals WHERE id = $1`
	var hospital model.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		return nil, mapError(err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) Update(ctx context.Context, hospital *model.Hospital) error {
	query := `
		UPDATE hospitals SET name = $1, subscription_status = $2, updated_at = $3
		WHERE id = $4
	`
	hospital.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		hospital.Name, hospital.SubscriptionStatus, hospital.UpdatedAt, hospital.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *hospitalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	return mapError(err)
}
