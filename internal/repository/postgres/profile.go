package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, hospital_id, role, department_id, password_set, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.HospitalID,
		profile.Role,
		profile.DepartmentID,
		profile.PasswordSet,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return mapError(err)
}

func (r *profileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE id = $1`
	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context, hospitalID uuid.UUID) ([]*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE hospital_id = $1 ORDER BY full_name ASC`
	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, hospitalID); err != nil {
		return nil, mapError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, role = $2, department_id = $3, password_set = $4, updated_at = $5
		WHERE id = $6 AND hospital_id = $7
	`
	profile.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		profile.FullName,
		profile.Role,
		profile.DepartmentID,
		profile.PasswordSet,
		profile.UpdatedAt,
		profile.ID,
		profile.HospitalID,
	)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, id, hospitalID uuid.UUID) error {
	// Zero rows is fine here: the identity-provider cascade may have
	// removed the row already.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1 AND hospital_id = $2`, id, hospitalID)
	return mapError(err)
}
