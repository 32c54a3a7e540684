package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return mapError(err)
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE email = $1`, email); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $1, reset_token = NULL, reset_expiry = NULL, updated_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accountRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	query := `UPDATE accounts SET reset_token = $1, reset_expiry = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, token, expiry, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accountRepository) GetByResetToken(ctx context.Context, token string) (*model.Account, error) {
	query := `SELECT * FROM accounts WHERE reset_token = $1 AND reset_expiry > $2`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, token, time.Now()); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return mapError(err)
}
