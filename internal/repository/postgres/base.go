package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// WithTenant runs fn in a transaction with the row-level security setting
// bound to hospitalID. Every tenant-scoped repository call goes through
// here: the policies in schema.sql compare each row's hospital_id against
// `app.hospital_id`, and that setting only exists on the connection for
// the duration of this transaction.
func (r *BaseRepository) WithTenant(ctx context.Context, hospitalID uuid.UUID, op string, fn func(*sqlx.Tx) error) error {
	start := time.Now()
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.SetTenant(ctx, tx, hospitalID); err != nil {
			return err
		}
		return fn(tx)
	})
	r.observe(op, start, err)
	return err
}

// SetTenant binds the row-level security predicate for the transaction.
// The third argument to set_config makes the setting transaction-local,
// so nothing leaks onto the pooled connection.
func (r *BaseRepository) SetTenant(ctx context.Context, tx *sqlx.Tx, hospitalID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`SELECT set_config('app.hospital_id', $1, true)`, hospitalID.String())
	return err
}

func (r *BaseRepository) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
