package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
)

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	event.CreatedAt = time.Now()
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
	)
	return mapError(err)
}

// maxPublishAttempts caps how often a failed event re-enters the drain
// loop before it is left for operators.
const maxPublishAttempts = 5

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT * FROM outbox_events
		WHERE status = $1 OR (status = $2 AND retry_count < $3)
		ORDER BY created_at ASC
		LIMIT $4
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query,
		model.OutboxStatusPending, model.OutboxStatusFailed, maxPublishAttempts, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_events SET status = $1, processed_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, time.Now(), id)
	return mapError(err)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_events SET status = $1, retry_count = retry_count + 1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, model.OutboxStatusFailed, id)
	return mapError(err)
}

func (r *outboxRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM outbox_events WHERE status = $1`, model.OutboxStatusPending)
	return count, mapError(err)
}
