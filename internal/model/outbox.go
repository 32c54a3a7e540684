package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// OutboxEvent is a change pulse written in the same transaction as the
// mutation it describes and drained to the broker by the outbox worker.
type OutboxEvent struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Status      OutboxStatus    `db:"status" json:"status"`
	RetryCount  int             `db:"retry_count" json:"retry_count"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}
