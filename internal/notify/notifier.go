// Package notify turns committed mutations into cache-invalidation pulses.
// Writers enqueue an outbox row; the worker drains rows to the broker so a
// crash between commit and publish loses nothing.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/messaging"
)

// Notifier records that a tenant's table changed. Best-effort: a failed
// enqueue is logged, never propagated, because the mutation has already
// committed.
type Notifier interface {
	Changed(ctx context.Context, hospitalID uuid.UUID, table, op string, entityID uuid.UUID)
}

type notifier struct {
	outbox repository.OutboxRepository
	logger *logger.Logger
}

func NewNotifier(outbox repository.OutboxRepository, logger *logger.Logger) Notifier {
	return &notifier{outbox: outbox, logger: logger}
}

func (n *notifier) Changed(ctx context.Context, hospitalID uuid.UUID, table, op string, entityID uuid.UUID) {
	event := messaging.ChangeEvent{
		Table:      table,
		HospitalID: hospitalID.String(),
		Op:         op,
		EntityID:   entityID.String(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error(err, "failed to marshal change event", "table", table)
		return
	}

	if err := n.outbox.Enqueue(ctx, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: messaging.ChangeChannel(hospitalID.String(), table),
		Payload:   payload,
	}); err != nil {
		n.logger.Error(err, "failed to enqueue change event", "table", table)
	}
}

// NopNotifier discards pulses; used in tests.
type NopNotifier struct{}

func (NopNotifier) Changed(context.Context, uuid.UUID, string, string, uuid.UUID) {}
