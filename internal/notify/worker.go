package notify

import (
	"context"
	"time"

	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/messaging"
	"github.com/medicore/hospital-api/pkg/metrics"
)

type WorkerConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// Worker drains pending outbox events to the broker.
type Worker struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  WorkerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewWorker(repo repository.OutboxRepository, broker messaging.Broker, config WorkerConfig, logger *logger.Logger, metrics *metrics.Metrics) *Worker {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	return &Worker{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start polls until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.Error(err, "outbox drain failed")
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.repo.FetchPending(ctx, w.config.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		// EventType doubles as the pub/sub channel name.
		if err := w.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
			w.logger.Error(err, "failed to publish change event", "channel", event.EventType)
			w.metrics.OutboxEventsFailed.Inc()
			if err := w.repo.MarkFailed(ctx, event.ID); err != nil {
				w.logger.Error(err, "failed to mark outbox event failed", "id", event.ID)
			}
			continue
		}
		if err := w.repo.MarkProcessed(ctx, event.ID); err != nil {
			w.logger.Error(err, "failed to mark outbox event processed", "id", event.ID)
			continue
		}
		w.metrics.OutboxEventsProcessed.Inc()
	}

	if pending, err := w.repo.CountPending(ctx); err == nil {
		w.metrics.OutboxQueueSize.Set(float64(pending))
	}
	return nil
}
