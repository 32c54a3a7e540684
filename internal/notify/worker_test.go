package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/messaging"
	"github.com/medicore/hospital-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("notify_test")

type fakeOutboxRepo struct {
	events    []*model.OutboxEvent
	processed []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, event *model.OutboxEvent) error {
	event.Status = model.OutboxStatusPending
	f.events = append(f.events, event)
	return nil
}

// maxAttempts mirrors the cap the store applies when re-fetching failed
// events.
const maxAttempts = 5

func (f *fakeOutboxRepo) FetchPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	for _, e := range f.events {
		if len(out) >= limit {
			break
		}
		if e.Status == model.OutboxStatusPending ||
			(e.Status == model.OutboxStatusFailed && e.RetryCount < maxAttempts) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	for _, e := range f.events {
		if e.ID == id {
			e.Status = model.OutboxStatusProcessed
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID) error {
	f.failed = append(f.failed, id)
	for _, e := range f.events {
		if e.ID == id {
			e.Status = model.OutboxStatusFailed
			e.RetryCount++
		}
	}
	return nil
}

func (f *fakeOutboxRepo) CountPending(_ context.Context) (int, error) {
	n := 0
	for _, e := range f.events {
		if e.Status == model.OutboxStatusPending {
			n++
		}
	}
	return n, nil
}

type fakeBroker struct {
	published map[string][]interface{}
	failOn    string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][]interface{})}
}

func (f *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if channel == f.failOn {
		return errors.New("broker down")
	}
	f.published[channel] = append(f.published[channel], message)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBroker) Close() error { return nil }

func TestNotifierEnqueuesChangeEvent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	n := NewNotifier(repo, logger.NewLogger(nil))

	hospitalID := uuid.New()
	entityID := uuid.New()
	n.Changed(context.Background(), hospitalID, "visits", "update", entityID)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, messaging.ChangeChannel(hospitalID.String(), "visits"), event.EventType)

	var pulse messaging.ChangeEvent
	require.NoError(t, json.Unmarshal(event.Payload, &pulse))
	assert.Equal(t, "visits", pulse.Table)
	assert.Equal(t, hospitalID.String(), pulse.HospitalID)
	assert.Equal(t, "update", pulse.Op)
	assert.Equal(t, entityID.String(), pulse.EntityID)
}

func TestWorkerDrainPublishesAndMarks(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := newFakeBroker()
	n := NewNotifier(repo, logger.NewLogger(nil))

	hospitalID := uuid.New()
	n.Changed(context.Background(), hospitalID, "patients", "insert", uuid.New())
	n.Changed(context.Background(), hospitalID, "visits", "update", uuid.New())

	w := NewWorker(repo, broker, WorkerConfig{}, logger.NewLogger(nil), testMetrics)
	require.NoError(t, w.drain(context.Background()))

	assert.Len(t, repo.processed, 2)
	assert.Empty(t, repo.failed)
	assert.Len(t, broker.published[messaging.ChangeChannel(hospitalID.String(), "patients")], 1)
	assert.Len(t, broker.published[messaging.ChangeChannel(hospitalID.String(), "visits")], 1)

	// A second drain finds nothing pending.
	require.NoError(t, w.drain(context.Background()))
	assert.Len(t, repo.processed, 2)
}

func TestWorkerDrainMarksFailedAndContinues(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := newFakeBroker()
	n := NewNotifier(repo, logger.NewLogger(nil))

	hospitalID := uuid.New()
	n.Changed(context.Background(), hospitalID, "patients", "insert", uuid.New())
	n.Changed(context.Background(), hospitalID, "visits", "update", uuid.New())
	broker.failOn = messaging.ChangeChannel(hospitalID.String(), "patients")

	w := NewWorker(repo, broker, WorkerConfig{}, logger.NewLogger(nil), testMetrics)
	require.NoError(t, w.drain(context.Background()))

	// The failed event is marked, the rest still go out.
	assert.Len(t, repo.failed, 1)
	assert.Len(t, repo.processed, 1)
	assert.Len(t, broker.published[messaging.ChangeChannel(hospitalID.String(), "visits")], 1)
}

func TestWorkerRetriesFailedEventAfterBrokerRecovers(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := newFakeBroker()
	n := NewNotifier(repo, logger.NewLogger(nil))

	hospitalID := uuid.New()
	n.Changed(context.Background(), hospitalID, "patients", "insert", uuid.New())
	channel := messaging.ChangeChannel(hospitalID.String(), "patients")
	broker.failOn = channel

	w := NewWorker(repo, broker, WorkerConfig{}, logger.NewLogger(nil), testMetrics)
	require.NoError(t, w.drain(context.Background()))
	assert.Empty(t, broker.published[channel])
	assert.Equal(t, 1, repo.events[0].RetryCount)

	// Broker back: the next drain picks the failed event up again.
	broker.failOn = ""
	require.NoError(t, w.drain(context.Background()))
	assert.Len(t, broker.published[channel], 1)
	assert.Equal(t, model.OutboxStatusProcessed, repo.events[0].Status)
}

func TestWorkerStopsRetryingAtAttemptCap(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := newFakeBroker()
	n := NewNotifier(repo, logger.NewLogger(nil))

	hospitalID := uuid.New()
	n.Changed(context.Background(), hospitalID, "patients", "insert", uuid.New())
	channel := messaging.ChangeChannel(hospitalID.String(), "patients")
	broker.failOn = channel

	w := NewWorker(repo, broker, WorkerConfig{}, logger.NewLogger(nil), testMetrics)
	for i := 0; i < maxAttempts+2; i++ {
		require.NoError(t, w.drain(context.Background()))
	}

	// Attempts stop at the cap; the event stays failed for operators.
	assert.Equal(t, maxAttempts, repo.events[0].RetryCount)
	assert.Equal(t, model.OutboxStatusFailed, repo.events[0].Status)
	assert.Empty(t, broker.published[channel])
}
