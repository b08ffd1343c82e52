package workers

import (
	"context"
	"time"

	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
)

const relayBatchSize = 100

type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]gormModels.ExperienceEvent, error)
	MarkPublished(ctx context.Context, ids []uint64, at time.Time) error
	CountUnpublished(ctx context.Context) (int64, error)
}

type EventPublisher interface {
	PublishBatch(ctx context.Context, events []entities.LifecycleEvent) error
}

// EventRelay moves committed outbox rows onto the event stream. Delivery is
// at-least-once: a crash between publish and mark republishes the batch.
type EventRelay struct {
	outbox    OutboxStore
	publisher EventPublisher
	metrics   *metrics.MetricsRegistry
	now       func() time.Time
}

func NewEventRelay(outbox OutboxStore, publisher EventPublisher, metricsReg *metrics.MetricsRegistry) *EventRelay {
	return &EventRelay{
		outbox:    outbox,
		publisher: publisher,
		metrics:   metricsReg,
		now:       time.Now,
	}
}

// Start relays on every tick until ctx is cancelled.
func (r *EventRelay) Start(ctx context.Context, interval time.Duration) error {
	logging.Info("Event relay started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Event relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				logging.Warn("Event relay pass failed", "error", err)
			}
		}
	}
}

// Drain publishes batches until the outbox is empty and returns how many
// events went out.
func (r *EventRelay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil || n < relayBatchSize {
			r.updateBacklog(ctx)
			return total, err
		}
	}
}

// RelayOnce publishes a single batch.
func (r *EventRelay) RelayOnce(ctx context.Context) (int, error) {
	rows, err := r.outbox.FetchUnpublished(ctx, relayBatchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	events := make([]entities.LifecycleEvent, 0, len(rows))
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		events = append(events, entities.LifecycleEvent{
			OutboxID:   row.ID,
			Kind:       row.Kind,
			RecordID:   row.RecordID,
			ServerID:   row.ServerID,
			OccurredAt: row.OccurredAt,
		})
		ids = append(ids, row.ID)
	}

	if err := r.publisher.PublishBatch(ctx, events); err != nil {
		return 0, err
	}
	if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
		// already on the stream; consumers tolerate the duplicate on the next pass
		return 0, err
	}

	if r.metrics != nil {
		r.metrics.EventsRelayedTotal.Add(float64(len(events)))
	}
	logging.Debug("Relayed outbox events", "count", len(events), "last_id", ids[len(ids)-1])
	return len(events), nil
}

func (r *EventRelay) updateBacklog(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	count, err := r.outbox.CountUnpublished(ctx)
	if err != nil {
		logging.Warn("Failed to count outbox backlog", "error", err)
		return
	}
	r.metrics.OutboxBacklog.Set(float64(count))
}
