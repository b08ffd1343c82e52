package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/models/entities"
)

const (
	consumeBatch     = 10
	consumeBlockTime = 5 * time.Second
	staleClaimAfter  = time.Minute
	claimInterval    = 30 * time.Second
)

type EventConsumer interface {
	CreateConsumerGroup(ctx context.Context, group string) error
	Consume(ctx context.Context, group, consumer string, count int64, blockTime time.Duration) ([]common.StreamMessage, error)
	ClaimStale(ctx context.Context, group, consumer string, minIdle time.Duration) ([]common.StreamMessage, error)
	Ack(ctx context.Context, group string, ids ...string) error
}

// EventHandler reacts to one lifecycle event. Returning a retryable
// *common.AppError leaves the message pending so it is reclaimed later.
type EventHandler interface {
	Handle(ctx context.Context, event entities.LifecycleEvent) error
}

// NotificationWorker consumes the lifecycle event stream through a consumer group.
type NotificationWorker struct {
	workerID string
	group    string
	consumer EventConsumer
	handler  EventHandler
}

func NewNotificationWorker(workerID, group string, consumer EventConsumer, handler EventHandler) *NotificationWorker {
	return &NotificationWorker{
		workerID: workerID,
		group:    group,
		consumer: consumer,
		handler:  handler,
	}
}

// Start runs numWorkers consumers plus a stale-message claimer until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context, numWorkers int) error {
	if err := w.consumer.CreateConsumerGroup(ctx, w.group); err != nil {
		return fmt.Errorf("failed to create consumer group %s: %w", w.group, err)
	}
	logging.Info("Notification worker started", "group", w.group, "workers", numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, name)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx, w.workerID+"-claimer")
	}()

	wg.Wait()
	logging.Info("Notification worker stopped", "group", w.group)
	return nil
}

func (w *NotificationWorker) processQueue(ctx context.Context, workerName string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.consumer.Consume(ctx, w.group, workerName, consumeBatch, consumeBlockTime)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Warn("Event stream read failed", "worker", workerName, "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}

		w.handleBatch(ctx, workerName, messages)
	}
}

func (w *NotificationWorker) claimStaleMessages(ctx context.Context, workerName string) {
	ticker := time.NewTicker(claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			messages, err := w.consumer.ClaimStale(ctx, w.group, workerName, staleClaimAfter)
			if err != nil {
				logging.Warn("Failed to claim stale events", "error", err)
				continue
			}
			if len(messages) > 0 {
				logging.Info("Reclaimed stale events", "count", len(messages))
			}
			w.handleBatch(ctx, workerName, messages)
		}
	}
}

// handleBatch handles messages in order and acks the ones that are done.
// Retryable failures stay pending for the claimer.
func (w *NotificationWorker) handleBatch(ctx context.Context, workerName string, messages []common.StreamMessage) {
	var done []string
	for _, msg := range messages {
		if msg.Malformed {
			done = append(done, msg.ID)
			continue
		}

		err := w.handler.Handle(ctx, msg.Event)
		if err != nil {
			if appErr, ok := common.AsAppError(err); ok && appErr.Retryable() {
				logging.Warn("Event handling failed, will retry",
					"worker", workerName,
					"message_id", msg.ID,
					"kind", msg.Event.Kind,
					"error", err,
				)
				continue
			}
			logging.Error("Event handling failed, dropping",
				"worker", workerName,
				"message_id", msg.ID,
				"kind", msg.Event.Kind,
				"record_id", msg.Event.RecordID,
				"error", err,
			)
		}
		done = append(done, msg.ID)
	}

	if err := w.consumer.Ack(ctx, w.group, done...); err != nil {
		logging.Warn("Failed to ack events", "worker", workerName, "count", len(done), "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
