package workers

import (
	"context"
	"time"

	"servercv/dashboard/internal/logging"
)

type PendingCounter interface {
	PendingCount(ctx context.Context, group string) (int64, error)
}

// StreamMonitor periodically reports how many delivered events the consumer
// group has not acknowledged yet.
type StreamMonitor struct {
	stream    PendingCounter
	group     string
	threshold int64
}

func NewStreamMonitor(stream PendingCounter, group string, threshold int64) *StreamMonitor {
	return &StreamMonitor{stream: stream, group: group, threshold: threshold}
}

func (m *StreamMonitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *StreamMonitor) check(ctx context.Context) int64 {
	pending, err := m.stream.PendingCount(ctx, m.group)
	if err != nil {
		logging.Warn("Failed to read pending events", "group", m.group, "error", err)
		return -1
	}
	if pending > m.threshold {
		logging.Warn("Notification backlog is growing", "group", m.group, "pending", pending)
	} else {
		logging.Debug("Notification backlog", "group", m.group, "pending", pending)
	}
	return pending
}
