package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/models/entities"

	"github.com/redis/go-redis/v9"
)

// RedisQueueService carries lifecycle events over a Redis Stream with a consumer group
type RedisQueueService struct {
	client *redis.Client
	stream string
}

// StreamMessage is one event read from the stream, with the id needed to ack it
type StreamMessage struct {
	ID    string
	Event entities.LifecycleEvent
	// Malformed messages can never be handled and should just be acked.
	Malformed bool
}

func NewRedisQueueService(client *redis.Client, stream string) *RedisQueueService {
	return &RedisQueueService{
		client: client,
		stream: stream,
	}
}

// PublishBatch appends events to the stream in one pipeline
func (s *RedisQueueService) PublishBatch(ctx context.Context, events []entities.LifecycleEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", ev.OutboxID, err)
		}
		// XADD stream * data <json>
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{"data": string(data)},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}
	return nil
}

// Consume reads up to count new messages for the consumer, blocking up to blockTime.
// A timeout returns no messages and no error.
func (s *RedisQueueService) Consume(ctx context.Context, group, consumer string, count int64, blockTime time.Duration) ([]StreamMessage, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{s.stream, ">"}, // ">" means new messages only
		Count:    count,
		Block:    blockTime,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 {
		return nil, nil
	}
	return decodeMessages(streams[0].Messages), nil
}

// Ack acknowledges successful handling of messages
func (s *RedisQueueService) Ack(ctx context.Context, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.client.XAck(ctx, s.stream, group, ids...).Err()
}

// CreateConsumerGroup creates the group for the stream if it doesn't exist
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context, group string) error {
	// XGROUP CREATE stream group 0 MKSTREAM
	err := s.client.XGroupCreateMkStream(ctx, s.stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

// PendingCount returns the number of delivered but unacknowledged messages
func (s *RedisQueueService) PendingCount(ctx context.Context, group string) (int64, error) {
	pending, err := s.client.XPending(ctx, s.stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}

// ClaimStale takes over messages another consumer received but never acked
func (s *RedisQueueService) ClaimStale(ctx context.Context, group, consumer string, minIdle time.Duration) ([]StreamMessage, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   s.stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	return decodeMessages(messages), nil
}

func decodeMessages(messages []redis.XMessage) []StreamMessage {
	out := make([]StreamMessage, 0, len(messages))
	for _, msg := range messages {
		dataStr, ok := msg.Values["data"].(string)
		if !ok {
			logging.Warn("Event stream: message without data field", "message_id", msg.ID)
			out = append(out, StreamMessage{ID: msg.ID, Malformed: true})
			continue
		}

		var ev entities.LifecycleEvent
		if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
			logging.Warn("Event stream: failed to unmarshal message", "message_id", msg.ID, "error", err)
			out = append(out, StreamMessage{ID: msg.ID, Malformed: true})
			continue
		}
		out = append(out, StreamMessage{ID: msg.ID, Event: ev})
	}
	return out
}
