package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// defaultMaxLen bounds the stream; trimming is approximate
const defaultMaxLen = 100000

// TurnEvent records how one chat turn was handled
type TurnEvent struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	ThreadID      string    `json:"thread_id"`
	ThreadCreated bool      `json:"thread_created"`
	Language      string    `json:"language"`
	RouteKind     string    `json:"route_kind"`
	LookupOutcome string    `json:"lookup_outcome"`
	AgentStatus   string    `json:"agent_status"`
	DurationMS    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher delivers turn events
type Publisher interface {
	Publish(ctx context.Context, event *TurnEvent) error
}

// NewTurnEvent fills the id and timestamp of a new event
func NewTurnEvent() *TurnEvent {
	return &TurnEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// RedisPublisher appends events to a Redis stream
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewRedisPublisher creates a publisher writing to stream
func NewRedisPublisher(client *redis.Client, stream string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
		logger: logger,
	}
}

// Publish adds the event to the stream under the "data" field
func (p *RedisPublisher) Publish(ctx context.Context, event *TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("turn event published",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("event_id", event.ID),
	)

	return nil
}

// Nop discards events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(ctx context.Context, event *TurnEvent) error {
	return nil
}
