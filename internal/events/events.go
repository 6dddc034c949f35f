// Package events pushes domain events onto a Redis list for consumers
// outside the admission core. Publishing happens after commit and is best
// effort: a failed publish never undoes an accepted check-in or booking.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymgate/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultQueue = "gymgate:events"

const (
	TypeCheckInAccepted  = "checkin.accepted"
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingPromoted  = "booking.promoted"
	TypeWaitlistJoined   = "waitlist.joined"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

func New(eventType string, occurredAt time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt,
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type RedisPublisher struct {
	redis *redis.Client
	queue string
}

func NewRedisPublisher(client *redis.Client, queue string) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisPublisher{redis: client, queue: queue}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		metrics.RecordEvent(e.Type, "failed")
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.redis.LPush(ctx, p.queue, data).Err(); err != nil {
		metrics.RecordEvent(e.Type, "failed")
		return fmt.Errorf("push event %s: %w", e.Type, err)
	}

	metrics.RecordEvent(e.Type, "success")
	return nil
}

func (p *RedisPublisher) QueueLength(ctx context.Context) (int64, error) {
	return p.redis.LLen(ctx, p.queue).Result()
}

// QueueLengthFunc adapts QueueLength for a gauge. Read failures report -1.
func (p *RedisPublisher) QueueLengthFunc(timeout time.Duration) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := p.QueueLength(ctx)
		if err != nil {
			return -1
		}
		return float64(n)
	}
}

func (p *RedisPublisher) Close() error {
	return p.redis.Close()
}

// Nop discards events. Used when EVENTS_ENABLED is false and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
