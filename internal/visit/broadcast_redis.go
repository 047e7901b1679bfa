package visit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"fieldsafe/internal/events"
)

// visitChannel is the Redis pub/sub channel calendar updates travel on.
// One channel for all worksites; the hub routes by worksite on arrival.
const visitChannel = "fieldsafe:visit-updates"

// RedisBroadcaster fans calendar updates out across instances. Publishes
// go to Redis; a background subscription feeds remote updates into the
// local hub so every instance's SSE clients see them.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

func NewRedisBroadcaster(client *redis.Client, hub *Hub, logger *slog.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroadcaster{client: client, hub: hub, logger: logger}
}

// Broadcast publishes the event to Redis. The local hub is fed by the
// subscription loop, so local subscribers also receive it once Redis
// echoes the message back.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.ErrorContext(ctx, "marshal visit update", "error", err)
		return
	}
	if err := b.client.Publish(ctx, visitChannel, payload).Err(); err != nil {
		// Degrade to in-process delivery rather than dropping the update.
		b.logger.WarnContext(ctx, "redis publish failed, delivering locally", "error", err)
		b.hub.Broadcast(event)
	}
}

// Run consumes the Redis channel and replays updates into the local hub
// until the context is canceled.
func (b *RedisBroadcaster) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, visitChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", visitChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.WarnContext(ctx, "drop malformed visit update", "error", err)
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}
