package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel carrying actor events.
const DefaultChannel = "proposal-tracker:actor-events"

// RedisNotifier shares actor events between API instances over Redis pub/sub.
// Events published by any instance, this one included, reach local
// subscribers once Run is receiving.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	local   *LocalNotifier
	logger  *zap.Logger
}

// NewRedisNotifier wires a notifier on the given client and channel.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, channel: channel, local: NewLocalNotifier(), logger: logger}
}

// Publish sends the event to every instance.
func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal actor event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish actor event: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber.
func (n *RedisNotifier) Subscribe(fn func(Event)) func() {
	return n.local.Subscribe(fn)
}

// Run relays events from Redis to local subscribers until ctx is done.
func (n *RedisNotifier) Run(ctx context.Context) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe actor events: %w", err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			n.dispatch(ctx, msg.Payload)
		}
	}
}

func (n *RedisNotifier) dispatch(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		n.logger.Warn("discarding malformed actor event", zap.Error(err))
		return
	}
	_ = n.local.Publish(ctx, event)
}
