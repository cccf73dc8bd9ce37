package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"writing-challenge-api/models"
)

const (
	DefaultChannel = "challenge-api:notifications"
	publishTimeout = 2 * time.Second
)

// envelope is the message shape stored in Redis Pub/Sub.
type envelope struct {
	Event  models.NotificationEvent `json:"event"`
	SentAt time.Time                `json:"sent_at"`
}

// RedisBridge publishes events to a shared Redis channel and replays the
// channel into the local Hub, so a subscriber on any instance receives events
// produced anywhere.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// NewRedisBridge builds a bridge on channel. hub may be nil for processes
// that only publish.
func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

// Publish sends the event to the shared channel. Delivery is at-most-once to
// currently connected subscribers.
func (b *RedisBridge) Publish(ctx context.Context, ev models.NotificationEvent) error {
	body, err := json.Marshal(envelope{Event: ev, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode redis envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Run forwards channel messages into the local hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	if b.hub == nil {
		return errors.New("redis bridge has no local hub")
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	logrus.Infof("realtime: redis bridge subscribed channel=%s", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithField("channel", b.channel).Errorf("realtime: decode redis message: %v", err)
				continue
			}
			if env.Event.RecipientID == 0 {
				continue
			}
			_ = b.hub.Publish(ctx, env.Event)
		}
	}
}
