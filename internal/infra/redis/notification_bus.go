package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pathway-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NotificationChannel is the pub/sub channel shared by every instance.
const NotificationChannel = "notifications"

// Broadcaster delivers a notification to locally connected clients.
type Broadcaster interface {
	Broadcast(n domain.Notification)
}

// NotificationBus publishes notifications through Redis pub/sub so that every
// instance relays them to its own clients.
type NotificationBus struct {
	client *redis.Client
	local  Broadcaster
	log    *zap.Logger

	retryMin time.Duration
	retryMax time.Duration
}

func NewNotificationBus(client *redis.Client, local Broadcaster, log *zap.Logger) *NotificationBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationBus{
		client:   client,
		local:    local,
		log:      log,
		retryMin: 500 * time.Millisecond,
		retryMax: 30 * time.Second,
	}
}

// Publish implements app.Notifier.
func (b *NotificationBus) Publish(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return b.client.Publish(ctx, NotificationChannel, data).Err()
}

// Run relays channel messages to the local broadcaster until ctx is done.
// The initial subscription is retried with backoff while Redis is unreachable;
// once subscribed, go-redis reconnects on its own.
// ready, if non-nil, is closed once the subscription is confirmed.
func (b *NotificationBus) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub, ok := b.subscribe(ctx)
	if !ok {
		return nil
	}
	defer pubsub.Close()
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.log.Warn("drop malformed notification", zap.Error(err))
				continue
			}
			b.local.Broadcast(n)
		}
	}
}

// subscribe returns false only when ctx ends before a subscription succeeds.
func (b *NotificationBus) subscribe(ctx context.Context) (*redis.PubSub, bool) {
	wait := b.retryMin
	for {
		pubsub := b.client.Subscribe(ctx, NotificationChannel)
		_, err := pubsub.Receive(ctx)
		if err == nil {
			return pubsub, true
		}
		pubsub.Close()
		if ctx.Err() != nil {
			return nil, false
		}
		b.log.Warn("subscribe failed, retrying",
			zap.String("channel", NotificationChannel),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		case <-timer.C:
		}
		wait = min(wait*2, b.retryMax)
	}
}
