package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"projector-server/internal/models"
)

const publishTimeout = 2 * time.Second

// RedisBroadcaster publishes active slide updates on a Redis channel so
// every server instance can forward them to its own viewers.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	queue   chan models.ActiveSlide
}

// NewRedisBroadcaster creates the publisher; call Run to start publishing
func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		queue:   make(chan models.ActiveSlide, broadcastBufferSize),
	}
}

// Notify implements Broadcaster. Updates are queued and published in order.
func (b *RedisBroadcaster) Notify(slide models.ActiveSlide) {
	select {
	case b.queue <- slide.Clone():
	default:
		log.Printf("Redis broadcast queue full, dropping active slide update")
	}
}

// Run publishes queued updates until ctx is done
func (b *RedisBroadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case slide := <-b.queue:
			b.publish(ctx, slide)
		}
	}
}

func (b *RedisBroadcaster) publish(ctx context.Context, slide models.ActiveSlide) {
	data, err := json.Marshal(slide)
	if err != nil {
		log.Printf("Failed to marshal active slide for publish: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		log.Printf("Failed to publish active slide on %s: %v", b.channel, err)
	}
}

// RedisRelay forwards active slides published on a Redis channel to a
// local broadcaster.
type RedisRelay struct {
	client  *redis.Client
	channel string
	target  Broadcaster
}

// NewRedisRelay creates a relay into target
func NewRedisRelay(client *redis.Client, channel string, target Broadcaster) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		target:  target,
	}
}

// Run subscribes and forwards messages until ctx is done.
// ready, if not nil, is closed once the subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	log.Printf("Relaying active slide updates from %s", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var slide models.ActiveSlide
			if err := json.Unmarshal([]byte(msg.Payload), &slide); err != nil {
				log.Printf("Ignoring malformed active slide on %s: %v", r.channel, err)
				continue
			}
			r.target.Notify(slide)
		}
	}
}
