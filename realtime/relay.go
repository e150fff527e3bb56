// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/encoding/json"

	"github.com/danielhkuo/live-poll/auth"
)

// DefaultRelayChannel is the Redis pub/sub channel shared by all instances
const DefaultRelayChannel = "live-poll:events"

// Envelope kinds
const (
	EnvelopeBroadcast  = "broadcast"
	EnvelopeDisconnect = "disconnect"
)

// Envelope is a hub order carried over the relay
type Envelope struct {
	Kind      string          `json:"kind"`
	Origin    string          `json:"origin,omitempty"`
	Frame     json.RawMessage `json:"frame,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// Relay publishes hub orders to Redis and applies the ones it receives
type Relay struct {
	client     *redis.Client
	channel    string
	instanceID string
	pubsub     *redis.PubSub
}

// NewRelay connects to the Redis server at url (redis://...)
func NewRelay(ctx context.Context, url, channel string) (*Relay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if channel == "" {
		channel = DefaultRelayChannel
	}

	instanceID, err := auth.GenerateID(4)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Relay{client: client, channel: channel, instanceID: instanceID}, nil
}

// Publish implements Publisher
func (r *Relay) Publish(ctx context.Context, env Envelope) error {
	env.Origin = r.instanceID
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Start subscribes and applies incoming envelopes to hub until ctx is done
// or the relay is closed. It returns once the subscription is confirmed.
func (r *Relay) Start(ctx context.Context, hub *Hub) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.pubsub = pubsub
	hub.UsePublisher(r)

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					slog.Warn("bad relay envelope", "error", err)
					continue
				}
				slog.Debug("relay envelope", "kind", env.Kind, "origin", env.Origin, "instance", r.instanceID)
				hub.apply(env)
			}
		}
	}()

	slog.Info("relay subscribed", "channel", r.channel, "instance", r.instanceID)
	return nil
}

func (r *Relay) Close() error {
	if r.pubsub != nil {
		r.pubsub.Close()
	}
	return r.client.Close()
}
