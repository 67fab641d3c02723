// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/redis/go-redis/v9"
)

type ValkeyMessage struct {
	ID        string               `json:"id"`
	Channel   shared.PubSubChannel `json:"topic"`
	Payload   map[string]any       `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
	SenderID  string               `json:"sender_id,omitempty"`
}

// ValkeyBroker distributes pub sub messages through the key value store.
type ValkeyBroker struct {
	client       *redis.Client
	subscribers  map[shared.PubSubChannel][]chan map[string]any
	subscribeMux sync.RWMutex
	ID           string

	shouldReceiveOwnMessages bool
}

var _ shared.PubSubBroker = &ValkeyBroker{}

func NewValkeyBroker(client *redis.Client) *ValkeyBroker {
	return &ValkeyBroker{
		client:      client,
		subscribers: make(map[shared.PubSubChannel][]chan map[string]any),
		ID:          uuid.New().String(),
	}
}

func (b *ValkeyBroker) SetShouldReceiveOwnMessages(should bool) {
	b.shouldReceiveOwnMessages = should
}

func (b *ValkeyBroker) Publish(ctx context.Context, message shared.PubSubMessage) error {
	msg := ValkeyMessage{
		ID:        uuid.New().String(),
		Channel:   message.GetChannel(),
		Payload:   message.GetPayload(),
		Timestamp: time.Now(),
		SenderID:  b.ID,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := b.client.Publish(ctx, string(msg.Channel), raw).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	slog.Debug("message published", "topic", msg.Channel, "messageID", msg.ID)
	return nil
}

func (b *ValkeyBroker) Subscribe(topic shared.PubSubChannel) (<-chan map[string]any, error) {
	b.subscribeMux.Lock()
	defer b.subscribeMux.Unlock()

	ch := make(chan map[string]any, 100)

	if _, exists := b.subscribers[topic]; !exists {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sub := b.client.Subscribe(ctx, string(topic))
		// wait for the subscription confirmation
		if _, err := sub.Receive(ctx); err != nil {
			close(ch)
			return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
		}
		go b.processMessages(topic, sub)
	}

	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch, nil
}

func (b *ValkeyBroker) processMessages(topic shared.PubSubChannel, sub *redis.PubSub) {
	for notification := range sub.Channel() {
		var message ValkeyMessage
		if err := json.Unmarshal([]byte(notification.Payload), &message); err != nil {
			slog.Error("failed to unmarshal message", "error", err, "payload", notification.Payload)
			continue
		}

		if message.SenderID == b.ID && !b.shouldReceiveOwnMessages {
			continue
		}

		b.subscribeMux.RLock()
		subscribers := b.subscribers[topic]
		b.subscribeMux.RUnlock()

		for _, subscriber := range subscribers {
			select {
			case subscriber <- message.Payload:
			default:
				slog.Warn("subscriber channel full, dropping message", "topic", topic, "messageID", message.ID)
			}
		}
	}
}
