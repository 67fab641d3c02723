// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package accesscontrol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2/persist"
	"github.com/l3montree-dev/issuesync/shared"
)

type casbinPubSubWatcher struct {
	broker shared.PubSubBroker

	mu       sync.RWMutex
	callback func(string)
}

type policyChangePubSubMessage struct{}

func (policyChangePubSubMessage) GetChannel() shared.PubSubChannel {
	return shared.PolicyChange
}

func (policyChangePubSubMessage) GetPayload() map[string]any {
	return map[string]any{
		"action": "update",
	}
}

var _ persist.Watcher = &casbinPubSubWatcher{}

func newCasbinPubSubWatcher(broker shared.PubSubBroker) (*casbinPubSubWatcher, error) {
	ch, err := broker.Subscribe(shared.PolicyChange)
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to policy change topic: %w", err)
	}

	watcher := &casbinPubSubWatcher{
		broker: broker,
	}

	go watcher.listenForUpdates(ch)
	return watcher, nil
}

func (w *casbinPubSubWatcher) listenForUpdates(ch <-chan map[string]any) {
	slog.Debug("listening for policy change notifications")
	for range ch {
		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()
		if cb != nil {
			cb("policy updated")
		}
	}
}

func (w *casbinPubSubWatcher) SetUpdateCallback(callback func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
	return nil
}

func (w *casbinPubSubWatcher) Update() error {
	if err := w.broker.Publish(context.Background(), policyChangePubSubMessage{}); err != nil {
		slog.Warn("could not publish policy change", "err", err)
	}
	return nil
}

func (w *casbinPubSubWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = nil
}
