// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package accesscontrol

import (
	"context"
	"testing"
	"time"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopbackBroker struct {
	ch chan map[string]any
}

func (b *loopbackBroker) Publish(_ context.Context, msg shared.PubSubMessage) error {
	b.ch <- msg.GetPayload()
	return nil
}

func (b *loopbackBroker) Subscribe(shared.PubSubChannel) (<-chan map[string]any, error) {
	return b.ch, nil
}

func TestCasbinPubSubWatcher(t *testing.T) {
	t.Run("it should call the callback when a policy change is published", func(t *testing.T) {
		broker := &loopbackBroker{ch: make(chan map[string]any, 1)}
		w, err := newCasbinPubSubWatcher(broker)
		require.NoError(t, err)

		called := make(chan string, 1)
		require.NoError(t, w.SetUpdateCallback(func(s string) { called <- s }))
		require.NoError(t, w.Update())

		select {
		case msg := <-called:
			assert.Equal(t, "policy updated", msg)
		case <-time.After(time.Second):
			t.Fatal("callback was not called")
		}
		w.Close()
		close(broker.ch)
	})
}
