// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package integrations

import (
	"testing"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("it should create an adapter for every built-in provider", func(t *testing.T) {
		r := NewDefaultRegistry()
		settings := map[string]map[string]any{
			string(shared.ProviderJira):        {"baseUrl": "https://example.atlassian.net"},
			string(shared.ProviderGithub):      {},
			string(shared.ProviderAzureDevOps): {"organizationUrl": "https://dev.azure.com/org"},
			string(shared.ProviderSimpleURL):   {"baseUrl": "https://tracker.example.com/issues/{issueId}"},
		}
		for _, p := range r.Providers() {
			adapter, err := r.Create(shared.AdapterConfig{ID: 1, Provider: p, Settings: settings[string(p)]})
			require.NoError(t, err, p)
			assert.Equal(t, p, adapter.Provider())
			assert.False(t, adapter.IsAuthenticated(t.Context()))
		}
		assert.Len(t, r.Providers(), 4)
	})

	t.Run("it should fail for an unknown provider", func(t *testing.T) {
		r := NewDefaultRegistry()
		_, err := r.Create(shared.AdapterConfig{Provider: "GITLAB"})
		assert.ErrorIs(t, err, shared.ErrProviderNotRegistered)
	})
}
