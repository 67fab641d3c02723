// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
	databasetypes "github.com/l3montree-dev/issuesync/database/types"
	"github.com/l3montree-dev/issuesync/integrations"
	"github.com/l3montree-dev/issuesync/mocks"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/l3montree-dev/issuesync/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "integration-manager-test-key"

func registryWith(adapter shared.IssueTrackerAdapter, configs *[]shared.AdapterConfig) *integrations.Registry {
	r := integrations.NewRegistry()
	r.Register(shared.ProviderJira, func(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
		if configs != nil {
			*configs = append(*configs, cfg)
		}
		return adapter, nil
	})
	return r
}

func TestGetAdapter(t *testing.T) {
	ctx := context.Background()
	v := vault.New(testEncryptionKey)

	t.Run("it should decrypt wrapped credentials before authenticating", func(t *testing.T) {
		credentials, err := v.EncryptJSON(map[string]string{
			"email":    "dev@example.com",
			"apiToken": "secret-token",
			"baseUrl":  "https://example.atlassian.net",
		})
		require.NoError(t, err)

		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(1)).Return(models.Integration{
			Model:       models.Model{ID: 1},
			Name:        "jira",
			Provider:    models.ProviderJira,
			Status:      models.IntegrationStatusActive,
			AuthType:    models.IntegrationAuthAPIKey,
			Credentials: credentials,
		}, nil).Once()

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, shared.AuthData{
			Type:    shared.AuthTypeAPIKey,
			APIKey:  "secret-token",
			Email:   "dev@example.com",
			BaseURL: "https://example.atlassian.net",
		}).Return(nil).Once()

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		got, err := m.GetAdapter(ctx, nil, 1)
		require.NoError(t, err)
		assert.Same(t, adapter, got)

		// cached, neither loaded nor authenticated again
		again, err := m.GetAdapter(ctx, nil, 1)
		require.NoError(t, err)
		assert.Same(t, adapter, again)
	})

	t.Run("it should accept legacy plain credentials and prefer the base url from the settings", func(t *testing.T) {
		legacy, err := json.Marshal(map[string]string{
			"personalAccessToken": "pat",
			"baseUrl":             "https://old.example.com",
		})
		require.NoError(t, err)

		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(2)).Return(models.Integration{
			Model:       models.Model{ID: 2},
			Provider:    models.ProviderJira,
			Status:      models.IntegrationStatusActive,
			AuthType:    models.IntegrationAuthPersonalAccessToken,
			Credentials: legacy,
			Settings:    databasetypes.JSONB{"baseUrl": "https://new.example.com"},
		}, nil)

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.MatchedBy(func(a shared.AuthData) bool {
			return a.APIKey == "pat" && a.BaseURL == "https://new.example.com"
		})).Return(nil)

		var configs []shared.AdapterConfig
		m := NewIntegrationManager(registryWith(adapter, &configs), v, repo)
		_, err = m.GetAdapter(ctx, nil, 2)
		require.NoError(t, err)

		require.Len(t, configs, 1)
		assert.Equal(t, uint(2), configs[0].Settings["id"])
		assert.Equal(t, "JIRA", configs[0].Settings["provider"])
		assert.Equal(t, "https://new.example.com", configs[0].Settings["baseUrl"])
	})

	t.Run("it should authenticate with the decrypted oauth tokens of the latest user auth", func(t *testing.T) {
		accessToken, err := v.Encrypt("access")
		require.NoError(t, err)
		refreshToken, err := v.Encrypt("refresh")
		require.NoError(t, err)
		expiresAt := time.Now().Add(time.Hour)

		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(3)).Return(models.Integration{
			Model:    models.Model{ID: 3},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthOAuth2,
			UserIntegrationAuths: []models.UserIntegrationAuth{{
				AccessToken:  accessToken,
				RefreshToken: &refreshToken,
				ExpiresAt:    &expiresAt,
				IsActive:     true,
			}},
		}, nil)

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.MatchedBy(func(a shared.AuthData) bool {
			return a.Type == shared.AuthTypeOAuth && a.AccessToken == "access" && a.RefreshToken == "refresh" && a.ExpiresAt.Equal(expiresAt)
		})).Return(nil)

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		_, err = m.GetAdapter(ctx, nil, 3)
		require.NoError(t, err)
	})

	t.Run("it should authenticate integrations without auth with the none type", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(4)).Return(models.Integration{
			Model:    models.Model{ID: 4},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthNone,
		}, nil)

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, shared.AuthData{Type: shared.AuthTypeNone}).Return(nil)

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		_, err := m.GetAdapter(ctx, nil, 4)
		require.NoError(t, err)
	})

	t.Run("it should leave the adapter unauthenticated without any credentials", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(5)).Return(models.Integration{
			Model:    models.Model{ID: 5},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthOAuth2,
		}, nil)

		adapter := mocks.NewIssueTrackerAdapter(t)
		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		_, err := m.GetAdapter(ctx, nil, 5)
		require.NoError(t, err)
		adapter.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("it should reject inactive integrations", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(6)).Return(models.Integration{
			Model:    models.Model{ID: 6},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusInactive,
		}, nil)

		m := NewIntegrationManager(registryWith(mocks.NewIssueTrackerAdapter(t), nil), v, repo)
		_, err := m.GetAdapter(ctx, nil, 6)
		assert.ErrorIs(t, err, shared.ErrIntegrationInactive)
	})

	t.Run("it should fail for providers without a registered adapter", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(7)).Return(models.Integration{
			Model:    models.Model{ID: 7},
			Provider: models.ProviderAzureDevOps,
			Status:   models.IntegrationStatusActive,
		}, nil)

		m := NewIntegrationManager(registryWith(mocks.NewIssueTrackerAdapter(t), nil), v, repo)
		_, err := m.GetAdapter(ctx, nil, 7)
		assert.ErrorIs(t, err, shared.ErrProviderNotRegistered)
	})

	t.Run("it should not cache adapters of different tenants together", func(t *testing.T) {
		t.Setenv("MULTI_TENANT_MODE", "true")
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(8)).Return(models.Integration{
			Model:    models.Model{ID: 8},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthNone,
		}, nil).Twice()

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil).Twice()

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		_, err := m.GetAdapter(shared.WithTenant(ctx, "a"), nil, 8)
		require.NoError(t, err)
		_, err = m.GetAdapter(shared.WithTenant(ctx, "b"), nil, 8)
		require.NoError(t, err)
	})

	t.Run("it should rebuild the adapter after it was cleared", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(9)).Return(models.Integration{
			Model:    models.Model{ID: 9},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthNone,
		}, nil).Times(3)

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil).Times(3)

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		_, err := m.GetAdapter(ctx, nil, 9)
		require.NoError(t, err)
		m.ClearAdapter(ctx, 9)
		_, err = m.GetAdapter(ctx, nil, 9)
		require.NoError(t, err)
		m.ClearAllAdapters()
		_, err = m.GetAdapter(ctx, nil, 9)
		require.NoError(t, err)
	})
}

func TestValidateIntegration(t *testing.T) {
	ctx := context.Background()
	v := vault.New(testEncryptionKey)

	integration := models.Integration{
		Model:    models.Model{ID: 1},
		Provider: models.ProviderJira,
		Status:   models.IntegrationStatusActive,
		AuthType: models.IntegrationAuthNone,
	}

	t.Run("it should report unauthenticated integrations as invalid", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(1)).Return(integration, nil)
		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil)
		adapter.On("IsAuthenticated", mock.Anything).Return(false)

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		result, err := m.ValidateIntegration(ctx, nil, 1)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("it should delegate to the adapter once authenticated", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(1)).Return(integration, nil)
		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil)
		adapter.On("IsAuthenticated", mock.Anything).Return(true)
		adapter.On("ValidateConfiguration", mock.Anything).Return(shared.NewValidationResult(nil), nil)

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		result, err := m.ValidateIntegration(ctx, nil, 1)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("it should expose the capabilities of the adapter", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(1)).Return(integration, nil)
		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil)
		adapter.On("Capabilities").Return(shared.Capabilities{SyncIssue: true})

		m := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		caps, err := m.GetCapabilities(ctx, nil, 1)
		require.NoError(t, err)
		assert.True(t, caps.SyncIssue)
	})
}

type fanoutBroker struct {
	mu   sync.Mutex
	subs []chan map[string]any
}

func (b *fanoutBroker) Publish(_ context.Context, msg shared.PubSubMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		ch <- msg.GetPayload()
	}
	return nil
}

func (b *fanoutBroker) Subscribe(shared.PubSubChannel) (<-chan map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan map[string]any, 4)
	b.subs = append(b.subs, ch)
	return ch, nil
}

func TestAdapterEvictionBroadcast(t *testing.T) {
	ctx := context.Background()
	v := vault.New(testEncryptionKey)

	t.Run("it should drop the adapter in every process sharing the broker", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("ReadWithActiveAuths", mock.Anything, mock.Anything, uint(11)).Return(models.Integration{
			Model:    models.Model{ID: 11},
			Provider: models.ProviderJira,
			Status:   models.IntegrationStatusActive,
			AuthType: models.IntegrationAuthNone,
		}, nil)
		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Authenticate", mock.Anything, mock.Anything).Return(nil)

		broker := &fanoutBroker{}
		first := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		second := NewIntegrationManager(registryWith(adapter, nil), v, repo)
		require.NoError(t, first.ListenForEvictions(broker))
		require.NoError(t, second.ListenForEvictions(broker))

		_, err := first.GetAdapter(ctx, nil, 11)
		require.NoError(t, err)
		_, err = second.GetAdapter(ctx, nil, 11)
		require.NoError(t, err)

		first.ClearAdapter(ctx, 11)

		key := adapterCacheKey(ctx, 11)
		assert.Eventually(t, func() bool {
			second.mu.RLock()
			defer second.mu.RUnlock()
			_, ok := second.adapters[key]
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}
