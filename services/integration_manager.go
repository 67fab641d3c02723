// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/integrations"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/l3montree-dev/issuesync/vault"
	"golang.org/x/sync/singleflight"
)

// storedCredentials is the decrypted content of an integration's credentials blob.
type storedCredentials struct {
	Email               string `json:"email,omitempty"`
	APIToken            string `json:"apiToken,omitempty"`
	PersonalAccessToken string `json:"personalAccessToken,omitempty"`
	BaseURL             string `json:"baseUrl,omitempty"`
}

type integrationManager struct {
	registry              *integrations.Registry
	vault                 *vault.Vault
	integrationRepository shared.IntegrationRepository

	mu       sync.RWMutex
	adapters map[string]shared.IssueTrackerAdapter
	group    singleflight.Group

	// nil when running without valkey
	broker shared.PubSubBroker
}

var _ shared.IntegrationManager = &integrationManager{}

func NewIntegrationManager(registry *integrations.Registry, v *vault.Vault, integrationRepository shared.IntegrationRepository) *integrationManager {
	return &integrationManager{
		registry:              registry,
		vault:                 v,
		integrationRepository: integrationRepository,
		adapters:              make(map[string]shared.IssueTrackerAdapter),
	}
}

// integration ids are only unique inside a tenant database
func adapterCacheKey(ctx context.Context, integrationID uint) string {
	return shared.TenantFromContext(ctx) + ":" + strconv.FormatUint(uint64(integrationID), 10)
}

func (m *integrationManager) GetAdapter(ctx context.Context, db shared.DB, integrationID uint) (shared.IssueTrackerAdapter, error) {
	key := adapterCacheKey(ctx, integrationID)

	m.mu.RLock()
	adapter, ok := m.adapters[key]
	m.mu.RUnlock()
	if ok {
		return adapter, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// another caller might have finished building while we waited for the lock
		m.mu.RLock()
		cached, ok := m.adapters[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		adapter, err := m.buildAdapter(ctx, db, integrationID)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.adapters[key] = adapter
		m.mu.Unlock()
		return adapter, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(shared.IssueTrackerAdapter), nil
}

func (m *integrationManager) buildAdapter(ctx context.Context, db shared.DB, integrationID uint) (shared.IssueTrackerAdapter, error) {
	integration, err := m.integrationRepository.ReadWithActiveAuths(ctx, db, integrationID)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive() {
		return nil, fmt.Errorf("integration %d: %w", integrationID, shared.ErrIntegrationInactive)
	}

	adapter, err := m.registry.Create(adapterConfig(integration, db))
	if err != nil {
		return nil, err
	}

	auth, ok, err := m.resolveAuth(integration)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("no credentials available, adapter stays unauthenticated", "integrationId", integrationID, "provider", integration.Provider)
		return adapter, nil
	}

	if err := adapter.Authenticate(ctx, auth); err != nil {
		return nil, fmt.Errorf("could not authenticate integration %d: %w", integrationID, err)
	}
	return adapter, nil
}

// adapterConfig merges the stored settings onto the integration's identity.
func adapterConfig(integration models.Integration, db shared.DB) shared.AdapterConfig {
	settings := make(map[string]any, len(integration.Settings)+3)
	for k, v := range integration.Settings {
		settings[k] = v
	}
	settings["id"] = integration.ID
	settings["name"] = integration.Name
	settings["provider"] = string(integration.Provider)

	return shared.AdapterConfig{
		ID:       integration.ID,
		Name:     integration.Name,
		Provider: integration.Provider,
		Settings: settings,
		LocalDB:  db,
	}
}

// resolveAuth returns false if neither stored credentials nor a user auth are present.
func (m *integrationManager) resolveAuth(integration models.Integration) (shared.AuthData, bool, error) {
	if integration.AuthType == models.IntegrationAuthNone {
		return shared.AuthData{Type: shared.AuthTypeNone}, true, nil
	}

	if integration.AuthType.UsesStoredCredentials() && integration.HasCredentials() {
		var creds storedCredentials
		if err := m.vault.DecryptCredentials(integration.Credentials, &creds); err != nil {
			return shared.AuthData{}, false, shared.NewAuthenticationError(integration.Provider, "could not decrypt stored credentials", err)
		}
		return shared.AuthData{
			Type:    shared.AuthTypeAPIKey,
			APIKey:  shared.FirstNonEmpty(creds.APIToken, creds.PersonalAccessToken),
			Email:   creds.Email,
			BaseURL: shared.FirstNonEmpty(integration.Settings.GetString("baseUrl"), creds.BaseURL),
		}, true, nil
	}

	if userAuth := integration.LatestActiveAuth(); userAuth != nil {
		accessToken, err := m.vault.Decrypt(userAuth.AccessToken)
		if err != nil {
			return shared.AuthData{}, false, shared.NewAuthenticationError(integration.Provider, "could not decrypt access token", err)
		}
		auth := shared.AuthData{
			Type:        shared.AuthTypeOAuth,
			AccessToken: accessToken,
			ExpiresAt:   userAuth.ExpiresAt,
		}
		if userAuth.RefreshToken != nil && *userAuth.RefreshToken != "" {
			refreshToken, err := m.vault.Decrypt(*userAuth.RefreshToken)
			if err != nil {
				return shared.AuthData{}, false, shared.NewAuthenticationError(integration.Provider, "could not decrypt refresh token", err)
			}
			auth.RefreshToken = refreshToken
		}
		return auth, true, nil
	}

	return shared.AuthData{}, false, nil
}

func (m *integrationManager) ClearAdapter(ctx context.Context, integrationID uint) {
	key := adapterCacheKey(ctx, integrationID)
	m.evict(key)

	if m.broker == nil {
		return
	}
	if err := m.broker.Publish(ctx, shared.SimpleMessage{
		Channel: shared.AdapterEvicted,
		Payload: map[string]any{"key": key},
	}); err != nil {
		slog.Warn("could not broadcast adapter eviction", "key", key, "err", err)
	}
}

func (m *integrationManager) evict(key string) {
	m.mu.Lock()
	delete(m.adapters, key)
	m.mu.Unlock()
	m.group.Forget(key)
}

// ListenForEvictions drops cached adapters cleared by other processes.
func (m *integrationManager) ListenForEvictions(broker shared.PubSubBroker) error {
	ch, err := broker.Subscribe(shared.AdapterEvicted)
	if err != nil {
		return fmt.Errorf("could not subscribe to adapter evictions: %w", err)
	}
	m.broker = broker

	go func() {
		for payload := range ch {
			key, ok := payload["key"].(string)
			if !ok || key == "" {
				continue
			}
			m.evict(key)
		}
	}()
	return nil
}

func (m *integrationManager) ClearAllAdapters() {
	m.mu.Lock()
	m.adapters = make(map[string]shared.IssueTrackerAdapter)
	m.mu.Unlock()
}

func (m *integrationManager) GetCapabilities(ctx context.Context, db shared.DB, integrationID uint) (shared.Capabilities, error) {
	adapter, err := m.GetAdapter(ctx, db, integrationID)
	if err != nil {
		return shared.Capabilities{}, err
	}
	return adapter.Capabilities(), nil
}

func (m *integrationManager) ValidateIntegration(ctx context.Context, db shared.DB, integrationID uint) (shared.ValidationResult, error) {
	adapter, err := m.GetAdapter(ctx, db, integrationID)
	if err != nil {
		return shared.NewValidationResult([]string{err.Error()}), nil
	}
	if !adapter.IsAuthenticated(ctx) {
		return shared.NewValidationResult([]string{"integration is not authenticated"}), nil
	}
	return adapter.ValidateConfiguration(ctx)
}
