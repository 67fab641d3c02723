// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"github.com/l3montree-dev/issuesync/database"
	"github.com/l3montree-dev/issuesync/integrations"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/l3montree-dev/issuesync/vault"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type issueCacheParams struct {
	fx.In
	// nil in degraded mode
	Client *redis.Client `optional:"true"`
}

func provideIssueCache(p issueCacheParams) (shared.IssueCache, error) {
	if p.Client == nil {
		return NewIssueCache(disabledStore{}), nil
	}
	dedicated, err := database.DuplicateValkeyClient(p.Client)
	if err != nil {
		return nil, err
	}
	return NewIssueCache(database.NewValkeyStore(dedicated, "issue-cache:")), nil
}

type integrationManagerParams struct {
	fx.In
	Registry              *integrations.Registry
	Vault                 *vault.Vault
	IntegrationRepository shared.IntegrationRepository
	Broker                shared.PubSubBroker `optional:"true"`
}

func provideIntegrationManager(p integrationManagerParams) (shared.IntegrationManager, error) {
	m := NewIntegrationManager(p.Registry, p.Vault, p.IntegrationRepository)
	if p.Broker == nil {
		return m, nil
	}
	if err := m.ListenForEvictions(p.Broker); err != nil {
		return nil, err
	}
	return m, nil
}

type syncServiceParams struct {
	fx.In
	DB                 shared.DB
	Queue              shared.JobQueue `optional:"true"`
	UserRepository     shared.UserRepository
	IssueStoreFactory  shared.IssueStoreFactory
	IntegrationManager shared.IntegrationManager
	IssueCache         shared.IssueCache
	SearchIndexer      shared.SearchIndexer `optional:"true"`
}

func provideSyncService(p syncServiceParams) shared.SyncService {
	return NewSyncService(p.DB, p.Queue, p.UserRepository, p.IssueStoreFactory, p.IntegrationManager, p.IssueCache, p.SearchIndexer)
}

// Module provides all service-layer constructors
var Module = fx.Options(
	fx.Provide(provideIntegrationManager),
	fx.Provide(provideIssueCache),
	fx.Provide(provideSyncService),
)
