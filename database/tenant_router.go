// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/l3montree-dev/issuesync/shared"
)

// TenantClient is a connection pool owned by the router.
type TenantClient interface {
	Database() shared.DB
	ConnectionURL() string
	Close() error
}

func (c *Client) Database() shared.DB {
	return c.DB
}

func (c *Client) ConnectionURL() string {
	return c.URL
}

type TenantClientFactory func(ctx context.Context, databaseURL string) (TenantClient, error)

// PoolTenantClientFactory opens a pgx backed pool for every tenant.
func PoolTenantClientFactory(cfg PoolConfig) TenantClientFactory {
	return func(ctx context.Context, databaseURL string) (TenantClient, error) {
		return NewClient(ctx, databaseURL, cfg)
	}
}

type TenantRouter struct {
	defaultDB   shared.DB
	multiTenant bool
	source      tenantConfigSource
	factory     TenantClientFactory

	mu      sync.Mutex
	clients map[string]TenantClient
}

var _ shared.TenantRouter = (*TenantRouter)(nil)

func NewTenantRouter(defaultDB shared.DB, factory TenantClientFactory) *TenantRouter {
	return &TenantRouter{
		defaultDB:   defaultDB,
		multiTenant: shared.IsMultiTenantMode(),
		source:      newTenantConfigSource(os.Getenv("TENANT_CONFIG_FILE")),
		factory:     factory,
		clients:     make(map[string]TenantClient),
	}
}

// TenantConfig reloads the configuration and returns the entry of the tenant.
func (r *TenantRouter) TenantConfig(tenantID string) (shared.TenantConfig, error) {
	configs, err := r.source.Load()
	if err != nil {
		return shared.TenantConfig{}, err
	}
	cfg, ok := configs[strings.ToLower(tenantID)]
	if !ok || cfg.DatabaseURL == "" {
		return shared.TenantConfig{}, fmt.Errorf("%w: %s", shared.ErrTenantNotConfigured, tenantID)
	}
	return cfg, nil
}

// DB resolves the database of a tenant. The configuration is reloaded on every
// call, a changed database url replaces the cached client.
func (r *TenantRouter) DB(ctx context.Context, tenantID string) (shared.DB, error) {
	if !r.multiTenant {
		return r.defaultDB, nil
	}
	client, err := r.Client(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return client.Database(), nil
}

func (r *TenantRouter) Client(ctx context.Context, tenantID string) (TenantClient, error) {
	if tenantID == "" {
		return nil, shared.NewConfigurationError("tenant id is required in multi tenant mode")
	}
	cfg, err := r.TenantConfig(tenantID)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(tenantID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.clients[key]; ok {
		if existing.ConnectionURL() == cfg.DatabaseURL {
			return existing, nil
		}
		slog.Info("tenant database url changed, reconnecting", "tenant", tenantID)
		delete(r.clients, key)
		go closeTenantClient(tenantID, existing)
	}

	client, err := r.factory(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database of tenant %s: %w", tenantID, err)
	}
	r.clients[key] = client
	return client, nil
}

// DisconnectAll closes every cached tenant client.
func (r *TenantRouter) DisconnectAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]TenantClient)
	r.mu.Unlock()

	for id, client := range clients {
		closeTenantClient(id, client)
	}
}

func closeTenantClient(tenantID string, client TenantClient) {
	if err := client.Close(); err != nil {
		slog.Error("could not close tenant database client", "tenant", tenantID, "err", err)
	}
}

// TenantIDs lists every configured tenant, sorted.
func (r *TenantRouter) TenantIDs() ([]string, error) {
	configs, err := r.source.Load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
