// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package integrations

import (
	"fmt"
	"sort"
	"sync"

	"github.com/l3montree-dev/issuesync/integrations/azuredevopsint"
	"github.com/l3montree-dev/issuesync/integrations/githubint"
	"github.com/l3montree-dev/issuesync/integrations/jiraint"
	"github.com/l3montree-dev/issuesync/integrations/simpleurlint"
	"github.com/l3montree-dev/issuesync/shared"
)

// Registry maps a provider to the factory creating its adapter.
type Registry struct {
	mu        sync.RWMutex
	factories map[shared.ProviderType]shared.AdapterFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[shared.ProviderType]shared.AdapterFactory)}
}

// NewDefaultRegistry knows all built-in providers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(shared.ProviderJira, jiraint.NewAdapter)
	r.Register(shared.ProviderGithub, githubint.NewAdapter)
	r.Register(shared.ProviderAzureDevOps, azuredevopsint.NewAdapter)
	r.Register(shared.ProviderSimpleURL, simpleurlint.NewAdapter)
	return r
}

func (r *Registry) Register(provider shared.ProviderType, factory shared.AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

func (r *Registry) Factory(provider shared.ProviderType) (shared.AdapterFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[provider]
	return f, ok
}

// Create builds a fresh, unauthenticated adapter for the config.
func (r *Registry) Create(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
	f, ok := r.Factory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrProviderNotRegistered, cfg.Provider)
	}
	return f(cfg)
}

func (r *Registry) Providers() []shared.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]shared.ProviderType, 0, len(r.factories))
	for p := range r.factories {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
