// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package search

import (
	"github.com/l3montree-dev/issuesync/shared"
	"go.uber.org/fx"
)

func provideIndexer(tenants shared.TenantRouter) *Indexer {
	return NewIndexer(nil, tenants, TargetFromEnv())
}

var Module = fx.Module("search",
	fx.Provide(
		provideIndexer,
		func(i *Indexer) shared.SearchIndexer { return i },
	),
)
