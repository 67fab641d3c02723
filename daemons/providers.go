// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package daemons

import (
	"context"

	"github.com/l3montree-dev/issuesync/queue"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type syncWorkerParams struct {
	fx.In

	Client      *redis.Client `optional:"true"`
	Queue       *queue.Queue  `optional:"true"`
	SyncService shared.SyncService
	Tenants     shared.TenantRouter
}

func provideSyncWorker(p syncWorkerParams) *SyncWorker {
	return NewSyncWorker(p.Client, p.Queue, p.SyncService, p.Tenants)
}

// RegisterSyncWorker ties the worker to the application lifecycle.
func RegisterSyncWorker(lc fx.Lifecycle, worker *SyncWorker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: worker.Stop,
	})
}

var Module = fx.Module("daemons",
	fx.Provide(provideSyncWorker),
)
