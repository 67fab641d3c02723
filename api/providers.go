// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"context"
	"os"

	"github.com/l3montree-dev/issuesync/queue"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type jobControllerParams struct {
	fx.In

	Queue *queue.Queue `optional:"true"`
}

func provideJobController(p jobControllerParams) *JobController {
	if p.Queue == nil {
		return NewJobController(nil)
	}
	return NewJobController(p.Queue)
}

type serverParams struct {
	fx.In

	TenantRouter          shared.TenantRouter
	UserRepository        shared.UserRepository
	IssueStoreFactory     shared.IssueStoreFactory
	IntegrationController *IntegrationController
	JobController         *JobController
}

func provideServer(p serverParams) *echo.Echo {
	e := NewServer()
	RegisterRoutes(e, RouterDeps{
		TenantRouter:          p.TenantRouter,
		UserRepository:        p.UserRepository,
		IssueStoreFactory:     p.IssueStoreFactory,
		IntegrationController: p.IntegrationController,
		JobController:         p.JobController,
	})
	return e
}

// ListenAddr reads PORT and falls back to 8080.
func ListenAddr() string {
	return ":" + shared.FirstNonEmpty(os.Getenv("PORT"), "8080")
}

// RegisterServer ties the http server to the application lifecycle.
func RegisterServer(lc fx.Lifecycle, e *echo.Echo) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				done <- Serve(ctx, e, ListenAddr())
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case err := <-done:
				return err
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("api",
	fx.Provide(
		NewIntegrationController,
		provideJobController,
		provideServer,
	),
)
