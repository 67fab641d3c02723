// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/l3montree-dev/issuesync/accesscontrol"
	"github.com/l3montree-dev/issuesync/database"
	"github.com/l3montree-dev/issuesync/database/repositories"
	"github.com/l3montree-dev/issuesync/integrations"
	"github.com/l3montree-dev/issuesync/queue"
	"github.com/l3montree-dev/issuesync/search"
	"github.com/l3montree-dev/issuesync/services"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/l3montree-dev/issuesync/vault"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// connections holds the connections opened outside of the fx graph.
type connections struct {
	db     *database.Client
	valkey *redis.Client
}

func (c connections) Close() {
	if c.valkey != nil {
		c.valkey.Close() // nolint: errcheck
	}
	if c.db != nil {
		c.db.Close() // nolint: errcheck
	}
}

// connect opens the default database and the valkey connection. Valkey is optional,
// without it the queue and the issue cache are disabled.
func connect(ctx context.Context, migrate bool) (connections, error) {
	db, err := database.DatabaseFactory()
	if err != nil {
		return connections{}, errors.Wrap(err, "could not connect to database")
	}

	if migrate && os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := database.RunMigrationsWithDB(db.DB); err != nil {
			db.Close() // nolint: errcheck
			return connections{}, errors.Wrap(err, "could not run database migrations")
		}
	}

	return connections{db: db, valkey: database.NewValkeyClient(ctx)}, nil
}

func (c connections) options() fx.Option {
	opts := []fx.Option{
		fx.Supply(c.db.DB),
		fx.Supply(vault.NewFromEnv()),
		fx.Provide(func(db shared.DB) *database.TenantRouter {
			return database.NewTenantRouter(db, database.PoolTenantClientFactory(database.GetPoolConfigFromEnv()))
		}),
		fx.Provide(func(router *database.TenantRouter) shared.TenantRouter { return router }),
		repositories.Module,
		integrations.Module,
		accesscontrol.Module,
		services.Module,
		search.Module,
	}

	if c.valkey != nil {
		opts = append(opts,
			fx.Supply(c.valkey),
			fx.Provide(func(client *redis.Client) shared.PubSubBroker { return database.NewValkeyBroker(client) }),
			fx.Provide(func(client *redis.Client) *queue.Queue { return queue.NewQueue(client, queue.DefaultQueueName) }),
			fx.Provide(func(q *queue.Queue) shared.JobQueue { return q }),
		)
	}
	return fx.Options(opts...)
}

// withApp starts a quiet application for one-shot commands and populates targets.
func withApp(ctx context.Context, fn func() error, targets ...any) error {
	rt, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := fx.New(rt.options(), fx.NopLogger, fx.Populate(targets...))
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background()) // nolint: errcheck

	return fn()
}

func parseIntegrationID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid integration id %q", raw)
	}
	return uint(id), nil
}

// optionalString returns nil for an empty flag value.
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
