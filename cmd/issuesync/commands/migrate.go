// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log/slog"

	"github.com/l3montree-dev/issuesync/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the database migrations",
		Long: `Runs all pending migrations against the default database. With --all-tenants
every tenant database from the tenant configuration is migrated as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			allTenants, _ := cmd.Flags().GetBool("all-tenants")

			client, err := database.DatabaseFactory()
			if err != nil {
				return errors.Wrap(err, "could not connect to database")
			}
			defer client.Close() // nolint: errcheck

			if err := database.RunMigrationsWithDB(client.DB); err != nil {
				return err
			}
			if v, dirty, err := database.GetMigrationVersionWithDB(client.DB); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "default database at version %d (dirty: %t)\n", v, dirty)
			}

			if !allTenants {
				return nil
			}

			router := database.NewTenantRouter(client.DB, database.PoolTenantClientFactory(database.GetPoolConfigFromEnv()))
			defer router.DisconnectAll()

			ids, err := router.TenantIDs()
			if err != nil {
				return err
			}
			for _, id := range ids {
				tenantClient, err := router.Client(cmd.Context(), id)
				if err != nil {
					return err
				}
				slog.Info("migrating tenant database", "tenant", id)
				if err := database.RunMigrationsWithDB(tenantClient.Database()); err != nil {
					return errors.Wrapf(err, "tenant %s", id)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tenant databases\n", len(ids))
			return nil
		},
	}
	cmd.Flags().Bool("all-tenants", false, "migrate every configured tenant database")
	return cmd
}
