// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// barReporter renders the sync progress on the terminal.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r barReporter) UpdateProgress(_ context.Context, progress shared.JobProgress) error {
	if r.bar.GetMax() != progress.Total {
		r.bar.ChangeMax(progress.Total)
	}
	r.bar.Describe(progress.Message)
	return r.bar.Set(progress.Current)
}

func addActorFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "id of the acting user")
	cmd.Flags().StringP("tenant", "t", "", "tenant id, required in multi tenant mode")
	cmd.MarkFlagRequired("user") // nolint: errcheck
}

// serviceOptions resolves the database of the tenant flag.
func serviceOptions(ctx context.Context, cmd *cobra.Command, tenants shared.TenantRouter) (context.Context, shared.ServiceOptions, error) {
	tenant, _ := cmd.Flags().GetString("tenant")
	tenant = shared.FirstNonEmpty(tenant, shared.InstanceTenantID())

	db, err := tenants.DB(ctx, tenant)
	if err != nil {
		return ctx, shared.ServiceOptions{}, err
	}
	return shared.WithTenant(ctx, tenant), shared.ServiceOptions{DB: db, TenantID: tenant}, nil
}

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <integrationId>",
		Short: "Synchronize all issues of an integration right away",
		Example: `  issuesync sync 4 --user 8d3c...
  issuesync sync 4 --user 8d3c... --project PROJ --metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			integrationID, err := parseIntegrationID(args[0])
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetString("user")
			project, _ := cmd.Flags().GetString("project")
			includeMetadata, _ := cmd.Flags().GetBool("metadata")

			var syncService shared.SyncService
			var tenants shared.TenantRouter
			return withApp(cmd.Context(), func() error {
				ctx, opts, err := serviceOptions(cmd.Context(), cmd, tenants)
				if err != nil {
					return err
				}

				bar := progressbar.Default(-1, "syncing")
				result, err := syncService.PerformSync(ctx, userID, integrationID, optionalString(project), shared.SyncOptions{IncludeMetadata: includeMetadata}, barReporter{bar: bar}, opts)
				bar.Finish() // nolint: errcheck
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\nsynced %d issues\n", result.Synced)
				for _, e := range result.Errors {
					fmt.Fprintf(out, "  - %s\n", e)
				}
				return nil
			}, &syncService, &tenants)
		},
	}
	addActorFlags(cmd)
	cmd.Flags().StringP("project", "p", "", "only sync the issues of this project")
	cmd.Flags().Bool("metadata", false, "fetch projects, issue types, statuses and priorities as well")
	return cmd
}

func newRefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh <integrationId> <issueId>",
		Short: "Refresh a single issue from the external tracker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			integrationID, err := parseIntegrationID(args[0])
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetString("user")

			var syncService shared.SyncService
			var tenants shared.TenantRouter
			return withApp(cmd.Context(), func() error {
				ctx, opts, err := serviceOptions(cmd.Context(), cmd, tenants)
				if err != nil {
					return err
				}

				s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" refreshing %s", args[1])
				s.Start()
				result := syncService.PerformIssueRefresh(ctx, userID, integrationID, args[1], opts)
				s.Stop()

				if !result.Success {
					return errors.Errorf("could not refresh issue %s: %s", args[1], result.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", args[1])
				return nil
			}, &syncService, &tenants)
		},
	}
	addActorFlags(cmd)
	return cmd
}
