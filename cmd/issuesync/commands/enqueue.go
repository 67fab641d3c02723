// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newEnqueueCommand() *cobra.Command {
	enqueue := &cobra.Command{
		Use:   "enqueue",
		Short: "Put sync jobs onto the queue",
	}

	// enqueued jobs read the tenant from INSTANCE_TENANT_ID like every other producer
	run := func(cmd *cobra.Command, schedule func(syncService shared.SyncService, userID string) *string) error {
		userID, _ := cmd.Flags().GetString("user")

		var syncService shared.SyncService
		return withApp(cmd.Context(), func() error {
			jobID := schedule(syncService, userID)
			if jobID == nil {
				return errors.Wrap(shared.ErrQueueUnavailable, "job was not scheduled")
			}
			fmt.Fprintln(cmd.OutOrStdout(), *jobID)
			return nil
		}, &syncService)
	}

	syncCmd := &cobra.Command{
		Use:   "sync <integrationId>",
		Short: "Enqueue a full sync, or a project sync with --project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			integrationID, err := parseIntegrationID(args[0])
			if err != nil {
				return err
			}
			project, _ := cmd.Flags().GetString("project")
			includeMetadata, _ := cmd.Flags().GetBool("metadata")
			opts := shared.SyncOptions{IncludeMetadata: includeMetadata}

			return run(cmd, func(syncService shared.SyncService, userID string) *string {
				if project != "" {
					return syncService.QueueProjectSync(cmd.Context(), userID, integrationID, project, opts)
				}
				return syncService.QueueSync(cmd.Context(), userID, integrationID, opts)
			})
		},
	}
	syncCmd.Flags().StringP("project", "p", "", "only sync the issues of this project")
	syncCmd.Flags().Bool("metadata", false, "fetch provider metadata as well")

	refreshCmd := &cobra.Command{
		Use:   "refresh <integrationId> <issueId>",
		Short: "Enqueue the refresh of a single issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			integrationID, err := parseIntegrationID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(syncService shared.SyncService, userID string) *string {
				return syncService.QueueIssueRefresh(cmd.Context(), userID, integrationID, args[1])
			})
		},
	}

	for _, c := range []*cobra.Command{syncCmd, refreshCmd} {
		c.Flags().StringP("user", "u", "", "id of the acting user")
		c.MarkFlagRequired("user") // nolint: errcheck
		enqueue.AddCommand(c)
	}
	return enqueue
}
