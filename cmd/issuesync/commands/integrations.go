// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"context"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func capabilityNames(c shared.Capabilities) string {
	var names []string
	for name, enabled := range map[string]bool{
		"create":       c.CreateIssue,
		"update":       c.UpdateIssue,
		"link":         c.LinkIssue,
		"sync":         c.SyncIssue,
		"search":       c.SearchIssues,
		"webhooks":     c.Webhooks,
		"customFields": c.CustomFields,
		"attachments":  c.Attachments,
	} {
		if enabled {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func integrationRow(ctx context.Context, manager shared.IntegrationManager, db shared.DB, integration models.Integration, validate bool) table.Row {
	row := table.Row{integration.ID, integration.Name, integration.Provider, integration.Status, integration.AuthType}

	capabilities, err := manager.GetCapabilities(ctx, db, integration.ID)
	if err != nil {
		row = append(row, "error: "+err.Error())
	} else {
		row = append(row, capabilityNames(capabilities))
	}

	if !validate {
		return row
	}
	result, err := manager.ValidateIntegration(ctx, db, integration.ID)
	switch {
	case err != nil:
		row = append(row, "error: "+err.Error())
	case result.Valid:
		row = append(row, "valid")
	default:
		row = append(row, strings.Join(result.Errors, "\n"))
	}
	return row
}

func newIntegrationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "List the configured integrations with their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			validate, _ := cmd.Flags().GetBool("validate")

			var repository shared.IntegrationRepository
			var manager shared.IntegrationManager
			var db shared.DB
			return withApp(cmd.Context(), func() error {
				integrations, err := repository.All()
				if err != nil {
					return err
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				header := table.Row{"ID", "Name", "Provider", "Status", "Auth", "Capabilities"}
				if validate {
					header = append(header, "Validation")
				}
				tw.AppendHeader(header)
				for _, integration := range integrations {
					tw.AppendRow(integrationRow(cmd.Context(), manager, db, integration, validate))
				}
				tw.Render()
				return nil
			}, &repository, &manager, &db)
		},
	}
	cmd.Flags().Bool("validate", false, "validate the configuration against the provider")
	cmd.AddCommand(newIntegrationStatusCommand())
	return cmd
}

func setIntegrationStatus(repository shared.IntegrationRepository, id uint, raw string) (models.Integration, error) {
	status := models.IntegrationStatus(strings.ToUpper(raw))
	if status != models.IntegrationStatusActive && status != models.IntegrationStatusInactive {
		return models.Integration{}, errors.Errorf("unknown integration status %q, expected active or inactive", raw)
	}

	integration, err := repository.Read(id)
	if err != nil {
		return integration, errors.Wrapf(err, "could not read integration %d", id)
	}
	if integration.Status == status {
		return integration, nil
	}
	integration.Status = status
	if err := repository.Save(nil, &integration); err != nil {
		return integration, errors.Wrapf(err, "could not save integration %d", id)
	}
	return integration, nil
}

func newIntegrationStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <integration-id> <active|inactive>",
		Short: "Activate or deactivate an integration",
		Long:  "Inactive integrations keep their issues but refuse every provider operation until activated again.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntegrationID(args[0])
			if err != nil {
				return err
			}

			var repository shared.IntegrationRepository
			var cache shared.IssueCache
			return withApp(cmd.Context(), func() error {
				integration, err := setIntegrationStatus(repository, id, args[1])
				if err != nil {
					return err
				}
				cache.InvalidateIntegration(cmd.Context(), id)
				cmd.Printf("integration %d (%s) is now %s\n", integration.ID, integration.Name, integration.Status)
				return nil
			}, &repository, &cache)
		},
	}
}
