// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"context"
	"log/slog"

	"github.com/l3montree-dev/issuesync/api"
	"github.com/l3montree-dev/issuesync/daemons"
	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// runLongLived runs the application until SIGINT or SIGTERM.
func runLongLived(cmd *cobra.Command, options ...fx.Option) error {
	flush := monitoring.InitSentry(version)
	defer flush()
	defer func() {
		if err := recover(); err != nil {
			monitoring.RecoverAndAlert("issuesync crashed", err)
			flush()
			panic(err)
		}
	}()

	shutdownTracing, err := telemetry.InitTracing(cmd.Context(), "issuesync", version)
	if err != nil {
		slog.Warn("could not initialize tracing", "err", err)
	}
	defer shutdownTracing(context.Background()) // nolint: errcheck

	conns, err := connect(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer conns.Close()

	app := fx.New(append([]fx.Option{conns.options()}, options...)...)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process the sync queue and serve the http api",
		Long: `Starts the sync worker which processes one sync job at a time, together with
the http api. In multi tenant mode every tenant database client is disconnected
on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noAPI, _ := cmd.Flags().GetBool("no-api")

			options := []fx.Option{
				daemons.Module,
				fx.Invoke(daemons.RegisterSyncWorker),
			}
			if !noAPI {
				options = append(options, api.Module, fx.Invoke(api.RegisterServer))
			}
			return runLongLived(cmd, options...)
		},
	}
	cmd.Flags().Bool("no-api", false, "only run the sync worker")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the http api without processing jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLongLived(cmd, api.Module, fx.Invoke(api.RegisterServer))
		},
	}
}
