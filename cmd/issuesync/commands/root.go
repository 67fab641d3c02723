// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set via ldflags during build
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigFilename = ".issuesync"

var cfgFile string

var rootCmd = &cobra.Command{
	SilenceUsage: true,
	Use:          "issuesync",
	Short:        "Synchronize issues with external issue trackers",
	Long: `issuesync keeps local issues in sync with Jira, GitHub, Azure DevOps and
plain URL based trackers. Run 'issuesync worker' to process the sync queue.
Configuration can be provided via a ./.issuesync config file or environment
variables (prefix ISSUESYNC_).`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := cmd.Flags().GetString("logLevel")
		if err != nil {
			return err
		}
		shared.InitLogger(shared.ParseLogLevel(level))

		return initializeConfig(cmd)
	},
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("error executing command", "err", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("logLevel", "l", "info", "Set the log level. Options: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.issuesync.yaml)")

	rootCmd.AddCommand(
		newVersionCommand(),
		newWorkerCommand(),
		newServeCommand(),
		newSyncCommand(),
		newRefreshCommand(),
		newEnqueueCommand(),
		newIntegrationsCommand(),
		newEncryptCommand(),
		newMigrateCommand(),
	)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "issuesync\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", commit)
			fmt.Fprintf(out, "Built:      %s\n", date)
		},
	}
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(defaultConfigFilename)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/issuesync/")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		slog.Debug("no config file found")
	}

	viper.SetEnvPrefix("ISSUESYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	bindFlags(cmd)
	return nil
}

// Bind each cobra flag to its associated viper configuration (config file and environment variable)
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && viper.IsSet(f.Name) {
			cmd.Flags().Set(f.Name, fmt.Sprintf("%v", viper.Get(f.Name))) // nolint: errcheck
		}
		if err := viper.BindPFlag(f.Name, f); err != nil {
			slog.Error("could not bind flag to viper", "err", err)
		}
	})
}
