/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the conduit command: it loads the application
// configuration, adapts the database section and reports on the handle.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomoncle/conduit/config"
	"github.com/tomoncle/conduit/database"
	"github.com/tomoncle/conduit/utils"
)

var (
	cfgFile  string
	cfg      *config.Config
	registry *database.Registry
)

var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Adapt and verify database connection settings",
	Long: `Conduit reads the application configuration, adapts the database
section for its client (SQLite null defaults, MySQL UTC and utf8mb4 with
clear-text IAM authentication) and opens the shared connection handle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Logging.Format != "" {
			utils.ConfigureConsoleLogFormat(cfg.Logging.Format)
		}
		if cfg.Logging.Level != "" {
			utils.ConfigureLogLevel(cfg.Logging.Level)
		}
		utils.SetOutput(cmd.ErrOrStderr())
		if file := cfg.Logging.File; file.Enabled {
			if file.Format != "" {
				utils.ConfigureFileLogFormat(file.Format)
			}
			if err := utils.ConfigureFileLog(true, file.Dir, file.MaxAgeDays); err != nil {
				return fmt.Errorf("failed to configure file logging: %w", err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		registry = database.NewRegistry()
		return nil
	},
}

// Execute runs the root command. The handle opened by a subcommand is
// closed whether or not the subcommand succeeded.
func Execute() (err error) {
	defer func() {
		if registry == nil {
			return
		}
		if cerr := registry.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $"+config.EnvConfigFile+")")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statsCmd)
}

// openHandle initializes the shared handle. check and stats cannot run
// without one, so a missing database section is an error here.
func openHandle() (*database.Handle, error) {
	h, err := registry.Initialize(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if h == nil {
		return nil, fmt.Errorf("no database configured")
	}
	return h, nil
}
