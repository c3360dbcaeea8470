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

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tomoncle/conduit/database"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the adapted database configuration",
	Long:  `Print the database section after client adaptation, with the password masked.`,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	db := cfg.DatabaseConfig()
	if db == nil || strings.TrimSpace(db.Client) == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "# no database configured")
		return nil
	}
	adapted := database.Configure(db).Redacted()

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]*database.DatabaseConfig{"database": adapted})
}
