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
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	checkTimeout time.Duration
	checkJSON    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Open the database handle and ping it",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Ping timeout")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the health status as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	h, err := openHandle()
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, checkTimeout)
	defer cancel()
	status := h.HealthCheck(ctx)

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			return err
		}
	} else if status.Healthy {
		fmt.Fprintf(out, "%s %s (%s) responded in %s\n",
			color.GreenString("OK"), status.Client, h.Family().Name(), status.ResponseTime.Round(time.Microsecond))
	} else {
		fmt.Fprintf(out, "%s %s (%s): %s\n",
			color.RedString("FAIL"), status.Client, h.Family().Name(), status.LastError)
	}

	if !status.Healthy {
		return fmt.Errorf("database unhealthy: %s", status.LastError)
	}
	return nil
}
