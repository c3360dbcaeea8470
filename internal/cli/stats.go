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
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print connection pool statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	h, err := openHandle()
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 10*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s := h.Stats()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", color.CyanString("STAT"), color.CyanString("VALUE"))
	fmt.Fprintf(w, "client\t%s\n", h.Client())
	fmt.Fprintf(w, "max_open_conns\t%d\n", s.MaxOpenConns)
	fmt.Fprintf(w, "open_conns\t%d\n", s.OpenConns)
	fmt.Fprintf(w, "in_use\t%d\n", s.InUse)
	fmt.Fprintf(w, "idle\t%d\n", s.Idle)
	fmt.Fprintf(w, "wait_count\t%d\n", s.WaitCount)
	fmt.Fprintf(w, "wait_duration\t%s\n", s.WaitDuration)
	fmt.Fprintf(w, "max_idle_closed\t%d\n", s.MaxIdleClosed)
	fmt.Fprintf(w, "max_idle_time_closed\t%d\n", s.MaxIdleTimeClosed)
	fmt.Fprintf(w, "max_lifetime_closed\t%d\n", s.MaxLifetimeClosed)
	return w.Flush()
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
