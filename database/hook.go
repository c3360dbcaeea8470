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

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var slowLabel = color.New(color.FgYellow, color.Bold).SprintFunc()

// SlowQueryHook warns about queries that take longer than Threshold.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.Threshold <= 0 {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.Threshold {
		return
	}
	logger := h.Logger
	if logger == nil {
		logger = GetLogger()
	}
	logger.Warn(slowLabel("Database slow query detected"),
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.Threshold,
		"operation", event.Operation(),
		"query", event.Query,
	)
}

// driverErrorHook routes failed queries to the connection's LoggingHook.
// Expected outcomes such as sql.ErrNoRows, caller cancellation and SQL
// errors the server reported are left to the caller.
type driverErrorHook struct {
	hook LoggingHook
}

func (h *driverErrorHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *driverErrorHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err == nil || h.hook == nil {
		return
	}
	var serverErr *mysql.MySQLError
	switch {
	case errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
		return
	case errors.Is(event.Err, context.Canceled), errors.Is(event.Err, context.DeadlineExceeded):
		return
	case errors.As(event.Err, &serverErr):
		return
	}
	h.hook(event.Err)
}

// installQueryHooks attaches the hooks selected by cfg.
func installQueryHooks(db *bun.DB, cfg *DatabaseConfig, logger Logger) {
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&SlowQueryHook{Threshold: cfg.SlowQueryTime, Logger: logger})
	}
	if cfg.Connection.LoggingHook != nil {
		db.AddQueryHook(&driverErrorHook{hook: cfg.Connection.LoggingHook})
	}
}
