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
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

const healthCheckTimeout = 5 * time.Second

// Handle is the shared connection handle. It is safe for concurrent use;
// the pool itself is managed by database/sql.
type Handle struct {
	config *DatabaseConfig
	family ClientFamily
	db     *bun.DB
	sqlDB  *sql.DB
	logger Logger

	mu         sync.RWMutex
	closed     bool
	lastHealth *HealthStatus

	stopMonitor chan struct{}
	monitorDone chan struct{}
}

func newHandle(cfg *DatabaseConfig, sqlDB *sql.DB, db *bun.DB, logger Logger) *Handle {
	h := &Handle{
		config: cfg,
		family: FamilyOf(cfg.Client),
		db:     db,
		sqlDB:  sqlDB,
		logger: logger,
	}
	if cfg.HealthCheckInterval > 0 {
		h.startHealthMonitor(cfg.HealthCheckInterval)
	}
	return h
}

// DB returns the Bun query builder bound to the pool.
func (h *Handle) DB() *bun.DB { return h.db }

// SQLDB returns the underlying database/sql pool.
func (h *Handle) SQLDB() *sql.DB { return h.sqlDB }

// Config returns the adapted configuration the handle was opened with.
func (h *Handle) Config() *DatabaseConfig { return h.config }

func (h *Handle) Client() string { return h.config.Client }

func (h *Handle) Family() ClientFamily { return h.family }

// UseNullAsDefault reports whether inserts should write NULL for values the
// caller leaves out.
func (h *Handle) UseNullAsDefault() bool {
	return h.config.UseNullAsDefault != nil && *h.config.UseNullAsDefault
}

func (h *Handle) Ping(ctx context.Context) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return fmt.Errorf("database handle is closed")
	}
	return h.db.PingContext(ctx)
}

// HealthCheck pings the database and records the result.
func (h *Handle) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Client:        h.config.Client,
		LastCheckTime: start,
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err := h.Ping(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
	}

	stats := h.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	h.mu.Lock()
	h.lastHealth = status
	h.mu.Unlock()
	return status
}

// LastHealth returns the most recent HealthCheck result, or nil.
func (h *Handle) LastHealth() *HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastHealth
}

func (h *Handle) Stats() *DBStats {
	stats := h.sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

// Close stops the health monitor and closes the pool. It is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	stop, done := h.stopMonitor, h.monitorDone
	h.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	err := h.db.Close()
	if err != nil {
		h.logger.Error("Failed to close database connection", "client", h.config.Client, "error", err)
		return err
	}
	h.logger.Info("Database connection closed", "client", h.config.Client)
	return nil
}

func (h *Handle) startHealthMonitor(interval time.Duration) {
	h.stopMonitor = make(chan struct{})
	h.monitorDone = make(chan struct{})

	go func() {
		defer close(h.monitorDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		healthy := true
		for {
			select {
			case <-ticker.C:
				status := h.HealthCheck(context.Background())
				switch {
				case !status.Healthy && healthy:
					h.logger.Warn("Database health check failed", "client", status.Client, "error", status.LastError)
				case status.Healthy && !healthy:
					h.logger.Info("Database health restored", "client", status.Client, "response_time", status.ResponseTime)
				}
				healthy = status.Healthy
			case <-h.stopMonitor:
				return
			}
		}
	}()
}
