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
	"strings"
	"sync"

	"github.com/tomoncle/conduit/types"
	"github.com/uptrace/bun"
)

// Registry creates the connection handle at most once and hands the same
// instance to every caller.
//
// A missing or incomplete database section does not latch: the call returns
// no handle, and a later Initialize with complete configuration still
// succeeds. Failed opens are not cached either.
type Registry struct {
	mu     sync.Mutex
	handle *Handle
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Initialize adapts the provider's database section and opens the handle.
// It returns (nil, nil) when there is no section or no client. Open
// failures are returned as *types.InternalServerError with code
// DATABASE_INIT.
func (r *Registry) Initialize(provider ConfigProvider) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle != nil {
		return r.handle, nil
	}

	var cfg *DatabaseConfig
	if provider != nil {
		cfg = provider.DatabaseConfig()
	}
	if cfg == nil || strings.TrimSpace(cfg.Client) == "" {
		GetLogger().Warn("Database configuration has no client, connection handle not created")
		return nil, nil
	}

	handle, err := Open(Configure(cfg))
	if err != nil {
		GetLogger().Error("Failed to create database handle", "client", cfg.Client, "error", err)
		return nil, types.NewInternalServerError(types.CodeDatabaseInit, err)
	}
	r.handle = handle
	GetLogger().Info("Database handle created", "client", cfg.Client, "family", handle.Family().Name())
	return handle, nil
}

// Handle returns the cached handle, or nil before a successful Initialize.
func (r *Registry) Handle() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

// Close closes the cached handle. The registry stays usable and a later
// Initialize opens a new handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	h := r.handle
	r.handle = nil
	r.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Close()
}

var defaultRegistry = NewRegistry()

// InitDB initializes the process-wide handle from provider.
func InitDB(provider ConfigProvider) (*bun.DB, error) {
	h, err := defaultRegistry.Initialize(provider)
	if err != nil || h == nil {
		return nil, err
	}
	return h.DB(), nil
}

// GetHandle returns the process-wide handle, or nil.
func GetHandle() *Handle {
	return defaultRegistry.Handle()
}

// GetDB returns the process-wide Bun database, or nil.
func GetDB() *bun.DB {
	if h := defaultRegistry.Handle(); h != nil {
		return h.DB()
	}
	return nil
}

// CloseDB closes the process-wide handle.
func CloseDB() error {
	return defaultRegistry.Close()
}

// GetHealthStatus returns the process-wide handle's health.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if h := defaultRegistry.Handle(); h != nil {
		return h.HealthCheck(ctx)
	}
	return &HealthStatus{
		Healthy:   false,
		LastError: "Database not initialized",
	}
}

// GetDatabaseStats returns the process-wide pool statistics.
func GetDatabaseStats() *DBStats {
	if h := defaultRegistry.Handle(); h != nil {
		return h.Stats()
	}
	return &DBStats{}
}
