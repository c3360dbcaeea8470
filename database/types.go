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
	"time"
)

// ConfigProvider exposes the "database" section of the application config.
// A nil return means the section is absent.
type ConfigProvider interface {
	DatabaseConfig() *DatabaseConfig
}

// DatabaseConfig mirrors the knex-style database section:
//
//	database:
//	  client: mysql2
//	  connection: {host: db, user: app, password: secret, database: app}
//	  pool: {min: 1, max: 10}
type DatabaseConfig struct {
	Client              string           `yaml:"client" json:"client"`
	Connection          ConnectionParams `yaml:"connection" json:"connection"`
	UseNullAsDefault    *bool            `yaml:"useNullAsDefault,omitempty" json:"useNullAsDefault,omitempty"`
	Pool                PoolConfig       `yaml:"pool" json:"pool"`
	Debug               bool             `yaml:"debug" json:"debug"`
	SlowQueryTime       time.Duration    `yaml:"slowQueryTime" json:"slowQueryTime"`
	HealthCheckInterval time.Duration    `yaml:"healthCheckInterval" json:"healthCheckInterval"`
}

// ConnectionParams holds driver connection settings. Fields that a client
// family does not use are ignored by it.
type ConnectionParams struct {
	Host           string            `yaml:"host,omitempty" json:"host,omitempty"`
	Port           int               `yaml:"port,omitempty" json:"port,omitempty"`
	User           string            `yaml:"user,omitempty" json:"user,omitempty"`
	Password       string            `yaml:"password,omitempty" json:"password,omitempty"`
	Database       string            `yaml:"database,omitempty" json:"database,omitempty"`
	Filename       string            `yaml:"filename,omitempty" json:"filename,omitempty"` // sqlite
	SSL            string            `yaml:"ssl,omitempty" json:"ssl,omitempty"`           // true, skip-verify, preferred, or a pq sslmode
	Timezone       string            `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Charset        string            `yaml:"charset,omitempty" json:"charset,omitempty"`
	ConnectTimeout time.Duration     `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    time.Duration     `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   time.Duration     `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	Options        map[string]string `yaml:"options,omitempty" json:"options,omitempty"`

	LoggingHook       LoggingHook       `yaml:"-" json:"-"`
	AuthSwitchHandler AuthSwitchHandler `yaml:"-" json:"-"`
}

// PoolConfig tunes the database/sql pool. Zero values keep driver defaults,
// except for SQLite which is limited to a single connection.
type PoolConfig struct {
	Min             int           `yaml:"min" json:"min"`
	Max             int           `yaml:"max" json:"max"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `yaml:"connMaxIdleTime" json:"connMaxIdleTime"`
}

// LoggingHook receives internal errors reported by the driver.
type LoggingHook func(err error)

// AuthSwitchRequest is the server's request to change authentication method.
type AuthSwitchRequest struct {
	PluginName string
	PluginData []byte
}

// AuthSwitchCallback answers an AuthSwitchRequest.
type AuthSwitchCallback func(err error, data []byte)

// AuthSwitchHandler may answer an auth switch by calling cb. Not calling cb
// declines the request.
type AuthSwitchHandler func(req AuthSwitchRequest, cb AuthSwitchCallback)

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Client        string        `json:"client"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// Redacted returns a copy safe to print: the password is masked and the
// callbacks are dropped.
func (c *DatabaseConfig) Redacted() *DatabaseConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Connection.LoggingHook = nil
	out.Connection.AuthSwitchHandler = nil
	if out.Connection.Password != "" {
		out.Connection.Password = "******"
	}
	if c.Connection.Options != nil {
		out.Connection.Options = make(map[string]string, len(c.Connection.Options))
		for k, v := range c.Connection.Options {
			out.Connection.Options[k] = v
		}
	}
	if c.UseNullAsDefault != nil {
		v := *c.UseNullAsDefault
		out.UseNullAsDefault = &v
	}
	return &out
}
