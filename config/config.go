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

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tomoncle/conduit/database"
	"github.com/tomoncle/conduit/utils"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the config file when Load is called without a path.
const EnvConfigFile = "CONDUIT_CONFIG"

// Config is the application configuration.
type Config struct {
	Env      string                   `yaml:"env"`
	Logging  LoggingConfig            `yaml:"logging"`
	Database *database.DatabaseConfig `yaml:"database"`
}

// LoggingConfig selects the console log level and format, and optional
// daily rolling log files.
type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	File   FileLogConfig `yaml:"file"`
}

// FileLogConfig writes <dir>/<date>/<level>.log. Day directories older than
// MaxAgeDays are removed; zero keeps them.
type FileLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Format     string `yaml:"format"`
}

var _ database.ConfigProvider = (*Config)(nil)

// DatabaseConfig returns the database section, or nil if there is none.
func (c *Config) DatabaseConfig() *database.DatabaseConfig {
	if c == nil {
		return nil
	}
	return c.Database
}

// Load reads path (or $CONDUIT_CONFIG when path is empty), then a .env file
// in the working directory if present, then applies DB_* overrides. With no
// file at all the result holds only what the environment provides.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{Env: "development"}
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// overrideFromEnv applies DB_* and LOG_* environment variables on top of the
// file. A database section is created if any DB_* variable is set.
func (c *Config) overrideFromEnv() error {
	if env := os.Getenv("APP_ENV"); env != "" {
		c.Env = env
	}
	c.Logging.Level = utils.EnvDefaultString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = utils.EnvDefaultString("CONSOLE_LOG_FORMAT", c.Logging.Format)
	c.Logging.File.Enabled = utils.EnvDefaultBool("FILE_LOG_ENABLED", c.Logging.File.Enabled)
	c.Logging.File.Dir = utils.EnvDefaultString("FILE_LOG_DIR", c.Logging.File.Dir)
	c.Logging.File.MaxAgeDays = utils.EnvDefaultInt("FILE_LOG_MAX_AGE_DAYS", c.Logging.File.MaxAgeDays)
	c.Logging.File.Format = utils.EnvDefaultString("FILE_LOG_FORMAT", c.Logging.File.Format)

	if !hasDatabaseEnv() {
		return nil
	}
	if c.Database == nil {
		c.Database = &database.DatabaseConfig{}
	}
	db := c.Database
	conn := &db.Connection

	db.Client = utils.EnvDefaultString("DB_CLIENT", db.Client)
	conn.Host = utils.EnvDefaultString("DB_HOST", conn.Host)
	conn.User = utils.EnvDefaultString("DB_USER", conn.User)
	conn.Password = utils.EnvDefaultString("DB_PASSWORD", conn.Password)
	conn.Database = utils.EnvDefaultString("DB_NAME", conn.Database)
	conn.Filename = utils.EnvDefaultString("DB_FILENAME", conn.Filename)
	conn.SSL = utils.EnvDefaultString("DB_SSL", conn.SSL)

	var err error
	if conn.Port, err = envInt("DB_PORT", conn.Port); err != nil {
		return err
	}
	if db.Pool.Min, err = envInt("DB_POOL_MIN", db.Pool.Min); err != nil {
		return err
	}
	if db.Pool.Max, err = envInt("DB_POOL_MAX", db.Pool.Max); err != nil {
		return err
	}
	if v := os.Getenv("DB_DEBUG"); v != "" {
		db.Debug = v == "true" || v == "1"
	}
	if v := os.Getenv("DB_USE_NULL_AS_DEFAULT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_USE_NULL_AS_DEFAULT %q: %w", v, err)
		}
		db.UseNullAsDefault = &b
	}
	return nil
}

// databaseEnvKeys are the variables overrideFromEnv reads.
var databaseEnvKeys = []string{
	"DB_CLIENT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_FILENAME", "DB_SSL", "DB_POOL_MIN", "DB_POOL_MAX", "DB_DEBUG",
	"DB_USE_NULL_AS_DEFAULT",
}

func hasDatabaseEnv() bool {
	for _, key := range databaseEnvKeys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// Validate reports configuration that cannot produce a working handle. A
// database section that is absent or has no client is not an error: it
// yields no handle.
func (c *Config) Validate() error {
	db := c.DatabaseConfig()
	if db == nil || strings.TrimSpace(db.Client) == "" {
		return nil
	}
	supported := false
	for _, name := range database.SupportedClients {
		if strings.EqualFold(strings.TrimSpace(db.Client), name) {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("database.client %q is not supported, supported clients: %v", db.Client, database.SupportedClients)
	}
	if database.FamilyOf(db.Client) == database.FamilyEmbeddedFile &&
		db.Connection.Filename == "" && db.Connection.Database == "" {
		return fmt.Errorf("database.connection.filename (DB_FILENAME) is required for %s", db.Client)
	}
	if db.Pool.Max > 0 && db.Pool.Min > db.Pool.Max {
		return fmt.Errorf("database.pool.min (%d) exceeds database.pool.max (%d)", db.Pool.Min, db.Pool.Max)
	}
	return nil
}
