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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/conduit/database"
)

const sampleYAML = `
env: production
logging:
  level: debug
  format: json
database:
  client: mysql2
  connection:
    host: ghost-db
    port: 3307
    user: ghost
    password: secret
    database: ghost
    connectTimeout: 5s
    options:
      interpolateParams: "true"
  pool:
    min: 2
    max: 10
    connMaxLifetime: 30m
  slowQueryTime: 200ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ReadsYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)

	db := cfg.DatabaseConfig()
	require.NotNil(t, db)
	assert.Equal(t, "mysql2", db.Client)
	assert.Equal(t, "ghost-db", db.Connection.Host)
	assert.Equal(t, 3307, db.Connection.Port)
	assert.Equal(t, 5*time.Second, db.Connection.ConnectTimeout)
	assert.Equal(t, "true", db.Connection.Options["interpolateParams"])
	assert.Equal(t, 2, db.Pool.Min)
	assert.Equal(t, 10, db.Pool.Max)
	assert.Equal(t, 30*time.Minute, db.Pool.ConnMaxLifetime)
	assert.Equal(t, 200*time.Millisecond, db.SlowQueryTime)
	assert.Nil(t, db.UseNullAsDefault)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	t.Setenv(EnvConfigFile, writeConfig(t, "database:\n  client: sqlite3\n  useNullAsDefault: true\n  connection:\n    filename: ghost.db\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Database)
	require.NotNil(t, cfg.Database.UseNullAsDefault)
	assert.True(t, *cfg.Database.UseNullAsDefault)
	assert.Equal(t, "development", cfg.Env)
}

func TestLoad_WithoutDatabaseSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, "env: test\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.DatabaseConfig())
	assert.NoError(t, cfg.Validate())

	var nilCfg *Config
	assert.Nil(t, nilCfg.DatabaseConfig())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_HOST", "override-host")
	t.Setenv("DB_PASSWORD", "iam-token")
	t.Setenv("DB_POOL_MAX", "20")
	t.Setenv("DB_USE_NULL_AS_DEFAULT", "false")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "mysql2", cfg.Database.Client)
	assert.Equal(t, "override-host", cfg.Database.Connection.Host)
	assert.Equal(t, "iam-token", cfg.Database.Connection.Password)
	assert.Equal(t, 20, cfg.Database.Pool.Max)
	require.NotNil(t, cfg.Database.UseNullAsDefault)
	assert.False(t, *cfg.Database.UseNullAsDefault)
}

func TestLoad_EnvironmentCreatesDatabaseSection(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("DB_CLIENT", "sqlite3")
	t.Setenv("DB_FILENAME", "/tmp/ghost.db")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "sqlite3", cfg.Database.Client)
	assert.Equal(t, "/tmp/ghost.db", cfg.Database.Connection.Filename)
}

func TestLoad_InvalidEnvironmentValues(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	t.Run("port", func(t *testing.T) {
		t.Setenv("DB_PORT", "not-a-port")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid DB_PORT")
	})
	t.Run("use null as default", func(t *testing.T) {
		t.Setenv("DB_USE_NULL_AS_DEFAULT", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid DB_USE_NULL_AS_DEFAULT")
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		err  string
	}{
		{"missing client", "database:\n  connection:\n    host: db\n", ""},
		{"blank client", "database:\n  client: '  '\n", ""},
		{"unsupported client", "database:\n  client: oracledb\n", "is not supported"},
		{"sqlite without file", "database:\n  client: sqlite3\n", "filename"},
		{"pool bounds", "database:\n  client: mysql\n  pool:\n    min: 5\n    max: 2\n", "exceeds"},
		{"client alias", "database:\n  client: ' MySQL2 '\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.yaml))
			require.NoError(t, err)
			if tc.err == "" {
				assert.NoError(t, cfg.Validate())
				return
			}
			assert.ErrorContains(t, cfg.Validate(), tc.err)
		})
	}
}

func TestLoad_PartialDatabaseEnvironment(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("DB_PASSWORD", "token")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Database)
	assert.Empty(t, cfg.Database.Client)
	assert.NoError(t, cfg.Validate())

	h, err := database.NewRegistry().Initialize(cfg)
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestLoad_UnrelatedDBPrefixedVariable(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("DB_MIGRATIONS_TABLE", "knex_migrations")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg.Database)
}

func TestLoad_FileLogging(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  file:\n    enabled: true\n    dir: /var/log/conduit\n    maxAgeDays: 14\n"))
	require.NoError(t, err)
	assert.Equal(t, FileLogConfig{Enabled: true, Dir: "/var/log/conduit", MaxAgeDays: 14}, cfg.Logging.File)

	t.Setenv("FILE_LOG_ENABLED", "false")
	t.Setenv("FILE_LOG_FORMAT", "json")
	cfg, err = Load(writeConfig(t, "logging:\n  file:\n    enabled: true\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Logging.File.Enabled)
	assert.Equal(t, "json", cfg.Logging.File.Format)
}
