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
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestConfigure_SQLiteDefaultsUseNullAsDefaultToFalse(t *testing.T) {
	for _, client := range []string{"sqlite3", "sqlite", "better-sqlite3"} {
		cfg := &DatabaseConfig{Client: client, Connection: ConnectionParams{Filename: "ghost.db"}}

		out := Configure(cfg)

		require.NotNil(t, out.UseNullAsDefault, client)
		assert.False(t, *out.UseNullAsDefault, client)
		assert.Equal(t, ConnectionParams{Filename: "ghost.db"}, out.Connection, client)
	}
}

func TestConfigure_SQLiteKeepsExplicitUseNullAsDefault(t *testing.T) {
	cfg := &DatabaseConfig{Client: "sqlite3", UseNullAsDefault: boolPtr(true)}

	Configure(cfg)

	require.NotNil(t, cfg.UseNullAsDefault)
	assert.True(t, *cfg.UseNullAsDefault)
}

func TestConfigure_MySQLForcesTimezoneAndCharset(t *testing.T) {
	for _, client := range []string{"mysql", "mysql2"} {
		cfg := &DatabaseConfig{
			Client: client,
			Connection: ConnectionParams{
				Host:     "db",
				Timezone: "Europe/Berlin",
				Charset:  "latin1",
			},
		}

		Configure(cfg)

		assert.Equal(t, "UTC", cfg.Connection.Timezone, client)
		assert.Equal(t, "utf8mb4", cfg.Connection.Charset, client)
		assert.Equal(t, "db", cfg.Connection.Host, client)
		assert.NotNil(t, cfg.Connection.LoggingHook, client)
		assert.NotNil(t, cfg.Connection.AuthSwitchHandler, client)
		assert.Nil(t, cfg.UseNullAsDefault, client)
	}
}

func TestConfigure_OtherClientsPassThrough(t *testing.T) {
	cfg := &DatabaseConfig{
		Client: "pg",
		Connection: ConnectionParams{
			Host:     "pg",
			Timezone: "Europe/Berlin",
		},
	}

	out := Configure(cfg)

	assert.Same(t, cfg, out)
	assert.Equal(t, "Europe/Berlin", out.Connection.Timezone)
	assert.Empty(t, out.Connection.Charset)
	assert.Nil(t, out.Connection.LoggingHook)
	assert.Nil(t, out.Connection.AuthSwitchHandler)
	assert.Nil(t, out.UseNullAsDefault)
}

func TestConfigure_ReturnsSamePointer(t *testing.T) {
	cfg := &DatabaseConfig{Client: "mysql2"}
	assert.Same(t, cfg, Configure(cfg))
	assert.Nil(t, Configure(nil))
}

func TestAuthSwitchHandler_ClearPassword(t *testing.T) {
	cfg := Configure(&DatabaseConfig{
		Client:     "mysql2",
		Connection: ConnectionParams{Password: "secret"},
	})

	var (
		called  bool
		gotErr  error
		gotData []byte
	)
	cfg.Connection.AuthSwitchHandler(AuthSwitchRequest{PluginName: "mysql_clear_password"}, func(err error, data []byte) {
		called = true
		gotErr = err
		gotData = data
	})

	require.True(t, called)
	assert.NoError(t, gotErr)
	assert.Equal(t, []byte("secret\x00"), gotData)
}

func TestAuthSwitchHandler_OtherPluginIsIgnored(t *testing.T) {
	cfg := Configure(&DatabaseConfig{
		Client:     "mysql2",
		Connection: ConnectionParams{Password: "secret"},
	})

	for _, plugin := range []string{"caching_sha2_password", "mysql_native_password", ""} {
		called := false
		cfg.Connection.AuthSwitchHandler(AuthSwitchRequest{PluginName: plugin}, func(error, []byte) {
			called = true
		})
		assert.False(t, called, plugin)
	}
}

func TestAuthSwitchHandler_ReadsCurrentPassword(t *testing.T) {
	cfg := Configure(&DatabaseConfig{
		Client:     "mysql2",
		Connection: ConnectionParams{Password: "token-1"},
	})
	cfg.Connection.Password = "token-2"

	var got []byte
	cfg.Connection.AuthSwitchHandler(AuthSwitchRequest{PluginName: ClearPasswordPlugin}, func(_ error, data []byte) {
		got = data
	})
	assert.Equal(t, []byte("token-2\x00"), got)
}

func TestMySQLLoggingHook_LogsInternalServerError(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	t.Cleanup(func() { SetLogger(nil) })

	cfg := Configure(&DatabaseConfig{Client: "mysql2"})
	cfg.Connection.LoggingHook(&mysql.MySQLError{Number: 1045, Message: "Access denied"})
	cfg.Connection.LoggingHook(errors.New("packets.go: unexpected EOF"))

	require.Len(t, rec.errors, 2)
	first := rec.errors[0]
	assert.Equal(t, "MySQL driver error", first.msg)
	assert.Equal(t, "MYSQL_LOGGING_HOOK", first.fields["code"])
	assert.Contains(t, first.fields["error"], "Access denied")
	assert.Equal(t, "access_denied", first.fields["sql_error"])

	second := rec.errors[1]
	assert.Contains(t, second.fields["error"], "unexpected EOF")
	_, classified := second.fields["sql_error"]
	assert.False(t, classified)
}

type logLine struct {
	msg    string
	fields map[string]interface{}
}

// recordingLogger keeps error and warn lines for assertions.
type recordingLogger struct {
	errors []logLine
	warns  []logLine
}

func (r *recordingLogger) SetLevel(LogLevel)            {}
func (r *recordingLogger) Debug(string, ...interface{}) {}
func (r *recordingLogger) Info(string, ...interface{})  {}

func (r *recordingLogger) Warn(msg string, kv ...interface{}) {
	r.warns = append(r.warns, logLine{msg: msg, fields: fieldsMap(kv)})
}

func (r *recordingLogger) Error(msg string, kv ...interface{}) {
	r.errors = append(r.errors, logLine{msg: msg, fields: fieldsMap(kv)})
}

func fieldsMap(kv []interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range toFields(kv) {
		out[k] = v
	}
	return out
}
