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
	"github.com/tomoncle/conduit/types"
)

const (
	// ClearPasswordPlugin is the auth plugin RDS IAM authentication asks for.
	ClearPasswordPlugin = "mysql_clear_password"

	mysqlTimezone = "UTC"
	mysqlCharset  = "utf8mb4"
)

// Configure adapts cfg in place for its client family and returns the same
// pointer.
//
// SQLite keeps UseNullAsDefault if set and defaults it to false otherwise.
// MySQL is pinned to UTC and utf8mb4 and gets a logging hook and an auth
// switch handler for IAM clear-text passwords. Other clients are untouched.
func Configure(cfg *DatabaseConfig) *DatabaseConfig {
	if cfg == nil {
		return nil
	}

	switch FamilyOf(cfg.Client) {
	case FamilyEmbeddedFile:
		if cfg.UseNullAsDefault == nil {
			useNull := false
			cfg.UseNullAsDefault = &useNull
		}
	case FamilyNetworkedServer:
		cfg.Connection.Timezone = mysqlTimezone
		cfg.Connection.Charset = mysqlCharset
		cfg.Connection.LoggingHook = mysqlLoggingHook
		cfg.Connection.AuthSwitchHandler = ClearPasswordAuthSwitchHandler(&cfg.Connection)
	}
	return cfg
}

// mysqlLoggingHook reports driver faults to the database logger without
// interrupting the caller.
func mysqlLoggingHook(err error) {
	ise := types.NewInternalServerError(types.CodeMySQLLoggingHook, err)
	fields := []interface{}{"code", ise.Code, "error", ise.Error()}
	if err != nil {
		if ok, kind := IsSqlError(err); ok {
			fields = append(fields, "sql_error", kind.String())
		}
	}
	GetLogger().Error("MySQL driver error", fields...)
}

// ClearPasswordAuthSwitchHandler answers mysql_clear_password requests with
// the NUL-terminated password from conn. The password is read when the
// request arrives, so rotated IAM tokens are picked up. Other plugins are
// declined.
func ClearPasswordAuthSwitchHandler(conn *ConnectionParams) AuthSwitchHandler {
	return func(req AuthSwitchRequest, cb AuthSwitchCallback) {
		if req.PluginName != ClearPasswordPlugin {
			return
		}
		data := make([]byte, 0, len(conn.Password)+1)
		data = append(data, conn.Password...)
		data = append(data, 0)
		cb(nil, data)
	}
}
