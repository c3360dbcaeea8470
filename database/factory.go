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
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
	defaultHost         = "127.0.0.1"
)

// SupportedClients lists the client names Open accepts.
var SupportedClients = []string{
	"sqlite3", "sqlite", "better-sqlite3",
	"mysql", "mysql2", "mariadb",
	"pg", "postgres", "postgresql",
}

// Open builds a handle for an already configured cfg. The pool connects
// lazily; call Ping to verify the server is reachable.
func Open(cfg *DatabaseConfig) (*Handle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch normalizeClient(cfg.Client) {
	case "sqlite3", "sqlite", "better-sqlite3":
		sqlDB, db, err = openSQLite(&cfg.Connection)
	case "mysql", "mysql2", "mariadb":
		sqlDB, db, err = openMySQL(&cfg.Connection)
	case "pg", "postgres", "postgresql":
		sqlDB, db, err = openPostgres(&cfg.Connection)
	default:
		return nil, fmt.Errorf("unsupported database client: %q, supported clients: %v", cfg.Client, SupportedClients)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Client, err)
	}

	configurePool(sqlDB, cfg)
	logger := GetLogger()
	installQueryHooks(db, cfg, logger)

	return newHandle(cfg, sqlDB, db, logger), nil
}

func openSQLite(conn *ConnectionParams) (*sql.DB, *bun.DB, error) {
	dsn, err := sqliteDSN(conn)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func sqliteDSN(conn *ConnectionParams) (string, error) {
	dsn := conn.Filename
	if dsn == "" {
		dsn = conn.Database
	}
	if dsn == "" {
		return "", fmt.Errorf("sqlite requires connection.filename")
	}
	if len(conn.Options) == 0 {
		return dsn, nil
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + encodeOptions(conn.Options), nil
}

func openMySQL(conn *ConnectionParams) (*sql.DB, *bun.DB, error) {
	mc, err := buildMySQLConfig(conn)
	if err != nil {
		return nil, nil, err
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, err
	}
	sqlDB := sql.OpenDB(connector)
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

// buildMySQLConfig maps conn onto the driver config. Charset and extra
// options go through the driver's DSN parser so they are validated the same
// way a DSN would be; credentials are assigned afterwards and never pass
// through DSN escaping.
func buildMySQLConfig(conn *ConnectionParams) (*mysql.Config, error) {
	params := url.Values{}
	for k, v := range conn.Options {
		params.Set(k, v)
	}
	if conn.Charset != "" {
		params.Set("charset", conn.Charset)
	}
	dsn := "/"
	if len(params) > 0 {
		dsn += "?" + params.Encode()
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql options: %w", err)
	}

	mc.User = conn.User
	mc.Passwd = conn.Password
	mc.DBName = conn.Database
	mc.Net, mc.Addr = mysqlAddress(conn.Host, conn.Port)
	mc.ParseTime = true
	mc.Timeout = conn.ConnectTimeout
	mc.ReadTimeout = conn.ReadTimeout
	mc.WriteTimeout = conn.WriteTimeout

	if conn.Timezone != "" {
		loc, err := parseTimezone(conn.Timezone)
		if err != nil {
			return nil, err
		}
		mc.Loc = loc
	}

	tlsConfig, err := mysqlTLSConfig(conn.SSL)
	if err != nil {
		return nil, err
	}
	mc.TLSConfig = tlsConfig

	if conn.LoggingHook != nil {
		mc.Logger = &loggingHookAdapter{hook: conn.LoggingHook}
	}

	if conn.AuthSwitchHandler != nil {
		if password, ok := answerClearPassword(conn.AuthSwitchHandler); ok {
			mc.Passwd = password
			mc.AllowCleartextPasswords = true
		}
		handler := conn.AuthSwitchHandler
		if err := mc.Apply(mysql.BeforeConnect(func(ctx context.Context, c *mysql.Config) error {
			if password, ok := answerClearPassword(handler); ok {
				c.Passwd = password
				c.AllowCleartextPasswords = true
			}
			return nil
		})); err != nil {
			return nil, err
		}
	}
	return mc, nil
}

// answerClearPassword asks handler how it would answer a clear-text password
// request. The driver appends the NUL terminator itself, so it is stripped.
func answerClearPassword(handler AuthSwitchHandler) (string, bool) {
	var (
		answered bool
		data     []byte
	)
	handler(AuthSwitchRequest{PluginName: ClearPasswordPlugin}, func(err error, d []byte) {
		if err != nil {
			return
		}
		answered = true
		data = d
	})
	if !answered {
		return "", false
	}
	return strings.TrimSuffix(string(data), "\x00"), true
}

func mysqlAddress(host string, port int) (string, string) {
	if strings.HasPrefix(host, "/") {
		return "unix", host
	}
	if host == "" {
		host = defaultHost
	}
	if port <= 0 {
		port = defaultMySQLPort
	}
	return "tcp", net.JoinHostPort(host, strconv.Itoa(port))
}

func mysqlTLSConfig(ssl string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(ssl)) {
	case "", "false", "disable", "disabled":
		return "", nil
	case "true", "require", "required", "verify-full":
		return "true", nil
	case "skip-verify":
		return "skip-verify", nil
	case "preferred":
		return "preferred", nil
	default:
		return "", fmt.Errorf("unsupported mysql ssl mode: %q", ssl)
	}
}

func parseTimezone(tz string) (*time.Location, error) {
	switch strings.ToLower(tz) {
	case "utc", "z", "+00:00":
		return time.UTC, nil
	case "local":
		return time.Local, nil
	}
	if len(tz) == 6 && (tz[0] == '+' || tz[0] == '-') && tz[3] == ':' {
		h, errH := strconv.Atoi(tz[1:3])
		m, errM := strconv.Atoi(tz[4:6])
		if errH == nil && errM == nil {
			offset := h*3600 + m*60
			if tz[0] == '-' {
				offset = -offset
			}
			return time.FixedZone(tz, offset), nil
		}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// loggingHookAdapter satisfies the mysql driver's Logger interface.
type loggingHookAdapter struct {
	hook LoggingHook
}

func (a *loggingHookAdapter) Print(v ...any) {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			a.hook(err)
			return
		}
	}
	a.hook(errors.New(strings.TrimSpace(fmt.Sprint(v...))))
}

func openPostgres(conn *ConnectionParams) (*sql.DB, *bun.DB, error) {
	connector, err := pq.NewConnector(postgresDSN(conn))
	if err != nil {
		return nil, nil, err
	}
	sqlDB := sql.OpenDB(connector)
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func postgresDSN(conn *ConnectionParams) string {
	host := conn.Host
	if host == "" {
		host = defaultHost
	}
	port := conn.Port
	if port <= 0 {
		port = defaultPostgresPort
	}

	params := url.Values{}
	for k, v := range conn.Options {
		params.Set(k, v)
	}
	params.Set("sslmode", postgresSSLMode(conn.SSL))
	if conn.ConnectTimeout > 0 {
		params.Set("connect_timeout", strconv.Itoa(int(conn.ConnectTimeout.Seconds())))
	}
	if conn.Timezone != "" {
		params.Set("timezone", conn.Timezone)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + conn.Database,
		RawQuery: params.Encode(),
	}
	if conn.User != "" {
		if conn.Password != "" {
			u.User = url.UserPassword(conn.User, conn.Password)
		} else {
			u.User = url.User(conn.User)
		}
	}
	return u.String()
}

func postgresSSLMode(ssl string) string {
	switch strings.ToLower(strings.TrimSpace(ssl)) {
	case "", "false":
		return "disable"
	case "true":
		return "require"
	default:
		return ssl
	}
}

func configurePool(sqlDB *sql.DB, cfg *DatabaseConfig) {
	pool := cfg.Pool
	maxOpen := pool.Max
	if maxOpen <= 0 && FamilyOf(cfg.Client) == FamilyEmbeddedFile {
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if pool.Min > 0 {
		sqlDB.SetMaxIdleConns(pool.Min)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}
}

func encodeOptions(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(options[k]))
	}
	return strings.Join(parts, "&")
}
