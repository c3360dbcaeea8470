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
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	AccessDeniedErr
	ConnectionErr
	UnknownDatabaseErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "index_exists",
	ExistColumnErr:              "column_exists",
	NoTableErr:                  "no_table",
	ExistTableErr:               "table_exists",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
	AccessDeniedErr:             "access_denied",
	ConnectionErr:               "connection",
	UnknownDatabaseErr:          "unknown_database",
}

func (e SQLError) String() string {
	if name, ok := sqlErrorNames[e]; ok {
		return name
	}
	return "unknown"
}

// mysqlErrorKinds maps MySQL server error numbers.
var mysqlErrorKinds = map[uint16]SQLError{
	1044: AccessDeniedErr,
	1045: AccessDeniedErr,
	1048: NotNullViolationErr,
	1049: UnknownDatabaseErr,
	1054: NoColumnErr,
	1060: ExistColumnErr,
	1061: ExistIndexErr,
	1062: DuplicateKeyErr,
	1091: NoIndexErr,
	1146: NoTableErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1265: DataTruncatedErr,
	3819: CheckConstraintViolationErr,
}

// messageRule matches when every fragment in all appears in the lowercased
// message. Rules are tried in order.
type messageRule struct {
	kind SQLError
	all  []string
}

// messageRules cover Postgres (by SQLSTATE or text) and SQLite (by text).
var messageRules = []messageRule{
	{NoColumnErr, []string{"sqlstate 42703"}},
	{NoColumnErr, []string{"undefined column"}},
	{NoColumnErr, []string{"no such column"}},
	{NoIndexErr, []string{"sqlstate 42704"}},
	{NoIndexErr, []string{"no such index"}},
	{NoIndexErr, []string{"does not exist", "index"}},
	{UnknownDatabaseErr, []string{"sqlstate 3d000"}},
	{UnknownDatabaseErr, []string{"database", "does not exist"}},
	{NoTableErr, []string{"sqlstate 42p01"}},
	{NoTableErr, []string{"undefined table"}},
	{NoTableErr, []string{"no such table"}},
	{ExistIndexErr, []string{"already exists", "index"}},
	{ExistTableErr, []string{"already exists", "table"}},
	{ExistTableErr, []string{"already exists", "relation"}},
	{DuplicateKeyErr, []string{"duplicate key value"}},
	{DuplicateKeyErr, []string{"unique constraint failed"}},
	{DuplicateKeyErr, []string{"sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint"}},
	{NotNullViolationErr, []string{"not null constraint failed"}},
	{NotNullViolationErr, []string{"sqlstate 23502"}},
	{ForeignKeyViolationErr, []string{"foreign key violation"}},
	{ForeignKeyViolationErr, []string{"foreign key constraint failed"}},
	{ForeignKeyViolationErr, []string{"sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint"}},
	{CheckConstraintViolationErr, []string{"sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation"}},
	{DataTruncatedErr, []string{"data truncated"}},
	{DataTruncatedErr, []string{"sqlstate 22001"}},
	{AccessDeniedErr, []string{"password authentication failed"}},
	{AccessDeniedErr, []string{"sqlstate 28p01"}},
	{AccessDeniedErr, []string{"access denied"}},
	{InvalidTypeCastErr, []string{"datatype mismatch"}},
	{InvalidTypeCastErr, []string{"sqlstate 42804"}},
	{ConnectionErr, []string{"connection refused"}},
	{ConnectionErr, []string{"broken pipe"}},
}

func (r messageRule) matches(msg string) bool {
	for _, fragment := range r.all {
		if !strings.Contains(msg, fragment) {
			return false
		}
	}
	return true
}

// IsSqlError classifies a driver error. MySQL errors are matched by number;
// Postgres and SQLite errors by message text. A MySQL error with an
// unlisted number is still reported as a SQL error of kind UnknownErr.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return true, ConnectionErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrorKinds[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if rule.matches(msg) {
			return true, rule.kind
		}
	}
	return false, UnknownErr
}
