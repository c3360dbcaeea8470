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

package types

import "fmt"

// Error codes attached to InternalServerError values.
const (
	CodeMySQLLoggingHook = "MYSQL_LOGGING_HOOK"
	CodeDatabaseInit     = "DATABASE_INIT"
)

const defaultInternalMessage = "The server has encountered an error."

// InternalServerError is a categorized error for faults the caller cannot fix.
type InternalServerError struct {
	Code    string
	Message string
	Err     error
}

// NewInternalServerError wraps err under the given code.
func NewInternalServerError(code string, err error) *InternalServerError {
	return &InternalServerError{
		Code:    code,
		Message: defaultInternalMessage,
		Err:     err,
	}
}

func (e *InternalServerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *InternalServerError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status that corresponds to this error category.
func (e *InternalServerError) StatusCode() int {
	return 500
}
