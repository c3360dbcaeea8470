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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalServerError_WrapsCause(t *testing.T) {
	cause := errors.New("connection lost")
	err := NewInternalServerError(CodeMySQLLoggingHook, cause)

	assert.Equal(t, CodeMySQLLoggingHook, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "MYSQL_LOGGING_HOOK")
	assert.Contains(t, err.Error(), "connection lost")
	assert.Equal(t, 500, err.StatusCode())
}

func TestInternalServerError_NilCause(t *testing.T) {
	err := NewInternalServerError(CodeDatabaseInit, nil)

	assert.Nil(t, errors.Unwrap(err))
	assert.Equal(t, "[DATABASE_INIT] The server has encountered an error.", err.Error())
}
