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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig_Redacted(t *testing.T) {
	cfg := Configure(&DatabaseConfig{
		Client: "mysql2",
		Connection: ConnectionParams{
			Host:     "db",
			Password: "secret",
			Options:  map[string]string{"interpolateParams": "true"},
		},
		UseNullAsDefault: boolPtr(true),
	})

	out := cfg.Redacted()
	require.NotSame(t, cfg, out)

	assert.Equal(t, "******", out.Connection.Password)
	assert.Nil(t, out.Connection.LoggingHook)
	assert.Nil(t, out.Connection.AuthSwitchHandler)
	assert.Equal(t, "UTC", out.Connection.Timezone)

	out.Connection.Options["interpolateParams"] = "false"
	*out.UseNullAsDefault = false
	assert.Equal(t, "secret", cfg.Connection.Password)
	assert.Equal(t, "true", cfg.Connection.Options["interpolateParams"])
	assert.True(t, *cfg.UseNullAsDefault)
	assert.NotNil(t, cfg.Connection.AuthSwitchHandler)

	var empty *DatabaseConfig
	assert.Nil(t, empty.Redacted())
}
