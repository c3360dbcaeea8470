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
	"github.com/tomoncle/conduit/types"
)

func TestFamilyOf(t *testing.T) {
	cases := map[string]ClientFamily{
		"sqlite3":        FamilyEmbeddedFile,
		" SQLite ":       FamilyEmbeddedFile,
		"better-sqlite3": FamilyEmbeddedFile,
		"mysql":          FamilyNetworkedServer,
		"mysql2":         FamilyNetworkedServer,
		"MariaDB":        FamilyNetworkedServer,
		"pg":             FamilyOther,
		"oracledb":       FamilyOther,
		"":               FamilyOther,
	}
	for client, want := range cases {
		assert.Equal(t, want, FamilyOf(client), "client %q", client)
	}
}

func TestClientFamily_Enum(t *testing.T) {
	assert.Equal(t, "embedded-file", FamilyEmbeddedFile.String())
	assert.Equal(t, "networked-server", FamilyNetworkedServer.Name())
	assert.Equal(t, 0, FamilyOther.Number())

	bogus := ClientFamily(42)
	assert.False(t, bogus.IsValid())
	assert.Equal(t, types.IllegalValue, bogus.Number())
	assert.Equal(t, types.IllegalName, bogus.Name())
	assert.Equal(t, types.IllegalDesc, bogus.Desc())
}
