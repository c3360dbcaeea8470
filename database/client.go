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
	"strings"

	"github.com/tomoncle/conduit/types"
)

// ClientFamily groups client names by the kind of engine behind them.
type ClientFamily int

const (
	FamilyOther ClientFamily = iota
	FamilyEmbeddedFile
	FamilyNetworkedServer
)

var _ types.BaseEnum = FamilyOther

// FamilyOf classifies a client name such as "sqlite3" or "mysql2".
func FamilyOf(client string) ClientFamily {
	switch normalizeClient(client) {
	case "sqlite3", "sqlite", "better-sqlite3":
		return FamilyEmbeddedFile
	case "mysql", "mysql2", "mariadb":
		return FamilyNetworkedServer
	default:
		return FamilyOther
	}
}

func normalizeClient(client string) string {
	return strings.ToLower(strings.TrimSpace(client))
}

var (
	familyNames = []string{"other", "embedded-file", "networked-server"}
	familyDescs = []string{
		"passed through unchanged",
		"sqlite-like, single file on local disk",
		"mysql-like, reached over the network",
	}
)

func (f ClientFamily) IsValid() bool {
	return f >= FamilyOther && f <= FamilyNetworkedServer
}

func (f ClientFamily) Number() int {
	if !f.IsValid() {
		return types.IllegalValue
	}
	return int(f)
}

func (f ClientFamily) Name() string { return types.EnumLabel(familyNames, int(f), types.IllegalName) }

func (f ClientFamily) String() string { return f.Name() }

func (f ClientFamily) Desc() string { return types.EnumLabel(familyDescs, int(f), types.IllegalDesc) }
