/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-vci/core"
	"gorm.io/gorm"
)

// NewTestInMemoryDatabase creates a migrated, in-memory SQLite database which is closed when the test finishes.
func NewTestInMemoryDatabase(t testing.TB) *gorm.DB {
	db, err := openSQLDatabase(context.Background(), SQLiteInMemoryConnectionString(uuid.NewString()), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		underlyingDB, _ := db.DB()
		_ = underlyingDB.Close()
	})
	return db
}

// NewTestStorageEngine creates a configured storage engine with an in-memory SQLite database, which is shut down when the test finishes.
func NewTestStorageEngine(t testing.TB) Engine {
	result := New().(*engine)
	result.config.SQL.ConnectionString = SQLiteInMemoryConnectionString(uuid.NewString())
	if err := result.Configure(core.TestServerConfig(core.ServerConfig{Datadir: t.TempDir()})); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = result.Shutdown()
	})
	return result
}
