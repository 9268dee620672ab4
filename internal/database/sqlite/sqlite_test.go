/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", buildDSN(""))
	assert.Equal(t, ":memory:", buildDSN(":memory:"))
	assert.Equal(t, "x.db?mode=ro", buildDSN("x.db?mode=ro"))
	assert.Equal(t, "x.db?_busy_timeout=5000&_journal_mode=WAL", buildDSN("x.db"))
}

func TestSQLiteHandlerBasics(t *testing.T) {
	h := sqliteHandler{}
	assert.Equal(t, `"a""b"`, h.QuoteIdentifier(`a"b`))
	assert.Equal(t, "?", h.Placeholder(3))
	assert.Equal(t, "REAL", h.ColumnType("DOUBLE"))
	assert.Equal(t, "TEXT", h.ColumnType("VARCHAR"))
	assert.Equal(t, "TEXT", h.ColumnType("BLOB"))

	_, err := h.CreateCloudSQLPool(config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestSQLiteListTablesAndDrop(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "tables.db")
	db, err := database.New(ctx, config.DatabaseConfig{Dialect: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ExecuteSQLStatements(ctx, []string{
		`CREATE TABLE "people" ("name" TEXT, "age" INTEGER)`,
		`INSERT INTO "people" ("name", "age") VALUES ('Alice', 30)`,
		`CREATE TABLE "orders" ("id" INTEGER)`,
	}))

	tables, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "people"}, tables)

	count, err := db.CountRows(ctx, "people")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, db.DropTable(ctx, "people"))
	require.NoError(t, db.DropTable(ctx, "people"))

	tables, err = db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables)
}

func TestSQLiteInMemoryPersistsAcrossStatements(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{Dialect: "sqlite"}, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Pool.ExecContext(ctx, `CREATE TABLE "t" ("v" TEXT)`)
	require.NoError(t, err)
	tables, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)
}
