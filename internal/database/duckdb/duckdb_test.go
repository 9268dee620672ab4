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
package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

func TestDuckDBHandlerBasics(t *testing.T) {
	h := duckdbHandler{}
	assert.Equal(t, `"first name"`, h.QuoteIdentifier("first name"))
	assert.Equal(t, "?", h.Placeholder(1))
	for _, st := range []string{"INTEGER", "DOUBLE", "BOOLEAN", "DATE", "VARCHAR"} {
		assert.Equal(t, st, h.ColumnType(st))
	}
	assert.Equal(t, "VARCHAR", h.ColumnType("JSON"))

	_, err := h.CreateCloudSQLPool(config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestDuckDBInMemoryTables(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{Dialect: "duckdb"}, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ExecuteSQLStatements(ctx, []string{
		`CREATE TABLE "people" ("name" VARCHAR, "age" INTEGER, "score" DOUBLE)`,
		`INSERT INTO "people" VALUES ('Alice', 30, 88.5), ('Bob', 25, 92.0)`,
	}))

	tables, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"people"}, tables)

	count, err := db.CountRows(ctx, "people")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, db.DropTable(ctx, "people"))
	tables, err = db.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}
