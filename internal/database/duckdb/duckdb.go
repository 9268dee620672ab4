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
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

// duckdbHandler implements database.DialectHandler for an embedded DuckDB file
// or in-memory database.
type duckdbHandler struct{}

var _ database.DialectHandler = (*duckdbHandler)(nil)

var columnTypes = map[string]string{
	"INTEGER": "INTEGER",
	"DOUBLE":  "DOUBLE",
	"BOOLEAN": "BOOLEAN",
	"DATE":    "DATE",
	"VARCHAR": "VARCHAR",
}

func (h duckdbHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	return nil, fmt.Errorf("duckdb is an embedded database and has no Cloud SQL variant")
}

// CreateStandardPool opens cfg.DSN. An empty DSN is an in-memory database
// shared by every connection of the pool.
func (h duckdbHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	dbPool, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return dbPool, nil
}

func (h duckdbHandler) QuoteIdentifier(name string) string {
	return database.QuoteDoubleQuoted(name)
}

func (h duckdbHandler) Placeholder(n int) string {
	return database.QuestionPlaceholder(n)
}

func (h duckdbHandler) ColumnType(storageType string) string {
	if t, ok := columnTypes[strings.ToUpper(storageType)]; ok {
		return t
	}
	return "VARCHAR"
}

func (h duckdbHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	return database.QueryStrings(ctx, db, query)
}

func init() {
	database.RegisterDialectHandler("duckdb", duckdbHandler{})
}
