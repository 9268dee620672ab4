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
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

const memoryDSN = ":memory:"

// sqliteHandler implements database.DialectHandler for SQLite files.
type sqliteHandler struct{}

var _ database.DialectHandler = (*sqliteHandler)(nil)

// Declared types map onto SQLite affinities.
var columnTypes = map[string]string{
	"INTEGER": "INTEGER",
	"DOUBLE":  "REAL",
	"BOOLEAN": "BOOLEAN",
	"DATE":    "DATE",
	"VARCHAR": "TEXT",
}

func (h sqliteHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	return nil, fmt.Errorf("sqlite is an embedded database and has no Cloud SQL variant")
}

// CreateStandardPool opens a single-connection pool. An in-memory database
// lives only as long as its connection.
func (h sqliteHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	dbPool, err := sql.Open("sqlite3", buildDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	dbPool.SetMaxOpenConns(1)
	dbPool.SetMaxIdleConns(1)
	return dbPool, nil
}

// buildDSN appends a busy timeout to file databases unless the caller
// already passed query parameters.
func buildDSN(path string) string {
	if path == "" {
		return memoryDSN
	}
	if path == memoryDSN || strings.Contains(path, "?") {
		return path
	}
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	return path + "?" + params.Encode()
}

func (h sqliteHandler) QuoteIdentifier(name string) string {
	return database.QuoteDoubleQuoted(name)
}

func (h sqliteHandler) Placeholder(n int) string {
	return database.QuestionPlaceholder(n)
}

func (h sqliteHandler) ColumnType(storageType string) string {
	if t, ok := columnTypes[strings.ToUpper(storageType)]; ok {
		return t
	}
	return "TEXT"
}

func (h sqliteHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	return database.QueryStrings(ctx, db, query)
}

func init() {
	database.RegisterDialectHandler("sqlite", sqliteHandler{})
}
