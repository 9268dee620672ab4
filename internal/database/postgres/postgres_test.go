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
package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

// Helper to create a mock DB and handler for testing
func newMockPostgresDB(t *testing.T) (*database.DB, sqlmock.Sqlmock, *postgresHandler) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	handler := postgresHandler{}
	db := &database.DB{
		Pool:    mockDb,
		Handler: &handler,
		Config:  config.DatabaseConfig{Dialect: "postgres"},
	}
	return db, mock, &handler
}

func TestPostgresQuoteIdentifier(t *testing.T) {
	handler := postgresHandler{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "mytable", `"mytable"`},
		{"Name with spaces", "my table", `"my table"`},
		{"Name with quotes", `my"table`, `"my""table"`},
		{"Empty name", "", `""`},
		{"Keyword", "user", `"user"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostgresPlaceholderAndColumnType(t *testing.T) {
	handler := postgresHandler{}
	if got := handler.Placeholder(1); got != "$1" {
		t.Errorf("Placeholder(1) = %s, want $1", got)
	}
	if got := handler.Placeholder(12); got != "$12" {
		t.Errorf("Placeholder(12) = %s, want $12", got)
	}

	tests := map[string]string{
		"INTEGER": "INTEGER",
		"DOUBLE":  "DOUBLE PRECISION",
		"BOOLEAN": "BOOLEAN",
		"DATE":    "DATE",
		"VARCHAR": "TEXT",
		"varchar": "TEXT",
		"UNKNOWN": "TEXT",
	}
	for in, want := range tests {
		if got := handler.ColumnType(in); got != want {
			t.Errorf("ColumnType(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPostgresListTables(t *testing.T) {
	db, mock, handler := newMockPostgresDB(t)
	defer db.Close()
	ctx := context.Background()

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_type = 'BASE TABLE'
		ORDER BY table_name;`

	expectedQuery := regexp.QuoteMeta(query)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").
			AddRow("products")
		mock.ExpectQuery(expectedQuery).WillReturnRows(rows)

		tables, err := handler.ListTables(ctx, db)
		if err != nil {
			t.Fatalf("ListTables() unexpected error: %v", err)
		}

		if len(tables) != 2 || tables[0] != "users" || tables[1] != "products" {
			t.Errorf("ListTables() got %v, want [users products]", tables)
		}
	})

	t.Run("Query Error", func(t *testing.T) {
		dbError := errors.New("connection failed")
		mock.ExpectQuery(expectedQuery).WillReturnError(dbError)

		_, err := handler.ListTables(ctx, db)
		if err == nil {
			t.Fatalf("ListTables() expected error, got nil")
		}
		if !errors.Is(err, dbError) {
			t.Errorf("ListTables() got error %v, want error containing %v", err, dbError)
		}
	})

	t.Run("Scan Error", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").
			AddRow(nil)
		mock.ExpectQuery(expectedQuery).WillReturnRows(rows)

		_, err := handler.ListTables(ctx, db)
		if err == nil {
			t.Fatalf("ListTables() expected scan error, got nil")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresCloudSQLPoolRequiresInstance(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "")
	_, err := postgresHandler{}.CreateCloudSQLPool(config.DatabaseConfig{Dialect: "cloudsqlpostgres"})
	if err == nil {
		t.Fatalf("CreateCloudSQLPool() expected error without instance connection name")
	}
}

func TestPostgresRegistered(t *testing.T) {
	for _, dialect := range []string{"postgres", "cloudsqlpostgres"} {
		if _, err := database.GetDialectHandler(dialect); err != nil {
			t.Errorf("GetDialectHandler(%q) error: %v", dialect, err)
		}
	}
}
