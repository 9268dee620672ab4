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
package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
)

func TestMySQLQuoteIdentifier(t *testing.T) {
	handler := mysqlHandler{}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "orders", "`orders`"},
		{"Name with spaces", "order items", "`order items`"},
		{"Name with backtick", "odd`name", "`odd``name`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMySQLPlaceholderAndColumnType(t *testing.T) {
	handler := mysqlHandler{}
	if got := handler.Placeholder(7); got != "?" {
		t.Errorf("Placeholder(7) = %s, want ?", got)
	}
	if got := handler.ColumnType("VARCHAR"); got != "TEXT" {
		t.Errorf("ColumnType(VARCHAR) = %s, want TEXT", got)
	}
	if got := handler.ColumnType("DOUBLE"); got != "DOUBLE" {
		t.Errorf("ColumnType(DOUBLE) = %s, want DOUBLE", got)
	}
}

func TestMySQLListTables(t *testing.T) {
	query := regexp.QuoteMeta("SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME")

	tests := []struct {
		name          string
		mockSetup     func(sqlmock.Sqlmock)
		expected      []string
		expectedError bool
	}{
		{
			name: "Success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("orders").AddRow("people"))
			},
			expected: []string{"orders", "people"},
		},
		{
			name: "Database query error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WillReturnError(errors.New("database connection failed"))
			},
			expectedError: true,
		},
		{
			name: "Row scanning error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow(nil))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("Failed to create mock database: %v", err)
			}
			defer mockDB.Close()

			tt.mockSetup(mock)

			db := &database.DB{Pool: mockDB, Config: config.DatabaseConfig{Dialect: "mysql"}}
			result, err := mysqlHandler{}.ListTables(context.Background(), db)

			if (err != nil) != tt.expectedError {
				t.Fatalf("ListTables() error = %v, expectedError %v", err, tt.expectedError)
			}
			if !tt.expectedError && len(result) != len(tt.expected) {
				t.Errorf("Expected %d tables, got %d", len(tt.expected), len(result))
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unfulfilled mock expectations: %v", err)
			}
		})
	}
}

func TestMySQLCloudSQLPoolRequiresParameters(t *testing.T) {
	_, err := mysqlHandler{}.CreateCloudSQLPool(config.DatabaseConfig{Dialect: "cloudsqlmysql", User: "u"})
	if err == nil {
		t.Fatalf("CreateCloudSQLPool() expected error for missing parameters")
	}
}
