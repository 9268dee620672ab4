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
// Package schema plans destination tables from inferred column metadata
// and renders their DDL for a SQL dialect.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
)

// storageTypeRe matches a bare type name, optionally with precision or a MAX length.
var storageTypeRe = regexp.MustCompile(`(?i)^[A-Z][A-Z0-9_ ]*(?:\(\s*(?:\d+|MAX)\s*(?:,\s*\d+\s*)?\))?$`)

const maxStorageTypeLen = 64

// ColumnDef is one planned destination column.
type ColumnDef struct {
	Name        string
	StorageType string
	DataType    inference.DataType
}

// TableSchema is the ordered column plan for one table.
type TableSchema struct {
	Columns []ColumnDef
}

// Dialect renders identifiers and column types for a destination store.
type Dialect interface {
	QuoteIdentifier(name string) string
	ColumnType(storageType string) string
}

// Plan maps every column to its storage type, keeping header order.
func Plan(columns []inference.ColumnMetadata) (TableSchema, error) {
	if len(columns) == 0 {
		return TableSchema{}, fmt.Errorf("at least one column is required")
	}
	s := TableSchema{Columns: make([]ColumnDef, len(columns))}
	for i, c := range columns {
		dataType := c.DataType
		if dataType == "" {
			dataType = inference.TypeText
		}
		s.Columns[i] = ColumnDef{
			Name:        c.Name,
			StorageType: dataType.StorageType(),
			DataType:    dataType,
		}
	}
	return s, nil
}

// Names returns the column names in order.
func (s TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ValidateStorageType rejects type strings that are not a plain type name.
func ValidateStorageType(typeName string) error {
	if typeName == "" {
		return fmt.Errorf("column type is required")
	}
	if len(typeName) > maxStorageTypeLen {
		return fmt.Errorf("column type must be at most %d characters", maxStorageTypeLen)
	}
	if strings.ContainsAny(typeName, ";-'\"\\") {
		return fmt.Errorf("column type contains invalid characters")
	}
	if !storageTypeRe.MatchString(typeName) {
		return fmt.Errorf("column type %q is not a recognized type pattern", typeName)
	}
	return nil
}

// CreateTableSQL renders CREATE TABLE for the plan in the given dialect.
func (s TableSchema) CreateTableSQL(d Dialect, table string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("table name is required")
	}
	if len(s.Columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		colType := d.ColumnType(c.StorageType)
		if err := ValidateStorageType(colType); err != nil {
			return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
		}
		defs[i] = fmt.Sprintf("%s %s", d.QuoteIdentifier(c.Name), colType)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", ")), nil
}

// DropTableSQL renders DROP TABLE IF EXISTS for the table.
func DropTableSQL(d Dialect, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

// InsertSQL renders a single-row parameterized INSERT with explicit column names.
func (s TableSchema) InsertSQL(d Dialect, table string, placeholder func(n int) string) string {
	cols := make([]string, len(s.Columns))
	params := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = d.QuoteIdentifier(c.Name)
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}
