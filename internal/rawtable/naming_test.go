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
package rawtable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNameFromFilename(t *testing.T) {
	assert.Equal(t, "sales_2024", TableNameFromFilename("sales_2024.csv"))
	assert.Equal(t, "people", TableNameFromFilename("/tmp/uploads/people.xlsx"))
	assert.Equal(t, "archive.tar", TableNameFromFilename("archive.tar.csv"))
	assert.Equal(t, "noext", TableNameFromFilename("noext"))
}

func TestSanitizeTableName(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"", "People", "people"},
		{"", "Sales Report (Q1)", "sales_report__q1_"},
		{"", "2024-orders", "t_2024_orders"},
		{"chat42", "orders", "chat42_orders"},
		{"", "", "t"},
		{"", "café", "caf_"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTableName(tt.prefix, tt.name))
		})
	}

	long := SanitizeTableName("", strings.Repeat("a", 100))
	assert.Len(t, long, MaxTableNameLength)
}

func TestValidateHeaders(t *testing.T) {
	assert.NoError(t, ValidateHeaders([]string{"name", "age", "active"}))
	assert.Error(t, ValidateHeaders(nil))
	assert.ErrorContains(t, ValidateHeaders([]string{"name", " "}), "column 2 has an empty name")
	assert.ErrorContains(t, ValidateHeaders([]string{"id", "name", "Name"}), "duplicates column 2")
}
