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
package inference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var peopleRows = [][]string{
	{"Alice", "30", "yes"},
	{"Bob", "25", "no"},
	{"Carol", "", "yes"},
}

func TestBuildColumnPeople(t *testing.T) {
	b := NewBuilder()

	t.Run("name is categorical text", func(t *testing.T) {
		m := b.BuildColumn("name", peopleRows, 0)
		assert.Equal(t, TypeText, m.DataType)
		assert.Equal(t, "VARCHAR", m.StorageType)
		assert.True(t, m.IsCategory)
		assert.Equal(t, 3, m.UniqueCount)
		assert.Equal(t, 0, m.NullCount)
		assert.False(t, m.Nullable)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, m.EnumValues)
		assert.Equal(t, "Categorical data with 3 categories", m.Description)
		assert.Equal(t, []string{
			"How many records have name equal to 'Alice'?",
			"Show distribution of name",
		}, m.ExampleQueries)
	})

	t.Run("age is integer", func(t *testing.T) {
		m := b.BuildColumn("age", peopleRows, 1)
		assert.Equal(t, TypeInteger, m.DataType)
		assert.Equal(t, "INTEGER", m.StorageType)
		require.True(t, m.HasNumericStats())
		assert.Equal(t, 25.0, *m.Min)
		assert.Equal(t, 30.0, *m.Max)
		assert.Equal(t, 27.5, *m.Mean)
		assert.Equal(t, 1, m.NullCount)
		assert.True(t, m.Nullable)
		assert.Equal(t, "Whole numbers", m.Description)
		assert.Equal(t, []string{
			"What is the average age?",
			"Show records where age is greater than 27.5",
		}, m.ExampleQueries)
	})

	t.Run("active is boolean", func(t *testing.T) {
		m := b.BuildColumn("active", peopleRows, 2)
		assert.Equal(t, TypeBoolean, m.DataType)
		assert.True(t, m.IsBoolean)
		assert.False(t, m.IsCategory)
		assert.Equal(t, map[string]string{"yes": "TRUE", "no": "FALSE"}, m.ValueMappings)
		assert.Equal(t, map[string]string{
			"true":  "active = TRUE",
			"false": "active = FALSE",
			"yes":   "active = TRUE",
			"no":    "active = FALSE",
		}, m.SynonymMappings)
		assert.Nil(t, m.Min)
	})
}

func TestBuildColumnEmptyCellExcludedFromStats(t *testing.T) {
	rows := append([][]string{}, peopleRows...)
	rows = append(rows, []string{"Dan", "", "no"})
	rows[2] = []string{"Carol", "35", "yes"}

	m := NewBuilder().BuildColumn("age", rows, 1)

	assert.Equal(t, 1, m.NullCount)
	require.True(t, m.HasNumericStats())
	assert.Equal(t, 25.0, *m.Min)
	assert.Equal(t, 35.0, *m.Max)
	assert.Equal(t, 30.0, *m.Mean)
}

func TestBuildColumnEmpty(t *testing.T) {
	m := NewBuilder().BuildColumn("notes", [][]string{{""}, {" "}}, 0)

	assert.Equal(t, TypeText, m.DataType)
	assert.Equal(t, "VARCHAR", m.StorageType)
	assert.Equal(t, 2, m.NullCount)
	assert.Zero(t, m.UniqueCount)
	assert.Nil(t, m.Min)
	assert.Empty(t, m.ExampleQueries)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"min"`)
	assert.Contains(t, string(raw), `"sample_values":[]`)
}

func TestBuildColumnShortCodes(t *testing.T) {
	rows := [][]string{{"M"}, {"F"}, {"f"}, {"M"}, {"X"}, {"LONG"}}

	t.Run("default annotations", func(t *testing.T) {
		m := NewBuilder().BuildColumn("gender", rows, 0)
		require.True(t, m.IsCategory)
		assert.Equal(t, map[string]string{
			"M": "M (possibly male, medium, or other)",
			"F": "F (possibly female, false, or other)",
			"f": "F (possibly female, false, or other)",
		}, m.ValueMappings)
	})

	t.Run("custom annotations", func(t *testing.T) {
		b := NewBuilder()
		b.Annotations = b.Annotations.Merge(map[string]string{"x": "X (unknown)"})
		m := b.BuildColumn("gender", rows, 0)
		assert.Equal(t, "X (unknown)", m.ValueMappings["X"])
		assert.NotContains(t, m.ValueMappings, "LONG")
	})
}

func TestBuildColumnDateAndFloat(t *testing.T) {
	rows := [][]string{
		{"2024-01-01", "1.5"},
		{"2024-01-02", "2.5"},
	}
	b := NewBuilder()

	date := b.BuildColumn("day", rows, 0)
	assert.Equal(t, TypeDate, date.DataType)
	assert.True(t, date.IsDate)
	assert.Equal(t, "Date values", date.Description)
	assert.Equal(t, []string{"Show records from the latest day", "Group by day and count"}, date.ExampleQueries)

	price := b.BuildColumn("price", rows, 1)
	assert.Equal(t, TypeFloat, price.DataType)
	assert.Equal(t, "DOUBLE", price.StorageType)
	assert.Equal(t, "Decimal numbers", price.Description)
}

func TestBuildColumnFreeTextSemanticType(t *testing.T) {
	rows := make([][]string, 30)
	for i := range rows {
		rows[i] = []string{"user" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@example.com"}
	}

	m := NewBuilder().BuildColumn("email", rows, 0)

	assert.False(t, m.IsCategory)
	assert.Equal(t, "Text data", m.Description)
	assert.Equal(t, "EMAIL", m.SemanticType)
	assert.Empty(t, m.ExampleQueries)
}

func TestDetectSemanticType(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"ana@example.com", "EMAIL"},
		{"+1 (555) 123-4567", "PHONE"},
		{"https://example.com/a", "URL"},
		{`{"a": 1}`, "JSON"},
		{"2024-01-05T10:00:00", "DATE"},
		{"$125", "CURRENCY"},
		{"40.7128, -74.0060", "GEOLOCATION"},
		{"hello world", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			values := []string{tt.value, tt.value, tt.value, tt.value, tt.value}
			assert.Equal(t, tt.want, DetectSemanticType(values))
		})
	}
	assert.Empty(t, DetectSemanticType(nil))
	assert.Empty(t, DetectSemanticType([]string{"a@b.com", "x", "y"}))
}
