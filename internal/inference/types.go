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

// DataType is the semantic type inferred for a column.
type DataType string

const (
	TypeInteger DataType = "INTEGER"
	TypeFloat   DataType = "FLOAT"
	TypeBoolean DataType = "BOOLEAN"
	TypeDate    DataType = "DATE"
	TypeText    DataType = "TEXT"
)

// IsNumeric reports whether the type holds INTEGER or FLOAT values.
func (t DataType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// StorageType returns the destination column type for the semantic type.
func (t DataType) StorageType() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	default:
		return "VARCHAR"
	}
}

// ValueCount is one entry of a column's frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnMetadata describes one source column for NL2SQL grounding.
type ColumnMetadata struct {
	Name            string            `json:"name"`
	DataType        DataType          `json:"data_type"`
	StorageType     string            `json:"sql_type"`
	Nullable        bool              `json:"nullable"`
	IsCategory      bool              `json:"is_category"`
	IsBoolean       bool              `json:"is_boolean"`
	IsDate          bool              `json:"is_date"`
	UniqueCount     int               `json:"unique_count"`
	NullCount       int               `json:"null_count"`
	SampleValues    []string          `json:"sample_values"`
	TopValues       []ValueCount      `json:"top_values"`
	EnumValues      []string          `json:"enum_values"`
	Min             *float64          `json:"min,omitempty"`
	Max             *float64          `json:"max,omitempty"`
	Mean            *float64          `json:"mean,omitempty"`
	Median          *float64          `json:"median,omitempty"`
	Std             *float64          `json:"std,omitempty"`
	Description     string            `json:"description"`
	ValueMappings   map[string]string `json:"value_mappings,omitempty"`
	SynonymMappings map[string]string `json:"synonym_mappings,omitempty"`
	ExampleQueries  []string          `json:"example_queries,omitempty"`
	SemanticType    string            `json:"semantic_type,omitempty"`
}

// HasNumericStats reports whether min and max were observed.
func (c ColumnMetadata) HasNumericStats() bool {
	return c.Min != nil && c.Max != nil
}

// Midpoint returns (min+max)/2. Callers must check HasNumericStats first.
func (c ColumnMetadata) Midpoint() float64 {
	return (*c.Min + *c.Max) / 2
}
