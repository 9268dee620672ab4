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

import "fmt"

// Builder turns one column of a raw matrix into ColumnMetadata.
// A Builder holds no mutable state and is safe for concurrent use.
type Builder struct {
	SampleSize  int
	Thresholds  Thresholds
	Annotations Annotations
}

// NewBuilder returns a Builder with the default sample size, thresholds and annotations.
func NewBuilder() *Builder {
	return &Builder{
		SampleSize:  DefaultSampleSize,
		Thresholds:  DefaultThresholds,
		Annotations: DefaultAnnotations(),
	}
}

// BuildColumn infers the metadata of column col named name.
func (b *Builder) BuildColumn(name string, rows [][]string, col int) ColumnMetadata {
	m := ColumnMetadata{
		Name:         name,
		DataType:     TypeText,
		StorageType:  TypeText.StorageType(),
		SampleValues: []string{},
		TopValues:    []ValueCount{},
	}

	sample := SampleColumn(rows, col, b.SampleSize)
	m.NullCount = sample.NullCount
	m.Nullable = sample.NullCount > 0
	if len(sample.Values) == 0 {
		return m
	}

	cls := Classify(sample.Values, b.Thresholds)
	st := Aggregate(sample.Values, cls.Numeric)

	m.UniqueCount = st.UniqueCount()
	m.SampleValues = st.SampleValues
	m.TopValues = st.TopValues
	if ns := st.Numeric; ns != nil {
		m.Min, m.Max, m.Mean, m.Median, m.Std = &ns.Min, &ns.Max, &ns.Mean, &ns.Median, &ns.Std
	}

	m.DataType = cls.Type
	m.StorageType = cls.Type.StorageType()
	m.IsCategory = cls.IsCategory

	switch {
	case cls.Type == TypeBoolean:
		m.IsBoolean = true
		m.Description = "Boolean values"
		m.ValueMappings = booleanMappings(sample.Values)
		m.SynonymMappings = map[string]string{
			"true":  fmt.Sprintf("%s = TRUE", name),
			"false": fmt.Sprintf("%s = FALSE", name),
			"yes":   fmt.Sprintf("%s = TRUE", name),
			"no":    fmt.Sprintf("%s = FALSE", name),
		}
	case cls.Type == TypeInteger:
		m.Description = "Whole numbers"
	case cls.Type == TypeFloat:
		m.Description = "Decimal numbers"
	case cls.Type == TypeDate:
		m.IsDate = true
		m.Description = "Date values"
	case cls.IsCategory:
		m.Description = fmt.Sprintf("Categorical data with %d categories", m.UniqueCount)
		m.EnumValues = make([]string, len(st.Frequencies))
		for i, vc := range st.Frequencies {
			m.EnumValues[i] = vc.Value
		}
		m.ValueMappings = b.codeMappings(m.EnumValues)
		m.SemanticType = DetectSemanticType(sample.Values)
	default:
		m.Description = "Text data"
		m.SemanticType = DetectSemanticType(sample.Values)
	}

	m.ExampleQueries = columnExamples(m)
	return m
}

// booleanMappings maps each observed token, as written, to TRUE or FALSE.
func booleanMappings(values []string) map[string]string {
	mappings := make(map[string]string)
	for _, v := range values {
		if _, seen := mappings[v]; seen {
			continue
		}
		if b, ok := ParseBoolean(v); ok {
			if b {
				mappings[v] = "TRUE"
			} else {
				mappings[v] = "FALSE"
			}
		}
	}
	return mappings
}

func (b *Builder) codeMappings(enum []string) map[string]string {
	annotations := b.Annotations
	if annotations == nil {
		annotations = DefaultAnnotations()
	}
	var mappings map[string]string
	for _, v := range enum {
		note, ok := annotations.Lookup(v)
		if !ok {
			continue
		}
		if mappings == nil {
			mappings = make(map[string]string)
		}
		mappings[v] = note
	}
	return mappings
}
