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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func repeatDistinct(prefix string, distinct, total int) []string {
	values := make([]string, total)
	for i := range values {
		values[i] = fmt.Sprintf("%s%02d", prefix, i%distinct)
	}
	return values
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		values       []string
		wantType     DataType
		wantCategory bool
	}{
		{"no values", nil, TypeText, false},
		{"boolean before integer", []string{"TRUE", "FALSE", "1", "0"}, TypeBoolean, false},
		{"zero and one are boolean", []string{"1", "0", "1", "1"}, TypeBoolean, false},
		{"yes no tokens", []string{"yes", "No", "Y", "n", "on", "OFF"}, TypeBoolean, false},
		{"integers", []string{"10", "-3", "+42", "7"}, TypeInteger, false},
		{"floats include integers", []string{"1.5", "2", "3.25", "-0.5"}, TypeFloat, false},
		{"exponent is float", []string{"1e3", "2.5E-2", "4"}, TypeFloat, false},
		{"nan is not numeric", []string{"NaN", "1.5", "2.5"}, TypeText, true},
		{"iso dates", []string{"2024-01-05", "2023-12-31"}, TypeDate, false},
		{"mixed date layouts", []string{"01/02/2024", "12-31-2023", "5-Jan-2024", "2024-03-01 10:20:30", "02/03/24"}, TypeDate, false},
		{"invalid calendar date", []string{"2024-13-45", "2024-01-01"}, TypeText, true},
		{"single value is categorical", []string{"same"}, TypeText, true},
		{"stray text falls through numeric", []string{"1", "2", "three"}, TypeText, true},
		{"twenty distinct is categorical", repeatDistinct("v", 20, 1000), TypeText, true},
		{"twenty one distinct with high ratio is text", repeatDistinct("w", 21, 100), TypeText, false},
		{"ratio branch up to fifty", repeatDistinct("r", 40, 1000), TypeText, true},
		{"fifty one distinct is text", repeatDistinct("s", 51, 1000), TypeText, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.values, DefaultThresholds)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCategory, got.IsCategory)
		})
	}
}

func TestClassifyBooleanUniqueLimit(t *testing.T) {
	values := []string{"true", "True", "TRUE", "tRue", "false", "False", "FALSE", "yes", "Yes", "YES", "no"}
	got := Classify(values, DefaultThresholds)

	assert.True(t, got.Flags.AllBooleans)
	assert.Equal(t, 11, got.UniqueCount)
	assert.NotEqual(t, TypeBoolean, got.Type)
	assert.True(t, got.IsCategory)
}

func TestClassifyCollectsNumericOnce(t *testing.T) {
	got := Classify([]string{"1", "2.5", "x", "4"}, DefaultThresholds)
	assert.Equal(t, []float64{1, 2.5, 4}, got.Numeric)
	assert.False(t, got.Flags.AllFloats)
	assert.False(t, got.Flags.AllIntegers)
}

func TestClassifyCustomThresholds(t *testing.T) {
	th := Thresholds{CategoryMaxUnique: 2, CategoryRatio: 0.01, CategoryRatioMaxUnique: 1}
	got := Classify([]string{"a", "b", "c"}, th)
	assert.Equal(t, TypeText, got.Type)
	assert.False(t, got.IsCategory)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2024-02-29", true, "2024-02-29"},
		{"2023-02-29", false, ""},
		{"5-Jan-2024", true, "2024-01-05"},
		{"15-Mar-2024", true, "2024-03-15"},
		{"03/04/99", true, "1999-03-04"},
		{"2024/01/01", false, ""},
		{"yesterday", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}
