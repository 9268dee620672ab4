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

import "strings"

// DefaultSampleSize bounds the number of non-empty values inspected per column.
const DefaultSampleSize = 1000

// Sample is the bounded view of a single column used for classification.
type Sample struct {
	// Values holds trimmed non-empty cells in scan order.
	Values []string
	// NullCount is exact over the whole column, never sampled.
	NullCount int
	// TotalRows is the number of rows in the matrix.
	TotalRows int
	// Stride is the row step used while sampling.
	Stride int
}

// SampleColumn collects at most maxSample non-empty values of column col.
// Empty, whitespace-only and missing cells count as null.
func SampleColumn(rows [][]string, col int, maxSample int) Sample {
	if maxSample <= 0 {
		maxSample = DefaultSampleSize
	}
	total := len(rows)
	s := Sample{TotalRows: total, Stride: 1}
	if total == 0 {
		return s
	}

	sampled := total > maxSample
	if sampled {
		s.Stride = total / maxSample
	}
	s.Values = make([]string, 0, min(total, maxSample))

	for i := 0; i < total && len(s.Values) < maxSample; i += s.Stride {
		val, ok := cell(rows[i], col)
		if !ok {
			if !sampled {
				s.NullCount++
			}
			continue
		}
		s.Values = append(s.Values, val)
	}

	// The strided pass skips rows, so nulls come from a separate full scan.
	if sampled {
		for _, row := range rows {
			if _, ok := cell(row, col); !ok {
				s.NullCount++
			}
		}
	}
	return s
}

// cell returns the trimmed value at col and whether it is non-empty.
func cell(row []string, col int) (string, bool) {
	if col < 0 || col >= len(row) {
		return "", false
	}
	val := strings.TrimSpace(row[col])
	return val, val != ""
}
