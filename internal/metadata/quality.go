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
package metadata

import (
	"math"
	"strings"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
)

// outlierZScore is the |z| above which a numeric value counts as an outlier.
const outlierZScore = 3.0

// QualityReport summarizes completeness, uniqueness and numeric spread of
// every row of a table, not just the inference sample.
type QualityReport struct {
	RowCount int             `json:"row_count"`
	Columns  []ColumnQuality `json:"column_stats"`
	// Correlations holds Pearson coefficients between numeric columns, keyed
	// by column name twice. Pairs without variance are omitted.
	Correlations map[string]map[string]float64 `json:"correlations,omitempty"`
}

// ColumnQuality is the quality summary of one column.
type ColumnQuality struct {
	Name         string  `json:"name"`
	MissingCount int     `json:"missing_count"`
	MissingPct   float64 `json:"missing_pct"`
	UniqueCount  int     `json:"unique_count"`
	UniquePct    float64 `json:"unique_pct"`
	// Outliers counts values with |z| > 3. Only set for numeric columns.
	Outliers *int `json:"outliers,omitempty"`
}

// columnQuality scans column col of rows. For numeric columns it also returns
// the row-aligned parsed values, NaN where a cell is missing or unparsable.
func columnQuality(rows [][]string, col int, meta inference.ColumnMetadata) (ColumnQuality, []float64) {
	q := ColumnQuality{Name: meta.Name}
	distinct := make(map[string]struct{})

	var values []float64
	numeric := meta.DataType.IsNumeric()
	if numeric {
		values = make([]float64, len(rows))
	}

	for i, row := range rows {
		val := ""
		if col < len(row) {
			val = strings.TrimSpace(row[col])
		}
		if val == "" {
			q.MissingCount++
		} else {
			distinct[val] = struct{}{}
		}
		if !numeric {
			continue
		}
		values[i] = math.NaN()
		if f, ok := inference.ParseNumber(val); ok {
			values[i] = f
		}
	}

	q.UniqueCount = len(distinct)
	q.MissingPct = percent(q.MissingCount, len(rows))
	q.UniquePct = percent(q.UniqueCount, len(rows))
	if numeric {
		n := countOutliers(values)
		q.Outliers = &n
	}
	return q, values
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// countOutliers uses the population standard deviation and skips NaN.
func countOutliers(values []float64) int {
	var sum float64
	var n int
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sq += (v - mean) * (v - mean)
		}
	}
	std := math.Sqrt(sq / float64(n))
	if std == 0 {
		return 0
	}

	outliers := 0
	for _, v := range values {
		if !math.IsNaN(v) && math.Abs((v-mean)/std) > outlierZScore {
			outliers++
		}
	}
	return outliers
}

// pearson correlates a and b over the rows where both are present.
func pearson(a, b []float64) (float64, bool) {
	var sa, sb float64
	var n int
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		sa += a[i]
		sb += b[i]
		n++
	}
	if n < 2 {
		return 0, false
	}
	ma, mb := sa/float64(n), sb/float64(n)

	var cov, va, vb float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0, false
	}
	return cov / math.Sqrt(va*vb), true
}

// correlations returns nil unless at least two numeric columns exist.
func correlations(columns []inference.ColumnMetadata, series [][]float64) map[string]map[string]float64 {
	var idx []int
	for i, s := range series {
		if s != nil {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return nil
	}

	out := make(map[string]map[string]float64, len(idx))
	for _, i := range idx {
		row := make(map[string]float64, len(idx))
		for _, j := range idx {
			if r, ok := pearson(series[i], series[j]); ok {
				row[columns[j].Name] = r
			}
		}
		out[columns[i].Name] = row
	}
	return out
}
