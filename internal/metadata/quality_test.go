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
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
)

func TestQualityReportCountsOutliers(t *testing.T) {
	rows := make([][]string, 0, 22)
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"10", "a"})
	}
	rows = append(rows, []string{"100", "b"}, []string{"", ""})

	md, err := NewSynthesizer(nil, Options{}, nil).Synthesize(context.Background(), "readings", []string{"value", "tag"}, rows)
	require.NoError(t, err)
	require.NotNil(t, md.QualityReport)

	report := md.QualityReport
	assert.Equal(t, 22, report.RowCount)
	require.Len(t, report.Columns, 2)

	value := report.Columns[0]
	assert.Equal(t, "value", value.Name)
	assert.Equal(t, 1, value.MissingCount)
	assert.InDelta(t, 100.0/22, value.MissingPct, 1e-9)
	assert.Equal(t, 2, value.UniqueCount)
	assert.InDelta(t, 200.0/22, value.UniquePct, 1e-9)
	require.NotNil(t, value.Outliers)
	assert.Equal(t, 1, *value.Outliers)

	tag := report.Columns[1]
	assert.Nil(t, tag.Outliers)
	assert.Nil(t, report.Correlations, "a single numeric column has nothing to correlate")
}

func TestQualityReportCorrelatesNumericColumns(t *testing.T) {
	rows := make([][]string, 0, 10)
	for i := 1; i <= 10; i++ {
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.Itoa(2*i + 1),
			strconv.Itoa(-i),
			"7",
		})
	}
	headers := []string{"x", "y", "neg", "flat"}

	md, err := NewSynthesizer(nil, Options{}, nil).Synthesize(context.Background(), "lines", headers, rows)
	require.NoError(t, err)
	corr := md.QualityReport.Correlations
	require.NotNil(t, corr)

	assert.InDelta(t, 1.0, corr["x"]["y"], 1e-9)
	assert.InDelta(t, 1.0, corr["y"]["x"], 1e-9)
	assert.InDelta(t, 1.0, corr["x"]["x"], 1e-9)
	assert.InDelta(t, -1.0, corr["x"]["neg"], 1e-9)
	assert.NotContains(t, corr["x"], "flat")
	assert.Empty(t, corr["flat"])
}

func TestPearsonSkipsIncompleteRows(t *testing.T) {
	a := []float64{1, math.NaN(), 3, 4}
	b := []float64{2, 100, 6, 8}

	r, ok := pearson(a, b)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	_, ok = pearson([]float64{1}, []float64{2})
	assert.False(t, ok)
}

func TestCountOutliersLargeSample(t *testing.T) {
	fake := faker.New()
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(fake.IntBetween(40, 60))
	}
	assert.Zero(t, countOutliers(values))

	values = append(values, 10000)
	assert.Equal(t, 1, countOutliers(values))
}

func TestQualityReportOnlyNumericColumnsHaveOutliers(t *testing.T) {
	md, err := NewSynthesizer(nil, Options{}, nil).Synthesize(context.Background(), "people", peopleHeaders, peopleRows)
	require.NoError(t, err)

	for _, q := range md.QualityReport.Columns {
		col, ok := md.Column(q.Name)
		require.True(t, ok)
		assert.Equal(t, col.DataType.IsNumeric(), q.Outliers != nil, q.Name)
		assert.Equal(t, col.NullCount, q.MissingCount, q.Name)
	}
	assert.Equal(t, inference.TypeInteger, md.Columns[1].DataType)
}
