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
	"slices"
	"sort"
)

const (
	maxSampleValues = 5
	maxTopValues    = 10
)

// NumericStats summarises the numeric values of a sample.
type NumericStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	// Std is the sum of squared deviations divided by N.
	Std float64
}

// Stats is the output of Aggregate.
type Stats struct {
	// Numeric is nil when no sampled value parsed as a number.
	Numeric      *NumericStats
	Frequencies  []ValueCount
	TopValues    []ValueCount
	SampleValues []string
}

// UniqueCount is the number of distinct sampled values.
func (s Stats) UniqueCount() int {
	return len(s.Frequencies)
}

// Aggregate computes frequency tables over values and numeric summaries over numeric.
func Aggregate(values []string, numeric []float64) Stats {
	st := Stats{
		Frequencies:  frequencies(values),
		SampleValues: make([]string, 0, maxSampleValues),
	}
	for _, v := range values {
		if len(st.SampleValues) == maxSampleValues {
			break
		}
		st.SampleValues = append(st.SampleValues, v)
	}

	top := len(st.Frequencies)
	if top > maxTopValues {
		top = maxTopValues
	}
	st.TopValues = slices.Clone(st.Frequencies[:top])

	if len(numeric) > 0 {
		st.Numeric = summarize(numeric)
	}
	return st
}

// frequencies counts values and sorts them by count, descending. Ties keep
// first-seen order.
func frequencies(values []string) []ValueCount {
	index := make(map[string]int, len(values))
	var counts []ValueCount
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func summarize(numeric []float64) *NumericStats {
	n := float64(len(numeric))
	ns := &NumericStats{Min: numeric[0], Max: numeric[0]}
	sum := 0.0
	for _, v := range numeric {
		if v < ns.Min {
			ns.Min = v
		}
		if v > ns.Max {
			ns.Max = v
		}
		sum += v
	}
	ns.Mean = sum / n

	sumSq := 0.0
	for _, v := range numeric {
		d := v - ns.Mean
		sumSq += d * d
	}
	ns.Std = sumSq / n

	sorted := slices.Clone(numeric)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		ns.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		ns.Median = sorted[mid]
	}
	return ns
}
