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
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Thresholds tunes the boolean and categorical decisions.
type Thresholds struct {
	BooleanMaxUnique       int
	CategoryRatio          float64
	CategoryRatioMaxUnique int
	CategoryMaxUnique      int
}

// DefaultThresholds are the production decision boundaries.
var DefaultThresholds = Thresholds{
	BooleanMaxUnique:       10,
	CategoryRatio:          0.2,
	CategoryRatioMaxUnique: 50,
	CategoryMaxUnique:      20,
}

func (t Thresholds) withDefaults() Thresholds {
	if t.BooleanMaxUnique <= 0 {
		t.BooleanMaxUnique = DefaultThresholds.BooleanMaxUnique
	}
	if t.CategoryRatio <= 0 {
		t.CategoryRatio = DefaultThresholds.CategoryRatio
	}
	if t.CategoryRatioMaxUnique <= 0 {
		t.CategoryRatioMaxUnique = DefaultThresholds.CategoryRatioMaxUnique
	}
	if t.CategoryMaxUnique <= 0 {
		t.CategoryMaxUnique = DefaultThresholds.CategoryMaxUnique
	}
	return t
}

// Flags records which value families every sampled value belongs to.
type Flags struct {
	AllIntegers bool
	AllFloats   bool
	AllBooleans bool
	AllDates    bool
}

// Classification is the outcome of Classify for one column.
type Classification struct {
	Type        DataType
	IsCategory  bool
	Flags       Flags
	UniqueCount int
	UniqueRatio float64
	// Numeric holds every sampled value that parsed as a finite number, in order.
	Numeric []float64
}

var booleanTokens = map[string]bool{
	"true": true, "false": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"t": true, "f": false,
	"on": true, "off": false,
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`),
	regexp.MustCompile(`^\d{1,2}-\w{3}-\d{4}$`),
}

// DateLayouts are the accepted date layouts, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"01/02/06",
	"2-Jan-2006",
}

// ParseBoolean maps a boolean token to its value. ok is false for any other text.
func ParseBoolean(val string) (value bool, ok bool) {
	value, ok = booleanTokens[strings.ToLower(strings.TrimSpace(val))]
	return value, ok
}

// ParseDate parses val when it has one of the recognised date shapes.
func ParseDate(val string) (time.Time, bool) {
	for _, pattern := range datePatterns {
		if !pattern.MatchString(val) {
			continue
		}
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseNumber parses val as a finite float64.
func ParseNumber(val string) (float64, bool) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isInteger(val string) bool {
	_, err := strconv.ParseInt(val, 10, 64)
	return err == nil
}

// scanValues evaluates every value against all four families without
// stopping early, and collects each numeric value exactly once.
func scanValues(values []string) (Flags, []float64) {
	flags := Flags{AllIntegers: true, AllFloats: true, AllBooleans: true, AllDates: true}
	var numeric []float64

	for _, val := range values {
		if !isInteger(val) {
			flags.AllIntegers = false
		}
		if f, ok := ParseNumber(val); ok {
			numeric = append(numeric, f)
		} else {
			flags.AllFloats = false
		}
		if _, ok := ParseBoolean(val); !ok {
			flags.AllBooleans = false
		}
		if _, ok := ParseDate(val); !ok {
			flags.AllDates = false
		}
	}
	return flags, numeric
}

// Classify determines the semantic type of a sampled column.
func Classify(values []string, th Thresholds) Classification {
	th = th.withDefaults()
	if len(values) == 0 {
		return Classification{Type: TypeText}
	}

	flags, numeric := scanValues(values)
	unique := countDistinct(values)
	c := Classification{
		Type:        TypeText,
		Flags:       flags,
		UniqueCount: unique,
		UniqueRatio: float64(unique) / float64(len(values)),
		Numeric:     numeric,
	}

	switch {
	case flags.AllBooleans && unique <= th.BooleanMaxUnique:
		c.Type = TypeBoolean
	case flags.AllIntegers:
		c.Type = TypeInteger
	case flags.AllFloats:
		c.Type = TypeFloat
	case flags.AllDates:
		c.Type = TypeDate
	case (c.UniqueRatio < th.CategoryRatio && unique <= th.CategoryRatioMaxUnique) || unique <= th.CategoryMaxUnique:
		c.IsCategory = true
	}
	return c
}

func countDistinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
