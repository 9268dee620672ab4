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

import "regexp"

// semanticMatchRatio is the share of values that must match a pattern.
const semanticMatchRatio = 0.8

type semanticPattern struct {
	name    string
	pattern *regexp.Regexp
}

// Checked in order; the first pattern above the ratio wins.
var semanticPatterns = []semanticPattern{
	{"EMAIL", regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)},
	{"PHONE", regexp.MustCompile(`^\+?[\d\-()\s]+$`)},
	{"URL", regexp.MustCompile(`^https?://`)},
	{"JSON", regexp.MustCompile(`^[{\[].*[}\]]$`)},
	{"DATE", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)},
	{"CURRENCY", regexp.MustCompile(`^[$£€¥]\d+`)},
	{"GEOLOCATION", regexp.MustCompile(`^-?\d+\.\d+,\s*-?\d+\.\d+$`)},
}

// DetectSemanticType names a well-known text format shared by most values.
// It returns "" when no format dominates.
func DetectSemanticType(values []string) string {
	if len(values) == 0 {
		return ""
	}
	for _, sp := range semanticPatterns {
		matched := 0
		for _, v := range values {
			if sp.pattern.MatchString(v) {
				matched++
			}
		}
		if float64(matched)/float64(len(values)) > semanticMatchRatio {
			return sp.name
		}
	}
	return ""
}
