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

// maxCodeLen is the longest categorical value treated as a short code.
const maxCodeLen = 3

// Annotations maps upper-cased short codes to a best-effort reading.
// The readings are hints for the NL2SQL model, not a decode table.
type Annotations map[string]string

// DefaultAnnotations returns the built-in short code hints.
func DefaultAnnotations() Annotations {
	return Annotations{
		"M": "M (possibly male, medium, or other)",
		"F": "F (possibly female, false, or other)",
		"Y": "Y (possibly yes or year)",
		"N": "N (possibly no or number)",
	}
}

// Lookup returns the annotation for val if it is a known short code.
func (a Annotations) Lookup(val string) (string, bool) {
	val = strings.TrimSpace(val)
	if val == "" || len(val) > maxCodeLen {
		return "", false
	}
	note, ok := a[strings.ToUpper(val)]
	return note, ok
}

// Merge returns a copy of a with extra applied on top. Keys are upper-cased.
func (a Annotations) Merge(extra map[string]string) Annotations {
	out := make(Annotations, len(a)+len(extra))
	for k, v := range a {
		out[strings.ToUpper(k)] = v
	}
	for k, v := range extra {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}
