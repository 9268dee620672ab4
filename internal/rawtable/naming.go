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
package rawtable

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxTableNameLength matches the shortest identifier limit of the supported stores.
const MaxTableNameLength = 63

// TableNameFromFilename strips the directory and extension from filename.
func TableNameFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeTableName joins prefix and name and reduces the result to
// lower-case [a-z0-9_], never starting with a digit.
func SanitizeTableName(prefix, name string) string {
	raw := name
	if prefix != "" {
		raw = prefix + "_" + name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		out = "t"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	if len(out) > MaxTableNameLength {
		out = out[:MaxTableNameLength]
	}
	return out
}

// ValidateHeaders rejects empty and duplicate column names. Names differing
// only by case are duplicates, since most stores fold identifier case.
func ValidateHeaders(headers []string) error {
	if len(headers) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			return fmt.Errorf("column %d has an empty name", i+1)
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("column %d duplicates column %d name %q", i+1, prev+1, name)
		}
		seen[key] = i
	}
	return nil
}
