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

// columnExamples returns up to two natural-language questions for the column.
func columnExamples(m ColumnMetadata) []string {
	name := m.Name
	switch {
	case m.IsBoolean:
		return []string{
			fmt.Sprintf("How many records have %s as true?", name),
			fmt.Sprintf("Show me all data where %s is false", name),
		}
	case m.IsCategory && len(m.TopValues) > 0:
		return []string{
			fmt.Sprintf("How many records have %s equal to '%s'?", name, m.TopValues[0].Value),
			fmt.Sprintf("Show distribution of %s", name),
		}
	case m.DataType.IsNumeric():
		if !m.HasNumericStats() {
			return nil
		}
		return []string{
			fmt.Sprintf("What is the average %s?", name),
			fmt.Sprintf("Show records where %s is greater than %.1f", name, m.Midpoint()),
		}
	case m.IsDate:
		return []string{
			fmt.Sprintf("Show records from the latest %s", name),
			fmt.Sprintf("Group by %s and count", name),
		}
	}
	return nil
}
