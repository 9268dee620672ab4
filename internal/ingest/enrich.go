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
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/genai"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/metadata"
)

// maxPromptCategories caps the categories listed in a column prompt.
const maxPromptCategories = 10

// enrich fills LLM descriptions from knowledge and replaces likely PII sample
// values. Failures are returned as warnings and leave md as inferred.
func (s *Service) enrich(ctx context.Context, md *metadata.TableMetadata, knowledge string) []string {
	var warnings []string
	warn := func(target string, err error) {
		s.logger.Warn("llm enrichment failed", zap.String("target", target), zap.Error(err))
		warnings = append(warnings, fmt.Sprintf("%s: %v", target, err))
	}

	if strings.TrimSpace(knowledge) != "" {
		desc, err := s.llm.DescribeTable(ctx, genai.TableRequest{
			Table:         md.TableName,
			SchemaSummary: md.SchemaSummary,
			Context:       knowledge,
		})
		if err != nil {
			warn("table "+md.TableName, err)
		} else if desc != "" {
			md.Description = desc
		}

		for i := range md.Columns {
			col := &md.Columns[i]
			desc, err := s.llm.DescribeColumn(ctx, genai.ColumnRequest{
				Table:        md.TableName,
				Column:       col.Name,
				DataType:     string(col.DataType),
				SemanticType: col.SemanticType,
				Categories:   firstN(col.EnumValues, maxPromptCategories),
				Context:      knowledge,
			})
			if err != nil {
				warn("column "+col.Name, err)
				continue
			}
			if desc != "" {
				col.Description = desc
			}
		}
	}

	for i := range md.Columns {
		col := &md.Columns[i]
		if !screenable(*col) {
			continue
		}
		examples, synthesized, err := s.llm.GenerateSyntheticExamples(ctx, col.Name, md.TableName, string(col.DataType), col.SampleValues)
		if err != nil {
			warn("samples of "+col.Name, err)
			continue
		}
		if synthesized {
			col.SampleValues = examples
			col.TopValues = []inference.ValueCount{}
		}
	}
	return warnings
}

// screenable reports whether the samples of col may carry personal data.
// Categorical and typed columns only hold labels, numbers, flags or dates.
func screenable(col inference.ColumnMetadata) bool {
	return col.DataType == inference.TypeText && !col.IsCategory && len(col.SampleValues) > 0
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
