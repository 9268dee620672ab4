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
package genai

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

func tablePrompt(req TableRequest) string {
	return fmt.Sprintf(`
	Your task is to generate a brief and concise description for an uploaded data table based ONLY on the provided knowledge context.

	********** Knowledge Context **********
	%s
	********** End Knowledge Context **********

	********** Inferred Schema **********
	%s
	********** End Inferred Schema **********

	**Instructions:**
	1. Analyze the Knowledge Context carefully.
	2. Determine if the context provides any relevant information SPECIFICALLY about the table '%s' or the data it holds.
	3. If relevant information is found, generate a concise description (max 50 words) summarizing that information. Output ONLY the description text within <result></result> tags.
	4. If NO relevant information about THIS SPECIFIC table is found in the context, output empty <result></result> tags. Do NOT invent descriptions or use general knowledge.

	Target: Table: %s

	Begin analysis and provide description if applicable:
	`, req.Context, req.SchemaSummary, req.Table, req.Table)
}

func columnPrompt(req ColumnRequest) string {
	var profile strings.Builder
	fmt.Fprintf(&profile, "- Inferred Type: %s\n", req.DataType)
	if req.SemanticType != "" {
		fmt.Fprintf(&profile, "- Detected Pattern: %s\n", req.SemanticType)
	}
	if len(req.Categories) > 0 {
		fmt.Fprintf(&profile, "- Categories: %s\n", strings.Join(req.Categories, ", "))
	}

	return fmt.Sprintf(`
	Your task is to generate a brief and concise description for a column of an uploaded data table based ONLY on the provided knowledge context.

	********** Knowledge Context **********
	%s
	********** End Knowledge Context **********

	**Column Profile:**
	%s
	**Instructions:**
	1. Analyze the Knowledge Context carefully.
	2. Determine if the context provides any relevant information SPECIFICALLY about the column '%s' within the table '%s'.
	3. If relevant information is found, generate a concise description (max 50 words) summarizing that information. Output ONLY the description text within <result></result> tags.
	4. If NO relevant information about THIS SPECIFIC column/table combination is found in the context, output empty <result></result> tags. Do NOT invent descriptions or use general knowledge.

	Target: Column Name: %s in Table: %s

	Begin analysis and provide description if applicable:
	`, req.Context, profile.String(), req.Column, req.Table, req.Column, req.Table)
}

func piiPrompt(columnName, tableName, dataType string, originalExamples []string) string {
	return fmt.Sprintf(`
	You are an expert in data privacy and tabular data. Analyze the following column of an uploaded table and its example values for Personally Identifiable Information (PII).

	**Column Information:**
	- Column Name: %s
	- Table Name: %s
	- Data Type: %s
	- Original Example Values: [%s]

	**Instructions:**
	1. **Analyze for PII:** Based ONLY on the column name, data type, and example values, determine if this column is LIKELY to contain PII (e.g., names, emails, phones, addresses, specific IDs). Be conservative; if unsure, assume it's NOT PII.
	2. **Decision & Output:**
	- **If LIKELY PII:** Generate %d synthetic, plausible-looking example values that match the likely *pattern* and *data type* (%s) of the original data but are clearly fake. Output these values as a comma-separated list enclosed ONLY in <synthetic_examples>...</synthetic_examples> tags.
	- **If NOT LIKELY PII (or unsure):** Return the original example values provided. Output these values as a comma-separated list enclosed ONLY in <original_examples>...</original_examples> tags.

	**Example Output (Synthetic):** <synthetic_examples>user1@example.com, user2@example.net, user3@example.org</synthetic_examples>
	**Example Output (Original):** <original_examples>Active, Inactive, Pending</original_examples>

	Provide your output based on the analysis:
	`, columnName, tableName, dataType, strings.Join(originalExamples, ", "), len(originalExamples), dataType)
}

// getFirstTextPart extracts the first text part from a Gemini response.
func getFirstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		safetyRatings := "none"
		if resp != nil && len(resp.Candidates) > 0 {
			finishReason = resp.Candidates[0].FinishReason.String()
			if resp.Candidates[0].SafetyRatings != nil {
				safetyRatings = fmt.Sprintf("%v", resp.Candidates[0].SafetyRatings)
			}
		}
		return "", fmt.Errorf("empty or incomplete response from Gemini API. FinishReason: %s, SafetyRatings: %s", finishReason, safetyRatings)
	}
	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type: %T", part)
	}
	return string(text), nil
}

// extractContentBetween returns the trimmed text between the first startTag
// and the following endTag.
func extractContentBetween(text, startTag, endTag string) (string, bool) {
	startIndex := strings.Index(text, startTag)
	if startIndex == -1 {
		return "", false
	}
	startIndex += len(startTag)
	endIndex := strings.Index(text[startIndex:], endTag)
	if endIndex == -1 {
		return "", false
	}
	return strings.TrimSpace(text[startIndex : startIndex+endIndex]), true
}

func parseCommaSeparated(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
