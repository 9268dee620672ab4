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
package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadContextFiles reads the content of the specified context files and combines them into a single string.
func ReadContextFiles(filePaths string) (string, error) {
	if filePaths == "" {
		return "", nil // No context files provided
	}

	paths := strings.Split(filePaths, ",")
	var combinedContext strings.Builder
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read context file '%s': %w", path, err)
		}
		combinedContext.WriteString("\n-- Context from file: " + path + " --\n")
		combinedContext.WriteString(string(content))
	}
	return combinedContext.String(), nil
}

func GetDefaultOutputFilePath(tableName, commandName string) string {
	switch commandName {
	case "get-metadata":
		return fmt.Sprintf("%s_metadata.json", tableName)
	default: // upload
		return fmt.Sprintf("%s_context.json", tableName)
	}
}

// WriteJSONFile writes v as indented JSON to path.
func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ConfirmAction(actionDescription string) bool {
	return ConfirmActionFrom(os.Stdin, os.Stdout, actionDescription)
}

// ConfirmActionFrom asks on out and reads the answer from in.
func ConfirmActionFrom(in io.Reader, out io.Writer, actionDescription string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "\n-------------------------------------------------------------\n")
	fmt.Fprintf(out, "About to %s.\n", actionDescription)
	fmt.Fprint(out, "Do you want to apply these changes to the database? (yes/no): ")
	text, _ := reader.ReadString('\n')
	action := strings.TrimSpace(strings.ToLower(text))
	return action == "yes" || action == "y"
}

// ParseAnnotationsFlag parses "code=meaning" pairs separated by commas.
// A meaning may hold commas when wrapped in square brackets, e.g. "P=[Paid, settled]".
func ParseAnnotationsFlag(flag string) (map[string]string, error) {
	annotations := make(map[string]string)
	if strings.TrimSpace(flag) == "" {
		return annotations, nil
	}

	for _, part := range SplitOutsideBrackets(flag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, meaning, ok := strings.Cut(part, "=")
		code = strings.TrimSpace(code)
		meaning = strings.TrimSpace(meaning)
		if !ok || code == "" || meaning == "" {
			return nil, fmt.Errorf("invalid annotation %q, expected code=meaning", part)
		}
		if strings.HasPrefix(meaning, "[") {
			if !strings.HasSuffix(meaning, "]") {
				return nil, fmt.Errorf("missing closing bracket in: %s", part)
			}
			meaning = strings.TrimSpace(meaning[1 : len(meaning)-1])
		}
		annotations[code] = meaning
	}
	return annotations, nil
}

// SplitOutsideBrackets Helper function to split string by commas that are not within brackets
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	inBrackets := false

	for _, char := range s {
		switch char {
		case '[':
			inBrackets = true
			current.WriteRune(char)
		case ']':
			inBrackets = false
			current.WriteRune(char)
		case ',':
			if inBrackets {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add the last part
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
