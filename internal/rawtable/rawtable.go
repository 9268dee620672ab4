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
// Package rawtable parses uploaded CSV and XLSX files into an untyped
// header plus string matrix.
package rawtable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx/v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no header row")
)

const utf8BOM = "\ufeff"

// Table is a parsed upload. Rows may be shorter or longer than Headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Read parses r according to the extension of filename.
func Read(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadCSV reads a comma separated file whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return &Table{Headers: headers, Rows: records[1:]}, nil
}

// ReadXLSX reads the first sheet of a workbook. The first row is the header
// and empty rows are skipped.
func ReadXLSX(r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}

	wb, err := xlsx.OpenBinary(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	t := &Table{}
	first := true
	err = wb.Sheets[0].ForEachRow(func(row *xlsx.Row) error {
		var cells []string
		if err := row.ForEachCell(func(cell *xlsx.Cell) error {
			cells = append(cells, cell.String())
			return nil
		}); err != nil {
			return err
		}

		if first {
			t.Headers = cells
			first = false
		} else {
			t.Rows = append(t.Rows, cells)
		}
		return nil
	}, xlsx.SkipEmptyRows)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if first {
		return nil, ErrEmptyFile
	}
	return t, nil
}
