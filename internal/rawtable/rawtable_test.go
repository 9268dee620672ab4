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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

func workbook(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffname,age,active\nAlice,30,yes\nBob,25\nCarol,,yes,extra\n\"Dan \"\"D\"\"\",40,no\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "active"}, tbl.Headers)
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, []string{"Bob", "25"}, tbl.Rows[1])
	assert.Equal(t, []string{"Carol", "", "yes", "extra"}, tbl.Rows[2])
	assert.Equal(t, `Dan "D"`, tbl.Rows[3][0])
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadXLSX(t *testing.T) {
	content := workbook(t,
		[]string{"name", "age", "active"},
		[]string{"Alice", "30", "yes"},
		[]string{"Bob", "25", "no"},
	)

	tbl, err := ReadXLSX(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "active"}, tbl.Headers)
	assert.Equal(t, [][]string{{"Alice", "30", "yes"}, {"Bob", "25", "no"}}, tbl.Rows)
}

func TestReadXLSXInvalid(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a zip archive"))
	assert.Error(t, err)

	_, err = ReadXLSX(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadDispatch(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
		headers  []string
	}{
		{"csv", "people.csv", []byte("a,b\n1,2\n"), nil, []string{"a", "b"}},
		{"upper case extension", "PEOPLE.CSV", []byte("a\n1\n"), nil, []string{"a"}},
		{"xlsx", "book.xlsx", workbook(t, []string{"x", "y"}), nil, []string{"x", "y"}},
		{"unsupported", "notes.txt", []byte("hello"), ErrUnsupportedFormat, nil},
		{"legacy excel", "old.xls", []byte("hello"), ErrUnsupportedFormat, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Read(tt.filename, bytes.NewReader(tt.content))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.headers, tbl.Headers)
		})
	}
}
