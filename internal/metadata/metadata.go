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
// Package metadata assembles the table-level grounding document consumed by
// the NL2SQL translator.
package metadata

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
)

// Version is the metadata format stamped on every document.
const Version = "2.0"

// TableMetadata is the wire contract for one uploaded table.
type TableMetadata struct {
	TableName       string                     `json:"table_name"`
	Description     string                     `json:"description,omitempty"`
	TotalRows       int                        `json:"total_rows"`
	TotalColumns    int                        `json:"total_columns"`
	Columns         []inference.ColumnMetadata `json:"columns"`
	SchemaSummary   string                     `json:"schema_summary"`
	ExampleQueries  []string                   `json:"example_queries"`
	GeneratedAt     int64                      `json:"generated_at"`
	MetadataVersion string                     `json:"metadata_version"`
	QueryHints      map[string]string          `json:"query_hints"`
	QualityReport   *QualityReport             `json:"quality_report,omitempty"`
}

// Column returns the metadata of the named column.
func (t *TableMetadata) Column(name string) (*inference.ColumnMetadata, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Options tunes a Synthesizer.
type Options struct {
	// Workers bounds concurrent column inference. Zero means runtime.NumCPU().
	Workers int
	// Version overrides the stamped metadata version.
	Version string
}

// Synthesizer runs column inference for every header and builds the
// table-level summary, example SQL and hints.
type Synthesizer struct {
	builder *inference.Builder
	workers int
	version string
	logger  *zap.Logger
	now     func() time.Time
}

func NewSynthesizer(builder *inference.Builder, opts Options, logger *zap.Logger) *Synthesizer {
	if builder == nil {
		builder = inference.NewBuilder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	version := opts.Version
	if version == "" {
		version = Version
	}
	return &Synthesizer{
		builder: builder,
		workers: workers,
		version: version,
		logger:  logger.Named("metadata"),
		now:     time.Now,
	}
}

// Synthesize infers every column of rows and assembles the table document.
// It only fails when ctx is cancelled.
func (s *Synthesizer) Synthesize(ctx context.Context, tableName string, headers []string, rows [][]string) (*TableMetadata, error) {
	columns := make([]inference.ColumnMetadata, len(headers))
	quality := make([]ColumnQuality, len(headers))
	series := make([][]float64, len(headers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, header := range headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			columns[i] = s.builder.BuildColumn(header, rows, i)
			quality[i], series[i] = columnQuality(rows, i, columns[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("column inference for %s interrupted: %w", tableName, err)
	}

	report := &QualityReport{
		RowCount:     len(rows),
		Columns:      quality,
		Correlations: correlations(columns, series),
	}
	md := &TableMetadata{
		TableName:       tableName,
		TotalRows:       len(rows),
		TotalColumns:    len(headers),
		Columns:         columns,
		SchemaSummary:   SchemaSummary(columns),
		ExampleQueries:  TableExamples(tableName, columns),
		GeneratedAt:     s.now().Unix(),
		MetadataVersion: s.version,
		QueryHints:      QueryHints(columns),
		QualityReport:   report,
	}
	s.logger.Debug("table metadata synthesized",
		zap.String("table", tableName),
		zap.Int("rows", md.TotalRows),
		zap.Int("columns", md.TotalColumns))
	return md, nil
}

// SchemaSummary renders one line per column, listing sample categories for
// categorical columns.
func SchemaSummary(columns []inference.ColumnMetadata) string {
	var summary strings.Builder
	fmt.Fprintf(&summary, "Table has %d columns:\n", len(columns))
	for _, col := range columns {
		fmt.Fprintf(&summary, "- %s (%s): %s", col.Name, col.DataType, col.Description)
		if col.IsCategory {
			fmt.Fprintf(&summary, " [Categories: %v]", col.SampleValues)
		}
		summary.WriteString("\n")
	}
	return summary.String()
}

// columnGroups splits columns into categorical, numeric and boolean. A column
// lands in the first group it qualifies for.
func columnGroups(columns []inference.ColumnMetadata) (categorical, numeric, boolean []inference.ColumnMetadata) {
	for _, col := range columns {
		switch {
		case col.IsCategory:
			categorical = append(categorical, col)
		case col.DataType.IsNumeric():
			numeric = append(numeric, col)
		case col.IsBoolean:
			boolean = append(boolean, col)
		}
	}
	return categorical, numeric, boolean
}

func sqlLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// TableExamples returns example SQL grounded in the first categorical,
// numeric and boolean columns.
func TableExamples(tableName string, columns []inference.ColumnMetadata) []string {
	examples := []string{fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)}
	categorical, numeric, boolean := columnGroups(columns)

	if len(categorical) > 0 && len(categorical[0].TopValues) > 0 {
		col := categorical[0]
		top := sqlLiteral(col.TopValues[0].Value)
		examples = append(examples,
			fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", tableName, col.Name, top),
			fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", col.Name, tableName, col.Name))
	}

	if len(numeric) > 0 {
		col := numeric[0]
		examples = append(examples,
			fmt.Sprintf("SELECT AVG(%s) FROM %s", col.Name, tableName),
			fmt.Sprintf("SELECT MAX(%s), MIN(%s) FROM %s", col.Name, col.Name, tableName))
		if col.HasNumericStats() {
			examples = append(examples,
				fmt.Sprintf("SELECT * FROM %s WHERE %s > %.1f", tableName, col.Name, col.Midpoint()))
		}
	}

	if len(boolean) > 0 {
		col := boolean[0]
		examples = append(examples,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = TRUE", tableName, col.Name),
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = FALSE", tableName, col.Name))
	}

	if len(categorical) > 0 && len(numeric) > 0 && len(categorical[0].TopValues) > 0 {
		cat, num := categorical[0], numeric[0]
		examples = append(examples,
			fmt.Sprintf("SELECT AVG(%s) FROM %s WHERE %s = %s",
				num.Name, tableName, cat.Name, sqlLiteral(cat.TopValues[0].Value)))
	}

	return examples
}

// QueryHints flags boolean columns, categorical columns with value mappings
// and the observed range of numeric columns.
func QueryHints(columns []inference.ColumnMetadata) map[string]string {
	hints := make(map[string]string)
	for _, col := range columns {
		switch {
		case col.IsBoolean:
			hints[col.Name] = "Use TRUE/FALSE for boolean queries"
		case col.IsCategory && len(col.ValueMappings) > 0:
			hints[col.Name] = "Has value mappings - check value_mappings field"
		case col.DataType.IsNumeric():
			if col.HasNumericStats() {
				hints[col.Name] = fmt.Sprintf("Numeric range: %.1f to %.1f", *col.Min, *col.Max)
			}
		}
	}
	return hints
}
