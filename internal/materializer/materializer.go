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
// Package materializer creates a destination table from a planned schema and
// loads the raw rows into it in batches.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/schema"
)

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 1000

// State is the lifecycle of a destination table during one load.
type State int

const (
	StateNotCreated State = iota
	StateCreated
	StatePopulated
	StatePartiallyPopulated
)

func (s State) String() string {
	switch s {
	case StateNotCreated:
		return "not_created"
	case StateCreated:
		return "created"
	case StatePopulated:
		return "populated"
	case StatePartiallyPopulated:
		return "partially_populated"
	default:
		return "unknown"
	}
}

// Options tunes a Materializer.
type Options struct {
	BatchSize int
	// OnBatch, when set, is called after every committed batch.
	OnBatch func(Result)
}

// Result reports what a load left behind, including on failure.
type Result struct {
	Table         string
	State         State
	RowsCommitted int
	Batches       int
}

// BatchError reports the first failing row of a rolled back batch.
type BatchError struct {
	// Batch is the zero-based index of the failed batch.
	Batch int
	// Row is the zero-based index of the failing row within the input.
	Row int
	// Committed is the number of rows durably stored before the failure.
	Committed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed at row %d (%d rows committed): %v", e.Batch, e.Row, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// ErrTypeMismatch marks a cell that does not parse as the planned column type.
// Types are inferred from a sample, so unsampled rows can carry such cells.
var ErrTypeMismatch = errors.New("value does not match inferred column type")

// Materializer writes tables through a dialect-aware database handle.
type Materializer struct {
	db        *database.DB
	logger    *zap.Logger
	batchSize int
	onBatch   func(Result)
}

// New returns a Materializer bound to db.
func New(db *database.DB, logger *zap.Logger, opts Options) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Materializer{
		db:        db,
		logger:    logger.Named("materializer"),
		batchSize: batchSize,
		onBatch:   opts.OnBatch,
	}
}

// Load replaces table with plan and inserts rows. Any prior table of the same
// name is dropped first. Batches committed before a failure stay committed.
func (m *Materializer) Load(ctx context.Context, table string, plan schema.TableSchema, rows [][]string) (Result, error) {
	res := Result{Table: table, State: StateNotCreated}
	log := m.logger.With(zap.String("table", table))

	createSQL, err := plan.CreateTableSQL(m.db, table)
	if err != nil {
		return res, fmt.Errorf("failed to render schema for %s: %w", table, err)
	}

	// The drop and create commit together, so a failed create keeps the old table.
	if err := m.db.ExecuteSQLStatements(ctx, []string{schema.DropTableSQL(m.db, table), createSQL}); err != nil {
		return res, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	res.State = StateCreated
	log.Debug("table created", zap.Int("columns", len(plan.Columns)))

	insertSQL := plan.InsertSQL(m.db, table, m.db.Placeholder)
	for start := 0; start < len(rows); start += m.batchSize {
		if err := ctx.Err(); err != nil {
			res.State = partialState(res.RowsCommitted)
			return res, fmt.Errorf("load of %s cancelled after %d rows: %w", table, res.RowsCommitted, err)
		}
		end := min(start+m.batchSize, len(rows))

		if err := m.insertBatch(ctx, insertSQL, plan, rows, start, end); err != nil {
			var be *BatchError
			if errors.As(err, &be) {
				be.Batch = res.Batches
				be.Committed = res.RowsCommitted
			}
			res.State = partialState(res.RowsCommitted)
			log.Error("batch failed",
				zap.Int("batch", res.Batches),
				zap.Int("committed", res.RowsCommitted),
				zap.Error(err))
			return res, err
		}
		res.RowsCommitted += end - start
		res.Batches++
		res.State = StatePartiallyPopulated
		log.Debug("batch committed", zap.Int("batch", res.Batches), zap.Int("rows", res.RowsCommitted))
		if m.onBatch != nil {
			m.onBatch(res)
		}
	}

	res.State = StatePopulated
	log.Info("table loaded", zap.Int("rows", res.RowsCommitted), zap.Int("batches", res.Batches))
	return res, nil
}

func partialState(committed int) State {
	if committed == 0 {
		return StateCreated
	}
	return StatePartiallyPopulated
}

func (m *Materializer) insertBatch(ctx context.Context, insertSQL string, plan schema.TableSchema, rows [][]string, start, end int) error {
	tx, err := m.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return &BatchError{Row: start, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return &BatchError{Row: start, Err: fmt.Errorf("failed to prepare insert: %w", err)}
	}
	defer stmt.Close()

	for i := start; i < end; i++ {
		args, err := coerceRow(plan, rows[i])
		if err != nil {
			return &BatchError{Row: i, Err: err}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &BatchError{Row: i, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &BatchError{Row: end - 1, Err: fmt.Errorf("failed to commit transaction: %w", err)}
	}
	return nil
}

// coerceRow pads or truncates row to the plan width and converts every cell
// to the Go value of its planned type. Empty cells become NULL.
func coerceRow(plan schema.TableSchema, row []string) ([]any, error) {
	args := make([]any, len(plan.Columns))
	for j, col := range plan.Columns {
		if j >= len(row) {
			continue
		}
		v, err := coerce(col.DataType, row[j])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		args[j] = v
	}
	return args, nil
}

// Blank cells are NULL for every type, matching the null count of the
// sampler. Non-blank text is stored untrimmed.
func coerce(t inference.DataType, raw string) (any, error) {
	val := strings.TrimSpace(raw)
	if val == "" {
		return nil, nil
	}
	if t == inference.TypeText || t == "" {
		return raw, nil
	}
	switch t {
	case inference.TypeInteger:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, val)
		}
		return n, nil
	case inference.TypeFloat:
		f, ok := inference.ParseNumber(val)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, val)
		}
		return f, nil
	case inference.TypeBoolean:
		b, ok := inference.ParseBoolean(val)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, val)
		}
		return b, nil
	case inference.TypeDate:
		d, ok := inference.ParseDate(val)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a date", ErrTypeMismatch, val)
		}
		return d, nil
	default:
		return raw, nil
	}
}
