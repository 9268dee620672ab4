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
// Package catalog persists upload records and their synthesized metadata so
// the NL2SQL translator can fetch them after the upload finished.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/metadata"
)

// ErrNotFound is returned when no upload is recorded for a table name.
var ErrNotFound = errors.New("catalog: not found")

// UploadRecord is one row of the uploads table.
type UploadRecord struct {
	ID           string    `json:"id"`
	TableName    string    `json:"table_name"`
	Filename     string    `json:"filename"`
	Dialect      string    `json:"dialect"`
	LoadState    string    `json:"load_state"`
	RowsLoaded   int       `json:"rows_loaded"`
	TotalRows    int       `json:"total_rows"`
	TotalColumns int       `json:"total_columns"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store reads and writes the catalog database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens the catalog file at path and applies pending migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, logger), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("catalog"), now: time.Now}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveUpload records md under rec.TableName, replacing any previous record
// for the same table together with its columns.
func (s *Store) SaveUpload(ctx context.Context, rec UploadRecord, md *metadata.TableMetadata) (UploadRecord, error) {
	if md == nil {
		return rec, fmt.Errorf("metadata is required")
	}
	if rec.TableName == "" {
		rec.TableName = md.TableName
	}
	doc, err := json.Marshal(md)
	if err != nil {
		return rec, fmt.Errorf("failed to encode metadata for %s: %w", rec.TableName, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	rec.UpdatedAt = now
	rec.TotalRows = md.TotalRows
	rec.TotalColumns = md.TotalColumns

	var existingID string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM uploads WHERE table_name = ?", rec.TableName).Scan(&existingID, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO uploads (id, table_name, filename, dialect, load_state, rows_loaded,
				total_rows, total_columns, metadata_version, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.TableName, rec.Filename, rec.Dialect, rec.LoadState, rec.RowsLoaded,
			rec.TotalRows, rec.TotalColumns, md.MetadataVersion, string(doc), rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return rec, fmt.Errorf("failed to insert upload %s: %w", rec.TableName, err)
		}
	case err != nil:
		return rec, fmt.Errorf("failed to look up upload %s: %w", rec.TableName, err)
	default:
		rec.ID = existingID
		rec.CreatedAt = createdAt
		_, err = tx.ExecContext(ctx, `
			UPDATE uploads SET filename = ?, dialect = ?, load_state = ?, rows_loaded = ?,
				total_rows = ?, total_columns = ?, metadata_version = ?, metadata = ?, updated_at = ?
			WHERE id = ?`,
			rec.Filename, rec.Dialect, rec.LoadState, rec.RowsLoaded,
			rec.TotalRows, rec.TotalColumns, md.MetadataVersion, string(doc), rec.UpdatedAt, rec.ID)
		if err != nil {
			return rec, fmt.Errorf("failed to update upload %s: %w", rec.TableName, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM column_metadata WHERE upload_id = ?", rec.ID); err != nil {
			return rec, fmt.Errorf("failed to clear columns of %s: %w", rec.TableName, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO column_metadata (upload_id, position, name, data_type, sql_type, is_category, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return rec, fmt.Errorf("failed to prepare column insert: %w", err)
	}
	defer stmt.Close()

	for i, col := range md.Columns {
		colDoc, err := json.Marshal(col)
		if err != nil {
			return rec, fmt.Errorf("failed to encode column %s: %w", col.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, i, col.Name, string(col.DataType), col.StorageType, col.IsCategory, string(colDoc)); err != nil {
			return rec, fmt.Errorf("failed to insert column %s: %w", col.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("failed to commit upload %s: %w", rec.TableName, err)
	}
	s.logger.Info("upload recorded",
		zap.String("table", rec.TableName),
		zap.String("id", rec.ID),
		zap.Int("columns", len(md.Columns)))
	return rec, nil
}

// GetTableMetadata returns the metadata document stored for table.
func (s *Store) GetTableMetadata(ctx context.Context, table string) (*metadata.TableMetadata, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT metadata FROM uploads WHERE table_name = ?", table).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %s", ErrNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata of %s: %w", table, err)
	}

	var md metadata.TableMetadata
	if err := json.Unmarshal([]byte(doc), &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of %s: %w", table, err)
	}
	return &md, nil
}

// GetColumn returns the stored metadata of one column of table.
func (s *Store) GetColumn(ctx context.Context, table, column string) (*inference.ColumnMetadata, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.metadata
		FROM column_metadata c
		JOIN uploads u ON u.id = c.upload_id
		WHERE u.table_name = ? AND c.name = ?`, table, column).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: column %s.%s", ErrNotFound, table, column)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s.%s: %w", table, column, err)
	}

	var col inference.ColumnMetadata
	if err := json.Unmarshal([]byte(doc), &col); err != nil {
		return nil, fmt.Errorf("failed to decode column %s.%s: %w", table, column, err)
	}
	return &col, nil
}

// GetUpload returns the upload record of table.
func (s *Store) GetUpload(ctx context.Context, table string) (UploadRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, table_name, filename, dialect, load_state, rows_loaded,
			total_rows, total_columns, created_at, updated_at
		FROM uploads WHERE table_name = ?`, table)
	rec, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: table %s", ErrNotFound, table)
	}
	return rec, err
}

// ListUploads returns every recorded upload ordered by table name.
func (s *Store) ListUploads(ctx context.Context) ([]UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, filename, dialect, load_state, rows_loaded,
			total_rows, total_columns, created_at, updated_at
		FROM uploads ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var out []UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}
	return out, nil
}

// DeleteUpload removes the record of table and its columns.
func (s *Store) DeleteUpload(ctx context.Context, table string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM uploads WHERE table_name = ?", table)
	if err != nil {
		return fmt.Errorf("failed to delete upload %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete upload %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: table %s", ErrNotFound, table)
	}
	s.logger.Info("upload deleted", zap.String("table", table))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (UploadRecord, error) {
	var rec UploadRecord
	err := row.Scan(&rec.ID, &rec.TableName, &rec.Filename, &rec.Dialect, &rec.LoadState,
		&rec.RowsLoaded, &rec.TotalRows, &rec.TotalColumns, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan upload: %w", err)
	}
	return rec, nil
}
