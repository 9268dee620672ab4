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
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/catalog"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/genai"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/logging"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/materializer"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/metadata"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/rawtable"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/schema"
)

// Options tunes a Service.
type Options struct {
	BatchSize int
	Retry     RetryOptions
	// LLM enables description and sample screening when non-nil.
	LLM genai.LLMClient
}

// UploadRequest is one file to ingest.
type UploadRequest struct {
	Filename    string
	Reader      io.Reader
	TablePrefix string
	// DryRun infers metadata without touching the destination or the catalog.
	DryRun bool
	// Context is free text the LLM grounds descriptions in.
	Context string
}

// UploadResult reports what an upload produced.
type UploadResult struct {
	Table    string                  `json:"table"`
	Metadata *metadata.TableMetadata `json:"metadata"`
	Load     materializer.Result     `json:"-"`
	State    string                  `json:"load_state"`
	Record   *catalog.UploadRecord   `json:"record,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
}

// Service runs uploads end to end and serves the stored metadata.
type Service struct {
	db          *database.DB
	catalog     *catalog.Store
	synthesizer *metadata.Synthesizer
	loader      *materializer.Materializer
	llm         genai.LLMClient
	retry       RetryOptions
	locks       *keyedMutex
	logger      *zap.Logger
}

func NewService(db *database.DB, store *catalog.Store, synthesizer *metadata.Synthesizer, opts Options, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger).Named("ingest")
	if synthesizer == nil {
		synthesizer = metadata.NewSynthesizer(nil, metadata.Options{}, logger)
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryOptions
	}
	loader := materializer.New(db, logger, materializer.Options{
		BatchSize: opts.BatchSize,
		OnBatch: func(r materializer.Result) {
			logger.Debug("load progress",
				zap.String("table", r.Table),
				zap.Int("batches", r.Batches),
				zap.Int("rows", r.RowsCommitted))
		},
	})
	return &Service{
		db:          db,
		catalog:     store,
		synthesizer: synthesizer,
		loader:      loader,
		llm:         opts.LLM,
		retry:       retry,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// Upload parses req, infers its metadata, loads it into the destination and
// records it in the catalog. Uploads to the same table name run one at a time.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Filename == "" || req.Reader == nil {
		return nil, &ErrInvalidInput{Msg: "upload request", Err: errors.New("filename and content are required")}
	}

	tbl, err := rawtable.Read(req.Filename, req.Reader)
	if err != nil {
		return nil, &ErrInvalidInput{Msg: fmt.Sprintf("reading %s", req.Filename), Err: err}
	}
	if err := rawtable.ValidateHeaders(tbl.Headers); err != nil {
		return nil, &ErrInvalidInput{Msg: fmt.Sprintf("headers of %s", req.Filename), Err: err}
	}

	table := rawtable.SanitizeTableName(req.TablePrefix, rawtable.TableNameFromFilename(req.Filename))
	log := s.logger.With(zap.String("table", table), zap.String("file", req.Filename))
	unlock := s.locks.Lock(table)
	defer unlock()

	md, err := s.synthesizer.Synthesize(ctx, table, tbl.Headers, tbl.Rows)
	if err != nil {
		return nil, &ErrCancelled{Msg: "metadata synthesis", Err: err}
	}
	plan, err := schema.Plan(md.Columns)
	if err != nil {
		return nil, &ErrInvalidInput{Msg: "schema planning", Err: err}
	}

	res := &UploadResult{Table: table, Metadata: md, State: materializer.StateNotCreated.String()}
	if !req.DryRun {
		if err := s.ping(ctx); err != nil {
			return res, err
		}
		load, err := s.loader.Load(ctx, table, plan, tbl.Rows)
		res.Load = load
		res.State = load.State.String()
		if err != nil {
			if ctx.Err() != nil {
				return res, &ErrCancelled{Msg: fmt.Sprintf("loading %s", table), Err: err}
			}
			return res, &ErrQueryExecution{Msg: fmt.Sprintf("loading %s", table), Err: err}
		}
	}

	if s.llm != nil {
		res.Warnings = s.enrich(ctx, md, req.Context)
	}

	if req.DryRun {
		log.Info("dry run complete", zap.Int("rows", md.TotalRows), zap.Int("columns", md.TotalColumns))
		return res, nil
	}

	rec, err := withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (catalog.UploadRecord, error) {
		rec, err := s.catalog.SaveUpload(ctx, catalog.UploadRecord{
			TableName:    table,
			Filename:     req.Filename,
			Dialect:      s.db.Config.Dialect,
			LoadState:    res.State,
			RowsLoaded:   res.Load.RowsCommitted,
			TotalRows:    md.TotalRows,
			TotalColumns: md.TotalColumns,
		}, md)
		return rec, classifyStoreError("saving catalog record", err)
	})
	if err != nil {
		return res, err
	}
	res.Record = &rec
	log.Info("upload complete",
		zap.Int("rows", res.Load.RowsCommitted),
		zap.Int("columns", md.TotalColumns),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (s *Service) ping(ctx context.Context) error {
	_, err := withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (struct{}, error) {
		if err := s.db.Ping(ctx); err != nil {
			if ctx.Err() != nil {
				return struct{}{}, classifyStoreError("pinging destination", err)
			}
			return struct{}{}, &ErrDatabaseConnection{Msg: "pinging destination", Err: err}
		}
		return struct{}{}, nil
	})
	return err
}

// Describe returns the stored metadata of table.
func (s *Service) Describe(ctx context.Context, table string) (*metadata.TableMetadata, error) {
	return withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (*metadata.TableMetadata, error) {
		md, err := s.catalog.GetTableMetadata(ctx, table)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return md, classifyStoreError("reading metadata", err)
	})
}

// Column returns the stored metadata of one column of table.
func (s *Service) Column(ctx context.Context, table, column string) (*inference.ColumnMetadata, error) {
	return withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (*inference.ColumnMetadata, error) {
		col, err := s.catalog.GetColumn(ctx, table, column)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return col, classifyStoreError("reading column metadata", err)
	})
}

// List returns every recorded upload.
func (s *Service) List(ctx context.Context) ([]catalog.UploadRecord, error) {
	return withRetry(ctx, s.logger, s.retry, func(ctx context.Context) ([]catalog.UploadRecord, error) {
		recs, err := s.catalog.ListUploads(ctx)
		return recs, classifyStoreError("listing uploads", err)
	})
}

// Unrecorded returns the destination tables that have no catalog record,
// such as tables left behind by a failed load.
func (s *Service) Unrecorded(ctx context.Context) ([]string, error) {
	tables, err := s.destinationTables(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	recorded := make(map[string]bool, len(recs))
	for _, r := range recs {
		recorded[r.TableName] = true
	}
	var out []string
	for _, t := range tables {
		if !recorded[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Locate reports whether table has a catalog record. A table that exists
// only in the destination is found unrecorded; a table in neither place
// returns catalog.ErrNotFound.
func (s *Service) Locate(ctx context.Context, table string) (recorded bool, err error) {
	_, err = withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (catalog.UploadRecord, error) {
		rec, err := s.catalog.GetUpload(ctx, table)
		if errors.Is(err, catalog.ErrNotFound) {
			return rec, err
		}
		return rec, classifyStoreError("reading upload", err)
	})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return false, err
	}

	tables, lerr := s.destinationTables(ctx)
	if lerr != nil {
		return false, lerr
	}
	for _, t := range tables {
		if t == table {
			return false, nil
		}
	}
	return false, err
}

func (s *Service) destinationTables(ctx context.Context) ([]string, error) {
	return withRetry(ctx, s.logger, s.retry, func(ctx context.Context) ([]string, error) {
		tables, err := s.db.ListTables(ctx)
		return tables, classifyStoreError("listing destination tables", err)
	})
}

// Delete drops table from the destination and forgets its metadata. Tables
// without a catalog record are dropped too.
func (s *Service) Delete(ctx context.Context, table string) error {
	unlock := s.locks.Lock(table)
	defer unlock()

	recorded, err := s.Locate(ctx, table)
	if err != nil {
		return err
	}
	if err := s.db.DropTable(ctx, table); err != nil {
		return classifyStoreError("dropping table", err)
	}
	if recorded {
		if err := s.catalog.DeleteUpload(ctx, table); err != nil {
			return classifyStoreError("deleting catalog record", err)
		}
	}
	s.logger.Info("table deleted", zap.String("table", table), zap.Bool("recorded", recorded))
	return nil
}
