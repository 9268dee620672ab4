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
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/catalog"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/ingest"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/logging"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/metadata"
)

// TableService is the ingest surface served over HTTP.
type TableService interface {
	Upload(ctx context.Context, req ingest.UploadRequest) (*ingest.UploadResult, error)
	Describe(ctx context.Context, table string) (*metadata.TableMetadata, error)
	Column(ctx context.Context, table, column string) (*inference.ColumnMetadata, error)
	List(ctx context.Context) ([]catalog.UploadRecord, error)
	Unrecorded(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, table string) error
}

// Options configures the router.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 32 << 20

type handler struct {
	svc    TableService
	opts   Options
	logger *zap.Logger
}

// NewRouter mounts the upload and metadata routes.
func NewRouter(svc TableService, opts Options, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	h := &handler{svc: svc, opts: opts, logger: logger.Named("http")}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/uploads", h.upload)
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.listTables)
		r.Get("/unrecorded", h.unrecordedTables)
		r.Get("/{name}/metadata", h.tableMetadata)
		r.Get("/{name}/columns/{column}", h.columnMetadata)
		r.Delete("/{name}", h.deleteTable)
	})
	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", chimw.GetReqID(r.Context())))
	})
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form field 'file'")
		return
	}
	defer file.Close()

	dryRun := false
	if v := r.FormValue("dry_run"); v != "" {
		dryRun, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dry_run value: "+v)
			return
		}
	}

	res, err := h.svc.Upload(r.Context(), ingest.UploadRequest{
		Filename:    header.Filename,
		Reader:      file,
		TablePrefix: r.FormValue("table_prefix"),
		DryRun:      dryRun,
		Context:     r.FormValue("context"),
	})
	if err != nil {
		h.logger.Warn("upload failed", zap.String("file", header.Filename), zap.Error(err))
		body := map[string]any{"error": err.Error()}
		if res != nil {
			body["table"] = res.Table
			body["load_state"] = res.State
		}
		writeJSON(w, statusFor(err), body)
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *handler) listTables(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if recs == nil {
		recs = []catalog.UploadRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// unrecordedTables lists destination tables without metadata, such as those
// left by failed loads. They can be dropped with DELETE /tables/{name}.
func (h *handler) unrecordedTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.Unrecorded(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": tables})
}

func (h *handler) tableMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := h.svc.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (h *handler) columnMetadata(w http.ResponseWriter, r *http.Request) {
	col, err := h.svc.Column(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "column"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (h *handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	var (
		invalid   *ingest.ErrInvalidInput
		conn      *ingest.ErrDatabaseConnection
		timeout   *ingest.ErrTimeout
		cancelled *ingest.ErrCancelled
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &conn):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeout), errors.As(err, &cancelled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
