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
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/catalog"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/database"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/genai"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/inference"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/ingest"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/metadata"
)

// serviceOptions carries per-command inputs to setupService.
type serviceOptions struct {
	annotations map[string]string
	requireLLM  bool
}

// newBuilder applies configured and per-command annotations on top of the defaults.
func newBuilder(opts serviceOptions) *inference.Builder {
	b := inference.NewBuilder()
	b.SampleSize = appConfig.Inference.SampleSize
	b.Annotations = b.Annotations.Merge(appConfig.Inference.Annotations).Merge(opts.annotations)
	return b
}

// setupLLM returns nil when no usable API key is configured, unless required.
func setupLLM(ctx context.Context, required bool) (genai.LLMClient, error) {
	if appConfig.GeminiAPIKey == "" {
		if required {
			return nil, fmt.Errorf("context files are provided, but Gemini API key is not configured. Please set the GEMINI_API_KEY environment variable")
		}
		logger.Info("no Gemini API key provided, descriptions and PII screening are skipped")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, genai.Config{
		APIKey: appConfig.GeminiAPIKey,
		Model:  appConfig.GeminiModel,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.IsAPIKeyValid(ctx); err != nil {
		_ = client.Close()
		if required {
			return nil, fmt.Errorf("gemini API key is invalid: %w", err)
		}
		logger.Warn("Gemini API key is invalid, descriptions and PII screening are skipped", zap.Error(err))
		return nil, nil
	}
	return client, nil
}

// setupService opens the destination and the catalog and wires the pipeline.
// The returned func releases every resource.
func setupService(ctx context.Context, opts serviceOptions) (*ingest.Service, func(), error) {
	db, err := database.New(ctx, appConfig.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := catalog.Open(appConfig.Catalog.Path, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	llm, err := setupLLM(ctx, opts.requireLLM)
	if err != nil {
		store.Close()
		db.Close()
		return nil, nil, err
	}

	synth := metadata.NewSynthesizer(newBuilder(opts), metadata.Options{
		Workers: appConfig.Inference.Workers,
		Version: appConfig.Inference.MetadataVersion,
	}, logger)
	svc := ingest.NewService(db, store, synth, ingest.Options{
		BatchSize: appConfig.Inference.BatchSize,
		Retry:     ingest.DefaultRetryOptions,
		LLM:       llm,
	}, logger)

	cleanup := func() {
		if llm != nil {
			_ = llm.Close()
		}
		_ = store.Close()
		_ = db.Close()
	}
	return svc, cleanup, nil
}
