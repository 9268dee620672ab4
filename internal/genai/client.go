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
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultModel             = "gemini-1.5-flash-latest"
	DefaultRequestsPerMinute = 60
)

// LLMClient describes uploaded tables and screens their sample values.
type LLMClient interface {
	// DescribeTable returns a short table description grounded in req.Context,
	// or "" when the context says nothing about the table.
	DescribeTable(ctx context.Context, req TableRequest) (string, error)

	// DescribeColumn returns a short column description grounded in req.Context,
	// or "" when the context says nothing about the column.
	DescribeColumn(ctx context.Context, req ColumnRequest) (string, error)

	// GenerateSyntheticExamples returns fake look-alike values when the
	// originals are likely PII, and the originals otherwise.
	GenerateSyntheticExamples(ctx context.Context, columnName, tableName, dataType string, originalExamples []string) (processedExamples []string, wasSynthesized bool, err error)

	// IsAPIKeyValid checks if the configured API key is functional.
	IsAPIKeyValid(ctx context.Context) error

	Close() error
}

// TableRequest is the input of DescribeTable.
type TableRequest struct {
	Table         string
	SchemaSummary string
	Context       string
}

// ColumnRequest is the input of DescribeColumn.
type ColumnRequest struct {
	Table        string
	Column       string
	DataType     string
	SemanticType string
	Categories   []string
	Context      string
}

// Config holds configuration for the GenAI client.
type Config struct {
	APIKey string
	Model  string
	// RequestsPerMinute paces calls to the API. Zero means DefaultRequestsPerMinute.
	RequestsPerMinute int
	Logger            *zap.Logger
}

// geminiClient implements LLMClient using the Google Gemini API.
type geminiClient struct {
	client  *genai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg Config) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cannot create Gemini client: API key is missing")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("genai")

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		logger.Info("gemini model not specified, using default", zap.String("model", cfg.Model))
	}

	return &geminiClient{
		client:  client,
		cfg:     cfg,
		limiter: newLimiter(cfg.RequestsPerMinute),
		logger:  logger,
	}, nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
}

func (c *geminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAPIKeyValid checks if the Gemini API key is valid by listing models.
func (c *geminiClient) IsAPIKeyValid(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("gemini client not initialized (likely missing API key)")
	}

	_, err := c.client.ListModels(ctx).Next()
	if err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == codes.Unauthenticated || st.Code() == codes.PermissionDenied {
				return fmt.Errorf("invalid Gemini API key or insufficient permissions: %w", err)
			}
		}
		return fmt.Errorf("failed to verify Gemini API key by listing models: %w", err)
	}
	return nil
}

// generate sends prompt after waiting for the rate limiter and returns the
// first text part of the answer.
func (c *geminiClient) generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for gemini rate limit: %w", err)
	}

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxTokens)
	model.SetTopP(0.9)
	model.SetTopK(40)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return getFirstTextPart(resp)
}

func (c *geminiClient) describe(ctx context.Context, target, prompt string) (string, error) {
	text, err := c.generate(ctx, prompt, 0.3, 150)
	if err != nil {
		return "", err
	}
	description, found := extractContentBetween(text, "<result>", "</result>")
	if !found {
		c.logger.Warn("no description tags in gemini response", zap.String("target", target))
		return "", nil
	}
	c.logger.Debug("generated description", zap.String("target", target), zap.String("model", c.cfg.Model))
	return description, nil
}

func (c *geminiClient) DescribeTable(ctx context.Context, req TableRequest) (string, error) {
	if strings.TrimSpace(req.Context) == "" {
		return "", nil
	}
	return c.describe(ctx, "table "+req.Table, tablePrompt(req))
}

func (c *geminiClient) DescribeColumn(ctx context.Context, req ColumnRequest) (string, error) {
	if strings.TrimSpace(req.Context) == "" {
		return "", nil
	}
	return c.describe(ctx, fmt.Sprintf("column %s.%s", req.Table, req.Column), columnPrompt(req))
}

// GenerateSyntheticExamples never fails on model errors; the originals are
// returned instead.
func (c *geminiClient) GenerateSyntheticExamples(ctx context.Context, columnName, tableName, dataType string, originalExamples []string) ([]string, bool, error) {
	if c.client == nil {
		return originalExamples, false, fmt.Errorf("gemini client not initialized")
	}
	if len(originalExamples) == 0 {
		return []string{}, false, nil
	}

	text, err := c.generate(ctx, piiPrompt(columnName, tableName, dataType, originalExamples), 0.5, 500)
	if err != nil {
		c.logger.Warn("pii screening failed, keeping original examples",
			zap.String("table", tableName),
			zap.String("column", columnName),
			zap.Error(err))
		return originalExamples, false, nil
	}

	if synthetic, ok := extractContentBetween(text, "<synthetic_examples>", "</synthetic_examples>"); ok {
		if examples := parseCommaSeparated(synthetic); len(examples) > 0 {
			c.logger.Info("replaced likely PII examples with synthetic values",
				zap.String("table", tableName),
				zap.String("column", columnName),
				zap.Int("examples", len(examples)))
			return examples, true, nil
		}
	}
	return originalExamples, false, nil
}
