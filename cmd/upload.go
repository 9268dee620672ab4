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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/ingest"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/materializer"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/utils"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:     "upload <file>",
	Short:   "Infer the schema and context of a CSV or XLSX file and load it",
	Long:    `Reads the file, infers column types, statistics and NL2SQL hints, loads the rows into the destination and records the metadata in the catalog. The metadata is also written to a JSON file for review.`,
	Example: `./table_context_enricher upload ./sales.csv --dialect postgres --host localhost --port 5432 --username user --password pass --database analytics --table-prefix s1 --annotations "P=Pending,A=Active" --context ./sales_notes.md --dry-run=false`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	annotations, err := utils.ParseAnnotationsFlag(cmd.Flag("annotations").Value.String())
	if err != nil {
		return err
	}
	knowledge, err := utils.ReadContextFiles(cmd.Flag("context").Value.String())
	if err != nil {
		return fmt.Errorf("failed to read context files: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	logger.Info("starting upload",
		zap.String("file", path),
		zap.String("dialect", appConfig.Database.Dialect),
		zap.Bool("dry_run", dryRun))

	svc, cleanup, err := setupService(ctx, serviceOptions{annotations: annotations, requireLLM: knowledge != ""})
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Upload(ctx, ingest.UploadRequest{
		Filename:    filepath.Base(path),
		Reader:      f,
		TablePrefix: cmd.Flag("table-prefix").Value.String(),
		DryRun:      dryRun,
		Context:     knowledge,
	})
	if err != nil {
		if res != nil {
			logger.Error("upload failed",
				zap.String("table", res.Table),
				zap.String("load_state", res.State),
				zap.Int("rows_committed", res.Load.RowsCommitted))
		}
		if errors.Is(err, materializer.ErrTypeMismatch) {
			return fmt.Errorf("upload of %s failed: %w (column types are inferred from a sample of %d rows; re-run with a larger --sample-size)",
				path, err, appConfig.Inference.SampleSize)
		}
		return fmt.Errorf("upload of %s failed: %w", path, err)
	}
	for _, w := range res.Warnings {
		logger.Warn("enrichment warning", zap.String("detail", w))
	}

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(res.Table, "upload")
	}
	if err := utils.WriteJSONFile(outputFile, res.Metadata); err != nil {
		return err
	}
	logger.Info("metadata written", zap.String("path", outputFile))

	if dryRun {
		logger.Info("upload completed in dry-run mode, no changes were made to the database")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rows into %s (%s)\n", res.Load.RowsCommitted, res.Table, res.State)
	return nil
}

func init() {
	var outputFile string
	var tablePrefix string
	var annotations string
	var contextFiles string

	// Flags for upload command
	uploadCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path to write the inferred metadata JSON to (defaults to <table>_context.json)")
	uploadCmd.Flags().StringVar(&tablePrefix, "table-prefix", "", "Prefix joined to the table name derived from the file name")
	uploadCmd.Flags().StringVar(&annotations, "annotations", "", "Comma-separated short code hints (e.g., 'P=Pending,A=[Active, billed]')")
	uploadCmd.Flags().StringVar(&contextFiles, "context", "", "Comma-separated list of context files used for LLM descriptions")
}
