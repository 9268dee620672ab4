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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/utils"
)

var getMetadataCmd = &cobra.Command{
	Use:     "get-metadata <table>",
	Short:   "Print the recorded metadata of an uploaded table",
	Long:    `Reads the metadata of a table from the catalog and prints it as JSON, or writes it to a file.`,
	Example: `./table_context_enricher get-metadata s1_sales --column region --out_file ./s1_sales_region.json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGetMetadata,
}

func runGetMetadata(cmd *cobra.Command, args []string) error {
	table := args[0]
	ctx := cmd.Context()

	svc, cleanup, err := setupService(ctx, serviceOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	var doc any
	if column := cmd.Flag("column").Value.String(); column != "" {
		doc, err = svc.Column(ctx, table, column)
	} else {
		doc, err = svc.Describe(ctx, table)
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve metadata: %w", err)
	}

	if outputFile := cmd.Flag("out_file").Value.String(); outputFile != "" {
		if err := utils.WriteJSONFile(outputFile, doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Metadata written to: %s\n", outputFile)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func init() {
	var outputFile string
	var column string

	// Flags for get-metadata command
	getMetadataCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path to save metadata to (optional, prints to stdout by default)")
	getMetadataCmd.Flags().StringVar(&column, "column", "", "Only return the metadata of this column")
}
