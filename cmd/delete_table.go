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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/utils"
)

var deleteTableCmd = &cobra.Command{
	Use:     "delete-table <table>",
	Short:   "Drop an uploaded table and its recorded metadata",
	Example: `./table_context_enricher delete-table s1_sales --dry-run=false`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeleteTable,
}

func runDeleteTable(cmd *cobra.Command, args []string) error {
	table := args[0]
	ctx := cmd.Context()

	svc, cleanup, err := setupService(ctx, serviceOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	recorded, err := svc.Locate(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to find table %s: %w", table, err)
	}
	action := "drop table " + table + " and delete its metadata"
	if !recorded {
		action = "drop unrecorded table " + table
	}

	if dryRun {
		logger.Info("delete-table in dry-run mode, no changes were made to the database", zap.String("table", table))
		return nil
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !utils.ConfirmActionFrom(cmd.InOrStdin(), cmd.OutOrStdout(), action) {
		logger.Info("delete aborted by user", zap.String("table", table))
		return nil
	}

	if err := svc.Delete(ctx, table); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", table, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted table %s\n", table)
	return nil
}

func init() {
	deleteTableCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
