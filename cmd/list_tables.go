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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List uploaded tables and destination tables missing from the catalog",
	RunE:  runListTables,
}

func runListTables(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := setupService(ctx, serviceOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	unrecorded, err := svc.Unrecorded(ctx)
	if err != nil {
		return fmt.Errorf("failed to list destination tables: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tFILE\tSTATE\tROWS\tCOLUMNS\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			r.TableName, r.Filename, r.LoadState, r.RowsLoaded, r.TotalRows, r.TotalColumns,
			r.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	for _, name := range unrecorded {
		fmt.Fprintf(tw, "%s\t-\tunrecorded\t-\t-\t-\n", name)
	}
	return tw.Flush()
}
