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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
	_ "github.com/GoogleCloudPlatform/table-context-enrichment/internal/database/duckdb"
	_ "github.com/GoogleCloudPlatform/table-context-enrichment/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/table-context-enrichment/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/table-context-enrichment/internal/database/sqlite"
	_ "github.com/GoogleCloudPlatform/table-context-enrichment/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/logging"
)

var (
	dryRun   bool
	cfgFile  string
	envFile  string
	jsonLogs bool

	v         = viper.New()
	appConfig = config.Default()
	logger    = zap.NewNop()
)

// flagKeys binds persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"dialect":                           "database.dialect",
	"dsn":                               "database.dsn",
	"host":                              "database.host",
	"port":                              "database.port",
	"username":                          "database.user",
	"password":                          "database.password",
	"database":                          "database.name",
	"sslmode":                           "database.sslmode",
	"cloudsql-instance-connection-name": "database.cloudsql_instance",
	"cloudsql-use-private-ip":           "database.cloudsql_private_ip",
	"catalog":                           "catalog.path",
	"sample-size":                       "inference.sample_size",
	"batch-size":                        "inference.batch_size",
	"workers":                           "inference.workers",
	"gemini-api-key":                    "gemini_api_key",
	"gemini-model":                      "gemini_model",
	"log-level":                         "log_level",
}

var rootCmd = &cobra.Command{
	Use:   "table_context_enricher",
	Short: "A tool to infer schemas and NL2SQL context for uploaded tables",
	Long: `table_context_enricher is a CLI tool that reads CSV and XLSX files, infers
column types and statistics, loads the rows into a SQL store and records
metadata an NL2SQL engine can ground its queries in.`,
	PersistentPreRunE: initFlagsAndConfig,
	SilenceUsage:      true,
}

// initFlagsAndConfig resolves configuration from flags, environment and file,
// then builds the logger.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := logging.New(cfg.LogLevel, jsonLogs)
	if err != nil {
		return err
	}
	logger = l
	zap.ReplaceGlobals(logger)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()

	// Global persistent flags
	pf.BoolVar(&dryRun, "dry-run", true, "Enable dry-run mode (no destination or catalog modifications)")
	pf.StringVar(&cfgFile, "config", "", "Path to a config file (yaml, json or toml)")
	pf.StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before configuration")
	pf.BoolVar(&jsonLogs, "json-logs", false, "Emit JSON logs instead of console logs")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")

	// Destination connection flags
	pf.String("dialect", "", fmt.Sprintf("Destination dialect (%s)", strings.Join(config.SupportedDialects, ", ")))
	pf.String("dsn", "", "Connection string; for duckdb and sqlite a file path, empty for in-memory")
	pf.String("host", "", "Database host")
	pf.Int("port", 0, "Database port")
	pf.String("username", "", "Database username")
	pf.String("password", "", "Database password")
	pf.String("database", "", "Database name")
	pf.String("sslmode", "", "PostgreSQL sslmode")
	pf.String("cloudsql-instance-connection-name", "", "Cloud SQL instance connection name - MANDATORY for CloudSQL")
	pf.Bool("cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Catalog and inference flags
	pf.String("catalog", "", "Path to the metadata catalog SQLite file")
	pf.Int("sample-size", 0, "Maximum non-empty values sampled per column")
	pf.Int("batch-size", 0, "Rows inserted per transaction")
	pf.Int("workers", 0, "Columns inferred concurrently (defaults to the number of CPUs)")

	// Gemini flags
	pf.String("gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")
	pf.String("gemini-model", "", "Gemini model used for descriptions")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}

	// Add subcommands
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(getMetadataCmd)
	rootCmd.AddCommand(listTablesCmd)
	rootCmd.AddCommand(deleteTableCmd)
	rootCmd.AddCommand(serveCmd)
}
