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
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "TCE"

// SupportedDialects lists the destination stores a table can be loaded into.
var SupportedDialects = []string{
	"duckdb", "sqlite",
	"postgres", "cloudsqlpostgres",
	"mysql", "cloudsqlmysql",
	"sqlserver", "cloudsqlsqlserver",
}

// Config holds all configuration for the application
type Config struct {
	Database     DatabaseConfig  `mapstructure:"database"`
	Inference    InferenceConfig `mapstructure:"inference"`
	Catalog      CatalogConfig   `mapstructure:"catalog"`
	Server       ServerConfig    `mapstructure:"server"`
	GeminiAPIKey string          `mapstructure:"gemini_api_key"`
	GeminiModel  string          `mapstructure:"gemini_model"`
	LogLevel     string          `mapstructure:"log_level"`
}

// DatabaseConfig holds the destination store connection configuration
type DatabaseConfig struct {
	Dialect string `mapstructure:"dialect"`
	// DSN is used as-is by the duckdb and sqlite dialects. Empty means in-memory.
	DSN                            string `mapstructure:"dsn"`
	Host                           string `mapstructure:"host"`
	Port                           int    `mapstructure:"port"`
	User                           string `mapstructure:"user"`
	Password                       string `mapstructure:"password"`
	DBName                         string `mapstructure:"name"`
	SSLMode                        string `mapstructure:"sslmode"`
	CloudSQLInstanceConnectionName string `mapstructure:"cloudsql_instance"`
	UsePrivateIP                   bool   `mapstructure:"cloudsql_private_ip"`
}

// InferenceConfig tunes sampling, loading and metadata synthesis.
type InferenceConfig struct {
	SampleSize      int               `mapstructure:"sample_size"`
	BatchSize       int               `mapstructure:"batch_size"`
	Workers         int               `mapstructure:"workers"`
	MetadataVersion string            `mapstructure:"metadata_version"`
	Annotations     map[string]string `mapstructure:"annotations"`
}

// CatalogConfig locates the metadata catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dialect: "duckdb",
			SSLMode: "disable",
		},
		Inference: InferenceConfig{
			SampleSize:      1000,
			BatchSize:       1000,
			Workers:         runtime.NumCPU(),
			MetadataVersion: "2.0",
		},
		Catalog: CatalogConfig{Path: "table_context.sqlite"},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 64 << 20,
			AllowedOrigins: []string{"*"},
		},
		GeminiModel: "gemini-1.5-flash-latest",
		LogLevel:    "info",
	}
}

// SetDefaults registers every default on v so env and file keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.dialect", d.Database.Dialect)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.cloudsql_instance", d.Database.CloudSQLInstanceConnectionName)
	v.SetDefault("database.cloudsql_private_ip", d.Database.UsePrivateIP)
	v.SetDefault("inference.sample_size", d.Inference.SampleSize)
	v.SetDefault("inference.batch_size", d.Inference.BatchSize)
	v.SetDefault("inference.workers", d.Inference.Workers)
	v.SetDefault("inference.metadata_version", d.Inference.MetadataVersion)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("gemini_api_key", d.GeminiAPIKey)
	v.SetDefault("gemini_model", d.GeminiModel)
	v.SetDefault("log_level", d.LogLevel)
}

// Load resolves configuration from defaults, an optional file, the
// environment and any flags already bound to v, in increasing precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if !slices.Contains(SupportedDialects, c.Database.Dialect) {
		return fmt.Errorf("unsupported dialect: %s (only %s are supported)", c.Database.Dialect, strings.Join(SupportedDialects, ", "))
	}
	if c.Inference.SampleSize <= 0 {
		return fmt.Errorf("inference.sample_size must be positive, got %d", c.Inference.SampleSize)
	}
	if c.Inference.BatchSize <= 0 {
		return fmt.Errorf("inference.batch_size must be positive, got %d", c.Inference.BatchSize)
	}
	if c.Inference.Workers <= 0 {
		c.Inference.Workers = runtime.NumCPU()
	}
	if c.Inference.MetadataVersion == "" {
		c.Inference.MetadataVersion = Default().Inference.MetadataVersion
	}
	if strings.HasPrefix(c.Database.Dialect, "cloudsql") && c.Database.CloudSQLInstanceConnectionName == "" {
		return fmt.Errorf("dialect %s requires database.cloudsql_instance", c.Database.Dialect)
	}
	return nil
}
