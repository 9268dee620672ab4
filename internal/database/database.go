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
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/table-context-enrichment/internal/config"
)

// DBAdapter defines the destination store operations needed outside the load path.
type DBAdapter interface {
	ListTables(ctx context.Context) ([]string, error)
	CountRows(ctx context.Context, tableName string) (int64, error)
	DropTable(ctx context.Context, tableName string) error
	ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error
	Ping(ctx context.Context) error
	Close() error
	GetConfig() config.DatabaseConfig
}

var _ DBAdapter = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
	Logger  *zap.Logger
}

// DialectHandler hides the per-store differences: connection setup,
// identifier quoting, bind parameters and column types.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	// ColumnType maps a planned storage type to the store's column type.
	ColumnType(storageType string) string
	ListTables(ctx context.Context, db *DB) ([]string, error)
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		zap.L().Warn("dialect handler is being overwritten", zap.String("dialect", dialect))
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// New opens and pings a pool for cfg.Dialect.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
		Logger:  logger.Named("database").With(zap.String("dialect", cfg.Dialect)),
	}, nil
}

func (db *DB) logger() *zap.Logger {
	if db.Logger == nil {
		return zap.NewNop()
	}
	return db.Logger
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	db.logger().Warn("attempted to close a nil database connection pool")
	return nil
}

// QuoteIdentifier quotes name for the configured dialect.
func (db *DB) QuoteIdentifier(name string) string {
	return db.Handler.QuoteIdentifier(name)
}

// ColumnType maps a planned storage type for the configured dialect.
func (db *DB) ColumnType(storageType string) string {
	return db.Handler.ColumnType(storageType)
}

// Placeholder renders the n-th bind parameter for the configured dialect.
func (db *DB) Placeholder(n int) string {
	return db.Handler.Placeholder(n)
}

func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListTables(ctx, db)
}

// CountRows returns the number of rows stored in tableName.
func (db *DB) CountRows(ctx context.Context, tableName string) (int64, error) {
	if db.Handler == nil {
		return 0, fmt.Errorf("dialect handler not initialized")
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", db.Handler.QuoteIdentifier(tableName))
	var count int64
	if err := db.Pool.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", tableName, err)
	}
	return count, nil
}

// DropTable drops tableName if it exists.
func (db *DB) DropTable(ctx context.Context, tableName string) error {
	if db.Handler == nil {
		return fmt.Errorf("dialect handler not initialized")
	}
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", db.Handler.QuoteIdentifier(tableName))
	if _, err := db.Pool.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}

func (db *DB) ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if len(sqlStatements) == 0 {
		db.logger().Info("no SQL statements provided to ExecuteSQLStatements")
		return nil
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, trimmedStmt)
		if err != nil {
			db.logger().Error("failed executing statement",
				zap.Int("statement", i+1),
				zap.String("sql", trimmedStmt),
				zap.Error(err))
			return fmt.Errorf("failed executing statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
