// Package db holds the DuckDB connection used for export history and ad hoc
// queries.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration. An empty DataDir opens an in-memory
// database.
type Config struct {
	DataDir string
	DBName  string
}

// Get returns the singleton DuckDB connection.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = Open(cfg)
	})
	return instance, initErr
}

// connOptions keeps queries away from files and URLs outside the database.
const connOptions = "?enable_external_access=false"

// Open opens a new connection. Most callers want Get.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.DataDir == "" {
		return sql.Open("duckdb", connOptions)
	}

	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}
	name := cfg.DBName
	if name == "" {
		name = "style"
	}
	conn, err := sql.Open("duckdb", filepath.Join(duckdbDir, name+".duckdb")+connOptions)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	return conn, nil
}

// Close closes the singleton connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
