// Package database provides the sqlite-backed persistence layer: the like
// store and conversation transcripts. The event catalog itself is never
// persisted here; it lives as an in-memory snapshot in the catalog service.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds database configuration.
type Config struct {
	DatabasePath string
}

// DB wraps the sqlite connection and owns schema migrations.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the sqlite database and brings the
// schema up to date.
func NewDB(cfg Config) (*DB, error) {
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path not provided")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: cfg.DatabasePath}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate applies pending goose migrations from the embedded FS.
func (d *DB) migrate() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(d.conn, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Printf("[database] schema up to date at %s", d.path)
	return nil
}

// Connection exposes the underlying *sql.DB for repositories.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
