package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore хранит свойства во встроенной SQLite (без CGO)
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore открывает файл базы, создавая каталог и таблицу
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS world_properties (
			prop_key   TEXT PRIMARY KEY,
			prop_value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
	}

	return &SQLiteStore{sqlStore{
		db: db,
		upsert: `INSERT INTO world_properties (prop_key, prop_value) VALUES (?, ?)
			ON CONFLICT(prop_key) DO UPDATE SET prop_value = excluded.prop_value, updated_at = CURRENT_TIMESTAMP`,
	}}, nil
}
