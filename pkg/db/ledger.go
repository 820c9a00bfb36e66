package db

import (
	"database/sql"
	"fmt"
	"os"
	"path"

	"github.com/yumyai/unirefcmp/internal/util"
	"github.com/yumyai/unirefcmp/logger"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Open opens (creating if needed) the job ledger at dir/jobs.db.
func Open(dir string) (*sql.DB, error) {
	if !util.DirExists(dir) {
		logger.Info("Creating job ledger directory", zap.String("dir", dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := path.Join(dir, "jobs.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory ledger. The CLI uses it when no data
// directory is configured.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a different database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS download_jobs (
		  id          TEXT PRIMARY KEY,
		  url         TEXT NOT NULL,
		  destination TEXT NOT NULL,
		  status      TEXT NOT NULL,
		  bytes       INTEGER NOT NULL DEFAULT 0,
		  error       TEXT NOT NULL DEFAULT '',
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_download_jobs_created
		ON download_jobs(created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
