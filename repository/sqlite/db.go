package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newscast/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hash_id TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    source TEXT NOT NULL,
    category TEXT,
    language TEXT NOT NULL DEFAULT 'en',
    summary TEXT,
    content TEXT,
    published_at DATETIME,
    scraped_at DATETIME NOT NULL,
    is_used INTEGER NOT NULL DEFAULT 0,
    used_in_video TEXT
);

CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    title TEXT,
    language TEXT,
    status TEXT NOT NULL,
    duration REAL NOT NULL DEFAULT 0,
    article_count INTEGER NOT NULL DEFAULT 0,
    script_path TEXT,
    audio_path TEXT,
    video_path TEXT,
    thumbnail_path TEXT,
    notes_path TEXT,
    upload_status TEXT NOT NULL DEFAULT 'pending',
    youtube_id TEXT,
    youtube_url TEXT,
    error TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    uploaded_at DATETIME
);

CREATE TABLE IF NOT EXISTS scrape_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    articles_found INTEGER NOT NULL DEFAULT 0,
    articles_new INTEGER NOT NULL DEFAULT 0,
    articles_duplicate INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    errors TEXT,
    started_at DATETIME NOT NULL,
    completed_at DATETIME
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_articles_hash ON articles(hash_id);
CREATE INDEX IF NOT EXISTS idx_articles_unused ON articles(is_used, language, scraped_at);
CREATE INDEX IF NOT EXISTS idx_videos_upload_status ON videos(upload_status);
`

// InitDB opens the SQLite database, applies pragmas and the schema.
func InitDB(dbPath string) (*sql.DB, error) {
	const op = "sqlite.InitDB"

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Internal(op, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to open database")
	}

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func configurePragmas(db *sql.DB) error {
	const op = "sqlite.configurePragmas"

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}

	return nil
}

func execSchema(db *sql.DB) error {
	const op = "sqlite.execSchema"

	tx, err := db.Begin()
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to execute schema statement: %s", stmt))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit schema transaction")
	}

	return nil
}

// retryOnLock retries fn a few times when SQLite reports a locked or
// busy database, which can happen when the scheduler and a --run-now
// invocation race on the same file.
func retryOnLock(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Internal(op, err, "context cancelled")
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isLockError(lastErr) {
			return lastErr
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, lastErr, "failed after retries")
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
