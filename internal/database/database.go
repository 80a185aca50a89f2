package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// schemaVersion is bumped when the table layout changes.
const schemaVersion = 1

// New creates a new SQLite database connection at the given path.
// The parent directory is created if it does not exist.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// _txlock=immediate makes write transactions take the write lock up
	// front instead of on first write, so concurrent writers queue on
	// busy_timeout rather than failing with SQLITE_BUSY mid-transaction.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection keeps
	// database/sql from handing writes to connections that would just block,
	// and guarantees read-your-writes within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ SQLite database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	log.Println("🔍 Checking database schema...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			agent_type TEXT,
			purpose TEXT,
			visit_time TEXT NOT NULL,
			visit_count INTEGER NOT NULL DEFAULT 1,
			CONSTRAINT name_length CHECK(length(name) <= 100),
			CONSTRAINT agent_type_length CHECK(length(agent_type) <= 500),
			CONSTRAINT purpose_length CHECK(length(purpose) <= 500)
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			FOREIGN KEY (visitor_id) REFERENCES visitors(id) ON DELETE CASCADE,
			CONSTRAINT key_length CHECK(length(key) <= 50),
			CONSTRAINT value_length CHECK(length(value) <= 500)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL,
			agent_type TEXT,
			issues TEXT,
			feature_requests TEXT,
			usability_rating INTEGER,
			additional_comments TEXT,
			submission_time TEXT NOT NULL,
			CONSTRAINT agent_name_length CHECK(length(agent_name) <= 100),
			CONSTRAINT rating_range CHECK(usability_rating IS NULL OR (usability_rating >= 1 AND usability_rating <= 5))
		)`,
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_name ON visitors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_visit_time ON visitors(visit_time)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_visitor_id ON answers(visitor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_submission_time ON feedback(submission_time)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := db.recordSchemaVersion(); err != nil {
		return err
	}

	log.Println("✅ Database initialized successfully")
	return nil
}

func (db *DB) recordSchemaVersion() error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}
	return nil
}
