// Package index implements the hub's index/query engine: an inverted
// n-gram index over clipboard text, composite Boolean queries, pagination,
// and device-list extraction.
//
// WHY built on database/sql + mattn/go-sqlite3 rather than a full-text
// search library: no dedicated search engine library is available to this
// project, so a plain SQLite database serves as the index, with a
// documents table plus an n-gram postings
// table, WAL mode, and eager table creation at open time. Fuzzy matching
// and relevance scoring, which SQL cannot express natively, are evaluated
// in Go over SQL-narrowed candidate sets.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Engine is the hub's on-disk (or in-memory) inverted index. It is safe
// for concurrent use: SQLite's WAL mode allows concurrent readers while a
// writer commits, and every write path below runs inside a short
// transaction.
type Engine struct {
	db *sql.DB
}

// Open creates or opens the index at path. An empty path selects a
// shared in-memory database, for when no index path is configured.
func Open(path string) (*Engine, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	if path == "" {
		// WHY cache=shared: a bare ":memory:" DSN gives every pooled
		// connection its own private database; cache=shared lets all of
		// this process's connections see the same in-memory index.
		dsn = "file::memory:?cache=shared&mode=memory"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if path == "" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to index: %w", err)
	}
	e := &Engine{db: db}
	if err := e.createTables(); err != nil {
		return nil, fmt.Errorf("create index tables: %w", err)
	}
	return e, nil
}

// createTables sets up the schema idempotently, so re-opening an existing
// index file is always safe.
func (e *Engine) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id        TEXT PRIMARY KEY,
			source    TEXT NOT NULL,
			variant   TEXT NOT NULL,
			content   TEXT NOT NULL DEFAULT '',
			url       TEXT NOT NULL DEFAULT '',
			timestamp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_timestamp ON documents(timestamp);`,
		`CREATE TABLE IF NOT EXISTS postings (
			gram   TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			PRIMARY KEY (gram, doc_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_postings_gram ON postings(gram);`,
	}
	for _, stmt := range stmts {
		if _, err := e.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}
