package index

import (
	"database/sql"
	"fmt"

	"github.com/clipharbor/hub/shared/models"
)

// AddEntry stores msg in the index, unless a document with the same id
// already exists, in which case it is dropped silently. The document row
// and its n-gram postings are written in a single transaction: one INSERT
// plus its postings.
func (e *Engine) AddEntry(msg models.ClipboardMessage) error {
	if msg.Entry.ID == "" {
		return fmt.Errorf("index: entry missing id")
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM documents WHERE id = ?`, msg.Entry.ID).Scan(&exists)
	if err == nil {
		// Already indexed; drop silently per the dedup invariant.
		return tx.Commit()
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("index: check existing: %w", err)
	}

	variant := "text"
	content := msg.Entry.Text
	url := ""
	if msg.Entry.IsImage() {
		variant = "url"
		content = ""
		url = msg.Entry.ImageURL
	}

	_, err = tx.Exec(
		`INSERT INTO documents (id, source, variant, content, url, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.Entry.ID, msg.Entry.Source, variant, content, url, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("index: insert document: %w", err)
	}

	if variant == "text" {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO postings (gram, doc_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare postings: %w", err)
		}
		defer stmt.Close()
		for _, g := range ngrams(content) {
			if _, err := stmt.Exec(g, msg.Entry.ID); err != nil {
				return fmt.Errorf("index: insert posting: %w", err)
			}
		}
	}

	return tx.Commit()
}
