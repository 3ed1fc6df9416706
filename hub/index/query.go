package index

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clipharbor/hub/shared/models"
)

type row struct {
	id        string
	source    string
	variant   string
	content   string
	url       string
	timestamp int64
}

func (r row) toMessage() models.ClipboardMessage {
	rec := models.ClipboardRecord{ID: r.id, Source: r.source}
	if r.variant == "url" {
		rec.ImageURL = r.url
	} else {
		rec.Text = r.content
	}
	return models.ClipboardMessage{Entry: rec, Timestamp: r.timestamp}
}

// GetEntryByID is a single-term lookup used by the uploader to detect
// pre-existing blobs and, more generally, by anything that needs to
// resolve a digest back to its indexed record.
func (e *Engine) GetEntryByID(id string) (*models.ClipboardMessage, error) {
	r, err := e.scanOne(`SELECT id, source, variant, content, url, timestamp FROM documents WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	msg := r.toMessage()
	return &msg, nil
}

func (e *Engine) scanOne(query string, args ...any) (row, error) {
	var r row
	err := e.db.QueryRow(query, args...).Scan(&r.id, &r.source, &r.variant, &r.content, &r.url, &r.timestamp)
	return r, err
}

// RecentSources scans the limit most-recently-timestamped documents and
// returns their distinct source values, used to seed everSeen at startup.
// A device that hasn't appeared recently can be absent from the seeded
// set until it reconnects; see DESIGN.md for why this tradeoff is kept.
func (e *Engine) RecentSources(limit int) ([]string, error) {
	rows, err := e.db.Query(
		`SELECT DISTINCT source FROM (
			SELECT source FROM documents ORDER BY timestamp DESC LIMIT ?
		)`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent sources: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scored struct {
	msg   models.ClipboardMessage
	score float64
}

// candidateIDs returns the set of document ids that share at least one
// n-gram with every word in words, via the postings table. A document
// containing a word of two or more runes verbatim always shares its grams.
// A document within edit distance 1 of a word of four or more runes also
// shares at least one 2-gram with it (a single edit breaks at most two of
// the word's 2-grams), so for such words this is a safe superset for the
// Go-side fuzzy pass to narrow down from. For a three-rune word, an
// edit-distance-1 match can share no gram and is then not a candidate. A
// one-rune word is looked up as itself, a gram that only one-rune
// documents are posted under, so longer documents containing it are not
// candidates.
func (e *Engine) candidateIDs(words []string) (map[string]struct{}, error) {
	var result map[string]struct{}
	for _, w := range words {
		grams := ngrams(w)
		if len(grams) == 0 {
			continue
		}
		placeholders := make([]string, len(grams))
		args := make([]any, len(grams))
		for i, g := range grams {
			placeholders[i] = "?"
			args[i] = g
		}
		rows, err := e.db.Query(
			fmt.Sprintf(`SELECT DISTINCT doc_id FROM postings WHERE gram IN (%s)`, strings.Join(placeholders, ",")),
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("index: candidate lookup: %w", err)
		}
		wordIDs := make(map[string]struct{})
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("index: scan candidate: %w", err)
			}
			wordIDs[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("index: iterate candidates: %w", err)
		}
		rows.Close()

		if result == nil {
			result = wordIDs
			continue
		}
		for id := range result {
			if _, ok := wordIDs[id]; !ok {
				delete(result, id)
			}
		}
	}
	return result, nil
}

// Query runs a composite three-clause query: content (n-gram/fuzzy over
// `q`), source (term-set over `from`), and time (half-open range over
// `begin`/`end`). SQL narrows the candidate set on source, timestamp, and
// (when `q` is non-empty) a postings lookup that rules out any document
// sharing no n-gram with the query; content matching and relevance
// scoring are then evaluated in Go over that narrowed set, since SQLite
// has no native fuzzy/edit-distance operator.
func (e *Engine) Query(p models.QueryParams) (models.QueryResult, error) {
	size := p.Size
	if size <= 0 {
		size = 10
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}

	var begin, end int64
	hasRange := p.Begin != nil || p.End != nil
	if p.Begin != nil {
		begin = *p.Begin
	}
	if p.End != nil {
		end = *p.End
	} else {
		end = time.Now().Unix()
	}

	words := queryWords(p.Q)

	var candidates map[string]struct{}
	if len(words) > 0 {
		var err error
		candidates, err = e.candidateIDs(words)
		if err != nil {
			return models.QueryResult{}, err
		}
		if len(candidates) == 0 {
			return models.QueryResult{Total: 0, Skip: skip, Data: []models.ClipboardMessage{}}, nil
		}
	}

	query := `SELECT id, source, variant, content, url, timestamp FROM documents WHERE 1=1`
	var args []any
	if len(p.From) > 0 {
		placeholders := make([]string, len(p.From))
		for i, s := range p.From {
			placeholders[i] = "?"
			args = append(args, s)
		}
		query += fmt.Sprintf(" AND source IN (%s)", strings.Join(placeholders, ","))
	}
	if hasRange {
		query += " AND timestamp >= ? AND timestamp < ?"
		args = append(args, begin, end)
	}
	if candidates != nil {
		ids := make([]string, 0, len(candidates))
		placeholders := make([]string, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
			placeholders = append(placeholders, "?")
		}
		query += fmt.Sprintf(" AND id IN (%s)", strings.Join(placeholders, ","))
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	var matches []scored
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.source, &r.variant, &r.content, &r.url, &r.timestamp); err != nil {
			return models.QueryResult{}, fmt.Errorf("index: scan: %w", err)
		}
		score, ok := contentMatch(r, words)
		if !ok {
			continue
		}
		matches = append(matches, scored{msg: r.toMessage(), score: score})
	}
	if err := rows.Err(); err != nil {
		return models.QueryResult{}, fmt.Errorf("index: iterate: %w", err)
	}

	if p.SortByScore {
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].score != matches[j].score {
				return matches[i].score > matches[j].score
			}
			return matches[i].msg.Timestamp > matches[j].msg.Timestamp
		})
	} else {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].msg.Timestamp > matches[j].msg.Timestamp
		})
	}

	total := len(matches)
	result := models.QueryResult{Total: total, Skip: skip, Data: []models.ClipboardMessage{}}
	if skip < total {
		hi := skip + size
		if hi > total {
			hi = total
		}
		for _, m := range matches[skip:hi] {
			result.Data = append(result.Data, m.msg)
		}
	}
	return result, nil
}

// contentMatch reports whether row r satisfies the conjunctive content
// query made of words (empty words ⇒ match-all), plus a relevance score. Image
// records (variant=="url") have no content field and only ever match an
// empty content query.
func contentMatch(r row, words []string) (float64, bool) {
	if len(words) == 0 {
		return 1, true
	}
	if r.variant != "text" {
		return 0, false
	}
	content := strings.ToLower(r.content)
	var score float64
	for _, w := range words {
		hit, exact := fuzzyContains(content, w)
		if !hit {
			return 0, false
		}
		if exact {
			score += 1.0
		} else {
			score += 0.5
		}
	}
	return score, true
}
