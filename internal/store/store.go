// Package store persists rules and retained entries in a local SQLite
// database. It is the pipeline's persistence collaborator: the pipeline hands
// it finished rules and scored entries and asks it for the previously stored
// rule set to detect drift.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ycwei/newsift/internal/rules"
)

type Store struct {
	db *sql.DB
}

// Entry is a stored entry row.
type Entry struct {
	Link        string
	Title       string
	Description string
	Source      string
	Tags        []string
	Scores      map[string]int
	TotalScore  int
	PublishedAt time.Time
	FetchedAt   time.Time
	RunID       string
}

// EntryInput is the payload for SaveEntry.
type EntryInput struct {
	Link        string
	Title       string
	Description string
	Source      string
	Tags        []string
	Scores      map[string]int
	TotalScore  int
	PublishedAt time.Time
	FetchedAt   time.Time
	RunID       string
}

// Stats summarizes the stored data for reporting.
type Stats struct {
	Entries   int
	Target    int
	BySource  map[string]int
	LastFetch time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReplaceRules swaps the stored rule set for the given one atomically.
func (s *Store) ReplaceRules(ctx context.Context, rs []rules.Rule) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rules"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear rules: %w", err)
	}

	now := formatTime(time.Now())
	for _, r := range rs {
		include, exclude, tags, err := encodeRuleSets(r)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rules (name, include, exclude, tags, fingerprint, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Name, include, exclude, tags, r.Fingerprint(), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert rule %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rules: %w", err)
	}
	return nil
}

// LoadRules returns the currently stored rule set.
func (s *Store) LoadRules(ctx context.Context) ([]rules.Rule, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, include, exclude, tags FROM rules ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rs []rules.Rule
	for rows.Next() {
		var r rules.Rule
		var include, exclude, tags string
		if err := rows.Scan(&r.Name, &include, &exclude, &tags); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(include), &r.Include); err != nil {
			return nil, fmt.Errorf("decode include for %q: %w", r.Name, err)
		}
		if err := json.Unmarshal([]byte(exclude), &r.Exclude); err != nil {
			return nil, fmt.Errorf("decode exclude for %q: %w", r.Name, err)
		}
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %q: %w", r.Name, err)
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return rs, nil
}

// SaveEntry upserts one entry, keyed by its link.
func (s *Store) SaveEntry(ctx context.Context, in EntryInput) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(in.Link) == "" {
		return errors.New("link is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(in.Source) == "" {
		return errors.New("source is required")
	}
	if in.FetchedAt.IsZero() {
		return errors.New("fetched_at is required")
	}

	tagsJSON, scoresJSON, err := encodeEntrySets(in.Tags, in.Scores)
	if err != nil {
		return err
	}

	var descVal sql.NullString
	if in.Description != "" {
		descVal = sql.NullString{String: in.Description, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (
			link, title, description, source, tags, scores, total_score, published_at, fetched_at, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			source = excluded.source,
			tags = excluded.tags,
			scores = excluded.scores,
			total_score = excluded.total_score,
			published_at = excluded.published_at,
			fetched_at = excluded.fetched_at,
			run_id = excluded.run_id
	`,
		in.Link,
		in.Title,
		descVal,
		in.Source,
		tagsJSON,
		scoresJSON,
		in.TotalScore,
		formatTime(in.PublishedAt),
		formatTime(in.FetchedAt),
		in.RunID,
	)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}

	return nil
}

// GetEntries returns stored entries published at or after since, newest
// first. With onlyTarget set, entries with a non-positive total score are
// filtered out.
func (s *Store) GetEntries(ctx context.Context, since time.Time, onlyTarget bool) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := `
		SELECT link, title, description, source, tags, scores, total_score, published_at, fetched_at, run_id
		FROM entries
		WHERE published_at >= ?`
	args := []any{formatTime(since)}
	if onlyTarget {
		query += " AND total_score > 0"
	}
	query += " ORDER BY published_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// UpdateEntryScores rewrites one entry's scoring state. Used by rescoring
// after a rule-set change.
func (s *Store) UpdateEntryScores(ctx context.Context, link string, scores map[string]int, tags []string, totalScore int) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(link) == "" {
		return errors.New("link is required")
	}

	tagsJSON, scoresJSON, err := encodeEntrySets(tags, scores)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET scores = ?, tags = ?, total_score = ? WHERE link = ?
	`, scoresJSON, tagsJSON, totalScore, link)
	if err != nil {
		return fmt.Errorf("update entry scores: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %q not found", link)
	}

	return nil
}

// GetStats aggregates counts for the stats command.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st := Stats{BySource: make(map[string]int)}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN total_score > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(MAX(fetched_at), '')
		FROM entries
	`)
	var lastFetch string
	if err := row.Scan(&st.Entries, &st.Target, &lastFetch); err != nil {
		return Stats{}, fmt.Errorf("entry counts: %w", err)
	}
	if lastFetch != "" {
		t, err := time.Parse(time.RFC3339, lastFetch)
		if err != nil {
			return Stats{}, fmt.Errorf("parse last fetch time: %w", err)
		}
		st.LastFetch = t
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM entries GROUP BY source")
	if err != nil {
		return Stats{}, fmt.Errorf("source counts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return Stats{}, fmt.Errorf("scan source count: %w", err)
		}
		st.BySource[src] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate source counts: %w", err)
	}

	return st, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                      Entry
		descVal                sql.NullString
		tags, scores           string
		publishedAt, fetchedAt string
	)
	if err := rows.Scan(&e.Link, &e.Title, &descVal, &e.Source, &tags, &scores,
		&e.TotalScore, &publishedAt, &fetchedAt, &e.RunID); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Description = descVal.String

	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return Entry{}, fmt.Errorf("decode tags for %q: %w", e.Link, err)
	}
	if err := json.Unmarshal([]byte(scores), &e.Scores); err != nil {
		return Entry{}, fmt.Errorf("decode scores for %q: %w", e.Link, err)
	}

	var err error
	if e.PublishedAt, err = time.Parse(time.RFC3339, publishedAt); err != nil {
		return Entry{}, fmt.Errorf("parse published_at for %q: %w", e.Link, err)
	}
	if e.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt); err != nil {
		return Entry{}, fmt.Errorf("parse fetched_at for %q: %w", e.Link, err)
	}

	return e, nil
}

func encodeRuleSets(r rules.Rule) (include, exclude, tags string, err error) {
	parts := make([]string, 3)
	for i, set := range [][]string{r.Include, r.Exclude, r.Tags} {
		if set == nil {
			set = []string{}
		}
		b, err := json.Marshal(set)
		if err != nil {
			return "", "", "", fmt.Errorf("encode rule %q: %w", r.Name, err)
		}
		parts[i] = string(b)
	}
	return parts[0], parts[1], parts[2], nil
}

func encodeEntrySets(tags []string, scores map[string]int) (tagsJSON, scoresJSON string, err error) {
	if tags == nil {
		tags = []string{}
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	if scores == nil {
		scores = map[string]int{}
	}
	sb, err := json.Marshal(scores)
	if err != nil {
		return "", "", fmt.Errorf("encode scores: %w", err)
	}
	return string(tb), string(sb), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
