// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notesindex exposes the committed OutputSet to the retrieval
// subsystem: every Raw fragment and attachment record, keyed by its
// ContentId, in a SQLite database with FTS5 search. The index always
// reflects exactly one committed set; re-indexing an unchanged commit
// (same fingerprint) is a no-op, and ids are never reused across commits
// for different content, so downstream invalidation can key on ids.
package notesindex

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/note-engine/internal/split"
	"github.com/pdiddy/note-engine/pkg/types"
)

const dbFile = "notes.db"

// EntryKind distinguishes the two indexed unit kinds.
type EntryKind string

const (
	EntryNote       EntryKind = "note"
	EntryAttachment EntryKind = "attachment"
)

// Entry is one indexed unit: a Raw fragment or an attachment record.
type Entry struct {
	// ID is the unit's ContentId ("NOTE:..." or "TYPE:...").
	ID string `json:"id" yaml:"id"`

	// Kind is note or attachment.
	Kind EntryKind `json:"kind" yaml:"kind"`

	// Origin is the originating note's ContentId for attachments; empty
	// for notes.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`

	// Content is the unit's text.
	Content string `json:"content" yaml:"content"`
}

// Store manages the notes index database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index at cfg.Dir/notes.db.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS commits (
			fingerprint TEXT PRIMARY KEY,
			indexed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			origin TEXT,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='items_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE items_fts USING fts5(content, content=items, content_rowid=rowid)`,
			`CREATE TRIGGER items_ai AFTER INSERT ON items BEGIN
				INSERT INTO items_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER items_ad AFTER DELETE ON items BEGIN
				INSERT INTO items_fts(items_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Notes       int
	Attachments int
	Unchanged   bool
}

// Ingest replaces the index contents with the given committed OutputSet.
// When the set's fingerprint matches the last indexed commit the call is
// a no-op.
func (s *Store) Ingest(ctx context.Context, set types.OutputSet, w io.Writer) (IngestSummary, error) {
	if set.Fingerprint != "" {
		var existing string
		err := s.db.QueryRowContext(ctx,
			`SELECT fingerprint FROM commits WHERE fingerprint = ?`, set.Fingerprint,
		).Scan(&existing)
		if err == nil {
			fmt.Fprintf(w, "index up to date (fingerprint %.12s)\n", set.Fingerprint)
			return IngestSummary{Unchanged: true}, nil
		}
		if err != sql.ErrNoRows {
			return IngestSummary{}, fmt.Errorf("checking commit: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The index mirrors exactly one commit; replace wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return IngestSummary{}, fmt.Errorf("clearing items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM commits`); err != nil {
		return IngestSummary{}, fmt.Errorf("clearing commits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, kind, origin, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary

	for _, sec := range split.ParseSections(set.RawNotes) {
		id, ok := sec.NoteID()
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, string(id), string(EntryNote), "", sec.Body); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting note %s: %w", id, err)
		}
		summary.Notes++
	}

	for _, sec := range split.ParseSections(set.Attachments) {
		id, ok := sec.AttachmentID()
		if !ok {
			continue
		}
		origin := originNote(sec.Body)
		if _, err := stmt.ExecContext(ctx, string(id), string(EntryAttachment), origin, sec.AttachmentContent()); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting attachment %s: %w", id, err)
		}
		summary.Attachments++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO commits (fingerprint, indexed_at) VALUES (?, ?)`,
		set.Fingerprint, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return IngestSummary{}, fmt.Errorf("recording commit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing transaction: %w", err)
	}

	fmt.Fprintf(w, "indexed %d note(s), %d attachment(s)\n", summary.Notes, summary.Attachments)
	return summary, nil
}

// originNote extracts the back-reference from an attachment section's
// metadata list.
func originNote(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "- note: "); ok {
			if ids := types.ParseNoteMarkers(rest); len(ids) == 1 {
				return string(ids[0])
			}
		}
	}
	return ""
}
