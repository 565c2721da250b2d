// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notesindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// QueryOptions controls Search behavior.
type QueryOptions struct {
	// Kind restricts results to one entry kind; empty matches both.
	Kind EntryKind

	// MaxResults caps the number of returned entries; 0 uses the store
	// default.
	MaxResults int
}

// List returns every indexed entry in document order, content omitted.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, origin FROM items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Origin); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry with the given ContentId, or false when the id
// is not indexed.
func (s *Store) Get(ctx context.Context, id string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, origin, content FROM items WHERE id = ?`, id,
	).Scan(&e.ID, &e.Kind, &e.Origin, &e.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return e, true, nil
}

// Search runs a full-text query against the indexed content and returns
// matches ranked by relevance.
func (s *Store) Search(ctx context.Context, query string, opts QueryOptions) ([]Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	sqlQuery := `
		SELECT i.id, i.kind, i.origin, i.content
		FROM items_fts
		JOIN items i ON i.rowid = items_fts.rowid
		WHERE items_fts MATCH ?`
	args := []any{ftsQuery(query)}

	if opts.Kind != "" {
		sqlQuery += ` AND i.kind = ?`
		args = append(args, string(opts.Kind))
	}
	sqlQuery += ` ORDER BY items_fts.rank LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Origin, &e.Content); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ftsQuery quotes each term so user input cannot invoke FTS5 operators.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
