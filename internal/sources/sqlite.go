package sources

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	_ "modernc.org/sqlite"

	"searchbox/internal/domain"
)

// SQLite searches a catalog table with LIKE, streaming rows as they are read
type SQLite struct {
	id string
	db *sql.DB
	settings
}

// OpenSQLite opens (and creates if needed) the catalog at dsn
func OpenSQLite(id, dsn string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLite{id: id, db: db, settings: newSettings(opts)}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			object_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			categories TEXT NOT NULL DEFAULT '[]',
			image TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Insert adds or replaces items
func (s *SQLite) Insert(ctx context.Context, items ...domain.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO items (object_id, name, brand, categories, image, url) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		categories, err := json.Marshal(item.Categories)
		if err != nil {
			return fmt.Errorf("failed to marshal categories of %s: %w", item.ObjectID, err)
		}
		if _, err := stmt.ExecContext(ctx, item.ObjectID, item.Name, item.Brand, string(categories), item.Image, item.URL); err != nil {
			return fmt.Errorf("failed to insert %s: %w", item.ObjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLite) ID() string { return s.id }

// Fetch matches name, brand and categories case-insensitively. Rows are read
// only as fast as the consumer asks for them.
func (s *SQLite) Fetch(ctx context.Context, query domain.Query) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		pattern := "%" + escapeLike(string(query)) + "%"
		rows, err := s.db.QueryContext(ctx, `
			SELECT object_id, name, brand, categories, image, url
			FROM items
			WHERE name LIKE ? ESCAPE '\' OR brand LIKE ? ESCAPE '\' OR categories LIKE ? ESCAPE '\'
			ORDER BY name
			LIMIT ?`, pattern, pattern, pattern, s.limit)
		if err != nil {
			yield(domain.Item{}, fmt.Errorf("failed to query catalog: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var item domain.Item
			var categories string
			if err := rows.Scan(&item.ObjectID, &item.Name, &item.Brand, &categories, &item.Image, &item.URL); err != nil {
				yield(domain.Item{}, fmt.Errorf("failed to scan item: %w", err))
				return
			}
			if err := json.Unmarshal([]byte(categories), &item.Categories); err != nil {
				yield(domain.Item{}, fmt.Errorf("failed to parse categories of %s: %w", item.ObjectID, err))
				return
			}
			item.Highlighted = highlight(item.Name, query)
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Item{}, fmt.Errorf("failed to read catalog: %w", err))
		}
	}
}

func (s *SQLite) URLOf(item domain.Item) string {
	return s.urlOf(item)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
