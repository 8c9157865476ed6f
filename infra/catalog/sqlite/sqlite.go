// Package sqlite persists catalog snapshots so a restart can serve the last
// good catalog before the first refresh completes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/factory"
	"github.com/kilianp07/classplan/core/model"
)

// ErrNoSnapshot is returned by Load before anything was saved.
var ErrNoSnapshot = errors.New("no cached catalog")

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    source TEXT NOT NULL,
    term TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS class_title (
    subject TEXT NOT NULL,
    number TEXT NOT NULL,
    title TEXT NOT NULL,
    PRIMARY KEY(subject, number)
);
CREATE TABLE IF NOT EXISTS section (
    crn TEXT PRIMARY KEY,
    pos INTEGER NOT NULL,
    subject TEXT NOT NULL,
    number TEXT NOT NULL,
    type TEXT NOT NULL,
    label TEXT NOT NULL,
    status TEXT NOT NULL,
    instructor TEXT NOT NULL,
    location TEXT NOT NULL,
    intervals TEXT NOT NULL
);`

// SQLiteStore keeps exactly one catalog snapshot.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, cat *catalog.Catalog) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range []string{"DELETE FROM section", "DELETE FROM class_title", "DELETE FROM snapshot"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	meta := cat.Meta()
	if _, err = tx.ExecContext(ctx, `INSERT INTO snapshot (id, source, term, fetched_at) VALUES (1, ?, ?, ?)`,
		meta.Source, meta.Term, meta.FetchedAt.UnixMilli()); err != nil {
		return err
	}
	for _, k := range cat.Classes() {
		if t := cat.Title(k); t != "" {
			if _, err = tx.ExecContext(ctx, `INSERT INTO class_title (subject, number, title) VALUES (?, ?, ?)`,
				k.Subject, k.Number, t); err != nil {
				return err
			}
		}
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO section
        (crn, pos, subject, number, type, label, status, instructor, location, intervals)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = ins.Close() }()
	pos := 0
	cat.Each(func(k model.ClassKey, sec model.Section) {
		if err != nil {
			return
		}
		var ivs []byte
		if ivs, err = json.Marshal(sec.Intervals); err != nil {
			return
		}
		_, err = ins.ExecContext(ctx, sec.CRN, pos, k.Subject, k.Number, sec.Type, sec.Label,
			sec.Status, sec.Instructor, sec.Location, string(ivs))
		pos++
	})
	if err != nil {
		return fmt.Errorf("save section: %w", err)
	}
	return tx.Commit()
}

// Load rebuilds the stored snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*catalog.Catalog, error) {
	var (
		meta    catalog.Meta
		fetched int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT source, term, fetched_at FROM snapshot WHERE id = 1`).
		Scan(&meta.Source, &meta.Term, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	meta.FetchedAt = time.UnixMilli(fetched).UTC()
	b := catalog.NewBuilder(meta)

	rows, err := s.db.QueryContext(ctx, `SELECT subject, number, crn, type, label, status, instructor, location, intervals
        FROM section ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			subj, num, ivs string
			sec            model.Section
		)
		if err := rows.Scan(&subj, &num, &sec.CRN, &sec.Type, &sec.Label, &sec.Status,
			&sec.Instructor, &sec.Location, &ivs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ivs), &sec.Intervals); err != nil {
			return nil, fmt.Errorf("section %s: %w", sec.CRN, err)
		}
		if err := b.Add(model.NewClassKey(subj, num), sec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	titles, err := s.db.QueryContext(ctx, `SELECT subject, number, title FROM class_title`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = titles.Close() }()
	for titles.Next() {
		var subj, num, title string
		if err := titles.Scan(&subj, &num, &title); err != nil {
			return nil, err
		}
		b.SetTitle(model.NewClassKey(subj, num), title)
	}
	if err := titles.Err(); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Source serves the cached snapshot as a catalog source, e.g. for offline use.
type Source struct {
	store *SQLiteStore
}

func NewSource(store *SQLiteStore) *Source { return &Source{store: store} }

func (s *Source) Name() string { return "sqlite" }

func (s *Source) Fetch(ctx context.Context) (*catalog.Catalog, error) { return s.store.Load(ctx) }

func init() {
	_ = catalog.RegisterSource("sqlite", func(conf map[string]any) (catalog.Source, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite source: path is required")
		}
		store, err := NewSQLiteStore(c.Path)
		if err != nil {
			return nil, err
		}
		return NewSource(store), nil
	})
}
