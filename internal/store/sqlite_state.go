package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloudconsole/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "control.sqlite"

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// Store locates the control plane database.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// DB is an open control plane database. Documents are stored as JSON, one
// row per entity, ordered by insertion sequence.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

func (s Store) Open(ctx context.Context) (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// One connection serializes writers in-process and keeps the pragmas
	// below, which SQLite applies per connection.
	db.SetMaxOpenConns(1)
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(kind, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_seq ON entities(kind, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) List(ctx context.Context, k model.Kind) ([]model.Doc, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT json FROM entities WHERE kind = ? ORDER BY seq`, string(k))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Doc{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc model.Doc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", k, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *DB) Get(ctx context.Context, k model.Kind, id string) (model.Doc, error) {
	var raw string
	err := d.db.QueryRowContext(ctx, `SELECT json FROM entities WHERE kind = ? AND id = ?`, string(k), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Doc{}, fmt.Errorf("%s %s: %w", k, id, ErrNotFound)
	}
	if err != nil {
		return model.Doc{}, err
	}
	var doc model.Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.Doc{}, err
	}
	return doc, nil
}

// Insert assigns a fresh id and appends the document.
func (d *DB) Insert(ctx context.Context, k model.Kind, doc model.Doc) (model.Doc, error) {
	doc = doc.With("id", newID(k))
	raw, err := json.Marshal(doc)
	if err != nil {
		return model.Doc{}, err
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO entities(kind, id, seq, json, updated_at_unixms)
		VALUES(?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entities WHERE kind = ?), ?, ?)`,
		string(k), doc.ID(), string(k), string(raw), d.now().UTC().UnixMilli())
	if err != nil {
		return model.Doc{}, err
	}
	return doc, nil
}

// Mutate reads the stored document, applies fn and writes the result in one
// transaction, so concurrent writers never overwrite each other's fields.
// fn must not use d. The returned flag reports whether anything was written.
func (d *DB) Mutate(ctx context.Context, k model.Kind, id string, fn func(cur model.Doc) (model.Doc, error)) (model.Doc, bool, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Doc{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT json FROM entities WHERE kind = ? AND id = ?`, string(k), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Doc{}, false, fmt.Errorf("%s %s: %w", k, id, ErrNotFound)
	}
	if err != nil {
		return model.Doc{}, false, err
	}
	var cur model.Doc
	if err := json.Unmarshal([]byte(raw), &cur); err != nil {
		return model.Doc{}, false, err
	}

	next, err := fn(cur)
	if err != nil {
		return model.Doc{}, false, err
	}
	next = next.With("id", id)
	if next.Equal(cur) {
		return cur, false, nil
	}
	out, err := json.Marshal(next)
	if err != nil {
		return model.Doc{}, false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE entities SET json = ?, updated_at_unixms = ? WHERE kind = ? AND id = ?`,
		string(out), d.now().UTC().UnixMilli(), string(k), id); err != nil {
		return model.Doc{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Doc{}, false, err
	}
	return next, true, nil
}

func (d *DB) Delete(ctx context.Context, k model.Kind, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(k), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", k, id, ErrNotFound)
	}
	return nil
}

// DeleteMany removes every listed id in one transaction and returns the ids
// that existed. Unknown ids are skipped.
func (d *DB) DeleteMany(ctx context.Context, k model.Kind, ids []string) ([]string, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	removed := []string{}
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(k), id)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed = append(removed, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}
