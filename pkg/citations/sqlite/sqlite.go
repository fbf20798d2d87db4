// Package sqlite provides a SQLite-backed citation store driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scriptoriumco/vellum/pkg/citations"
)

// Driver implements citations.Driver on a SQLite database.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (or creates) the database at dbPath and runs migrations.
// dbPath can be ":memory:" for tests.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &Driver{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return d, nil
}

func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS citations (
		id TEXT NOT NULL,
		library_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		authors TEXT,
		year TEXT,
		doi TEXT,
		url TEXT,
		accessed_at DATETIME,
		PRIMARY KEY (id, library_id)
	);

	CREATE TABLE IF NOT EXISTS active_library (
		rowid INTEGER PRIMARY KEY CHECK (rowid = 1),
		library_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_citations_library ON citations(library_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the underlying database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Find resolves id against the active library, then any library, then the
// legacy flat list (rows with an empty library_id).
func (d *Driver) Find(ctx context.Context, id string) (*citations.Citation, error) {
	active, err := d.activeLibrary(ctx)
	if err != nil {
		return nil, err
	}

	if active != "" {
		c, err := d.findOne(ctx,
			`SELECT id, library_id, title, authors, year, doi, url, accessed_at
			 FROM citations WHERE id = ? AND library_id = ?`, id, active)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}

	c, err := d.findOne(ctx,
		`SELECT id, library_id, title, authors, year, doi, url, accessed_at
		 FROM citations WHERE id = ? AND library_id != '' LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	c, err = d.findOne(ctx,
		`SELECT id, library_id, title, authors, year, doi, url, accessed_at
		 FROM citations WHERE id = ? AND library_id = ''`, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	return nil, citations.NotFoundError{ID: id}
}

// BulkAdd upserts citations into a library.
func (d *Driver) BulkAdd(ctx context.Context, libraryID string, cites []citations.Citation) error {
	if libraryID == "" {
		return errors.New("library id is required")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cites {
		if err := insertCitation(ctx, tx, libraryID, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Replace swaps a library's citations wholesale.
func (d *Driver) Replace(ctx context.Context, libraryID string, cites []citations.Citation) error {
	if libraryID == "" {
		return errors.New("library id is required")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE library_id = ?`, libraryID); err != nil {
		return fmt.Errorf("clearing library: %w", err)
	}

	for _, c := range cites {
		if err := insertCitation(ctx, tx, libraryID, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetActive marks the library Find searches first.
func (d *Driver) SetActive(ctx context.Context, libraryID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO active_library (rowid, library_id) VALUES (1, ?)
		 ON CONFLICT(rowid) DO UPDATE SET library_id = excluded.library_id`, libraryID)
	return err
}

// AddLegacy inserts entries into the legacy flat list.
func (d *Driver) AddLegacy(ctx context.Context, cites ...citations.Citation) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cites {
		if err := insertCitation(ctx, tx, "", c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertCitation(ctx context.Context, tx *sql.Tx, libraryID string, c citations.Citation) error {
	authorsJSON, err := json.Marshal(c.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors: %w", err)
	}

	var accessed any
	if !c.AccessedAt.IsZero() {
		accessed = c.AccessedAt.UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO citations (id, library_id, title, authors, year, doi, url, accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, libraryID, c.Title, string(authorsJSON), c.Year, c.DOI, c.URL, accessed)
	if err != nil {
		return fmt.Errorf("inserting citation %s: %w", c.ID, err)
	}
	return nil
}

func (d *Driver) activeLibrary(ctx context.Context) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx, `SELECT library_id FROM active_library WHERE rowid = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading active library: %w", err)
	}
	return id, nil
}

func (d *Driver) findOne(ctx context.Context, query string, args ...any) (*citations.Citation, error) {
	row := d.db.QueryRowContext(ctx, query, args...)

	var (
		c        citations.Citation
		authors  sql.NullString
		year     sql.NullString
		doi      sql.NullString
		url      sql.NullString
		accessed sql.NullTime
	)
	err := row.Scan(&c.ID, &c.LibraryID, &c.Title, &authors, &year, &doi, &url, &accessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning citation: %w", err)
	}

	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &c.Authors); err != nil {
			return nil, fmt.Errorf("unmarshaling authors: %w", err)
		}
	}
	c.Year = year.String
	c.DOI = doi.String
	c.URL = url.String
	if accessed.Valid {
		c.AccessedAt = accessed.Time
	}

	return &c, nil
}
