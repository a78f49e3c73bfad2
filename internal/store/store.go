package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
)

// schemaVersion tracks the store layout. Opening a store written by a
// newer layout fails rather than guessing.
const schemaVersion = 1

// Store is the SQLite-backed document store with synchronized FTS5.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the store at path and ensures the schema.
// Schema creation is idempotent, so pointing at an existing store is the
// normal case, not an error.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.StoreError("creating store directory", err).WithPath(dir)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreOpen, "opening store", err).WithPath(path)
	}

	// Serialize all access through one connection. The writer is single
	// threaded by design and FTS5 writes do not benefit from a pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store location as given to Open.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			text        TEXT NOT NULL,
			source_path TEXT NOT NULL,
			raw_content BLOB,
			size        INTEGER NOT NULL,
			indexed_at  TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source_path ON documents(source_path)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			doc_id UNINDEXED,
			title,
			text,
			tokenize='porter unicode61'
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.New(errors.ErrCodeStoreSchema, "creating schema", err).WithPath(s.path)
		}
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
			return errors.New(errors.ErrCodeStoreSchema, "recording schema version", err).WithPath(s.path)
		}
	case err != nil:
		return errors.New(errors.ErrCodeStoreSchema, "reading schema version", err).WithPath(s.path)
	case version > schemaVersion:
		return errors.New(errors.ErrCodeStoreSchema,
			fmt.Sprintf("store schema version %d is newer than supported version %d", version, schemaVersion), nil).WithPath(s.path)
	}

	return nil
}

// Upsert writes a document and its FTS row in one transaction.
// The same identity always lands on the same row: re-indexing updates in
// place, and the FTS side is replaced in the same transaction so search
// can never observe a document with stale text. Returns true when the
// row was newly created.
func (s *Store) Upsert(ctx context.Context, doc *Document) (created bool, err error) {
	if doc.ID == "" {
		return false, errors.New(errors.ErrCodeInternal, "document has no identity", nil).WithPath(doc.SourcePath)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.StoreError("beginning transaction", err).WithPath(doc.SourcePath)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, doc.ID).Scan(&exists); err != nil {
		return false, errors.StoreError("checking existing document", err).WithPath(doc.SourcePath)
	}

	// A nil slice means a reference-mode run (NULL column); an empty
	// non-nil slice is a legitimate inline payload for a zero-byte
	// source and must stay NOT NULL so the row keeps inline semantics.
	var raw any
	if doc.RawContent != nil {
		raw = doc.RawContent
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, text, source_path, raw_content, size, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			text        = excluded.text,
			source_path = excluded.source_path,
			raw_content = excluded.raw_content,
			size        = excluded.size,
			indexed_at  = excluded.indexed_at`,
		doc.ID, doc.Title, doc.Text, doc.SourcePath, raw, doc.Size, doc.IndexedAt.UTC())
	if err != nil {
		return false, storeWriteError("writing document", err, doc.SourcePath)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE doc_id = ?`, doc.ID); err != nil {
		return false, storeWriteError("clearing search index", err, doc.SourcePath)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO documents_fts (doc_id, title, text) VALUES (?, ?, ?)`,
		doc.ID, doc.Title, doc.Text); err != nil {
		return false, storeWriteError("writing search index", err, doc.SourcePath)
	}

	if err := tx.Commit(); err != nil {
		return false, storeWriteError("committing document", err, doc.SourcePath)
	}

	return exists == 0, nil
}

// Get fetches a document by identity, including any inline content.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, text, source_path, raw_content, size, indexed_at
		FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Title, &doc.Text, &doc.SourcePath, &doc.RawContent, &doc.Size, &doc.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.StoreError("reading document", err)
	}
	return doc, nil
}

// Search runs a full-text query and returns hits ranked by BM25.
// A query that is not valid FTS5 syntax returns no results rather than
// an error, matching how interactive search tools behave.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "search query is empty", nil)
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.source_path, d.size, d.indexed_at, bm25(documents_fts)
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.doc_id
		WHERE documents_fts MATCH ?
		ORDER BY bm25(documents_fts)
		LIMIT ?`, query, limit)
	if err != nil {
		if isFTSSyntaxError(err) {
			return nil, nil
		}
		return nil, errors.StoreError("searching documents", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		r := &SearchResult{}
		var score float64
		if err := rows.Scan(&r.ID, &r.Title, &r.SourcePath, &r.Size, &r.IndexedAt, &score); err != nil {
			return nil, errors.StoreError("scanning search result", err)
		}
		// bm25() reports lower-is-better; negate so callers see
		// higher-is-better.
		r.Score = -score
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListByMode returns references to all rows in the given storage mode.
func (s *Store) ListByMode(ctx context.Context, inline bool) ([]DocumentRef, error) {
	cond := "raw_content IS NULL"
	if inline {
		cond = "raw_content IS NOT NULL"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path FROM documents WHERE `+cond+` ORDER BY source_path`)
	if err != nil {
		return nil, errors.StoreError("listing documents", err)
	}
	defer rows.Close()

	var refs []DocumentRef
	for rows.Next() {
		var ref DocumentRef
		if err := rows.Scan(&ref.ID, &ref.SourcePath); err != nil {
			return nil, errors.StoreError("scanning document reference", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// RawContent returns the inline HTML bytes for a document.
// Returns ErrNotFound for an unknown identity and nil bytes for a
// reference-mode row.
func (s *Store) RawContent(ctx context.Context, id string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT raw_content FROM documents WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.StoreError("reading document content", err)
	}
	return raw, nil
}

// Delete removes a document and its FTS row in one transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StoreError("beginning transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.StoreError("deleting document", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE doc_id = ?`, id); err != nil {
		return errors.StoreError("deleting search index entry", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.StoreError("committing delete", err)
	}
	return nil
}

// Count returns the total number of indexed documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, errors.StoreError("counting documents", err)
	}
	return n, nil
}

// Stats summarizes the store contents.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(raw_content IS NOT NULL), 0),
		       COALESCE(SUM(size), 0),
		       COALESCE(SUM(LENGTH(raw_content)), 0)
		FROM documents`).
		Scan(&stats.Documents, &stats.InlineDocuments, &stats.SourceBytes, &stats.InlineBytes)
	if err != nil {
		return nil, errors.StoreError("reading store stats", err)
	}
	stats.ReferenceDocuments = stats.Documents - stats.InlineDocuments
	return stats, nil
}

// storeWriteError maps disk-exhaustion failures onto their own code so
// the CLI can report them distinctly.
func storeWriteError(msg string, err error, path string) error {
	code := errors.ErrCodeStoreWrite
	if err != nil && strings.Contains(err.Error(), "disk is full") {
		code = errors.ErrCodeDiskFull
	}
	return errors.New(code, msg, err).WithPath(path)
}

// isFTSSyntaxError recognizes FTS5 query parse failures.
func isFTSSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "no such column")
}
