// Package store provides the SQLite persistence layer for indexed HTML
// documents: a documents table keyed by identity plus an FTS5 index over
// title and text, kept in lockstep transactionally.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when a document identity has no row.
var ErrNotFound = stderrors.New("document not found")

// Document is one indexed HTML source file's record.
type Document struct {
	// ID is the stable identity: SHA256 of the canonical absolute source
	// path. Indexing the same file twice always yields the same ID, so
	// repeated runs update in place instead of duplicating rows.
	ID string

	// Title is the extracted document title.
	Title string

	// Text is the plain-text rendering used for full-text search.
	Text string

	// SourcePath is the original filesystem location. Always recorded,
	// even when content is stored inline.
	SourcePath string

	// RawContent holds the original HTML bytes. Non-nil exactly when the
	// row was written by an inline-mode run (empty-but-non-nil for a
	// zero-byte source); nil for reference-mode rows.
	RawContent []byte

	// Size is the byte length of the source file at index time.
	Size int64

	// IndexedAt is when the indexing run last wrote this row.
	IndexedAt time.Time
}

// Inline reports whether the row carries its content in the store.
func (d *Document) Inline() bool {
	return d.RawContent != nil
}

// SearchResult is a full-text search hit.
type SearchResult struct {
	ID         string
	Title      string
	SourcePath string
	Size       int64
	IndexedAt  time.Time

	// Score is the BM25 relevance, higher is better.
	Score float64
}

// DocumentRef is a lightweight row reference used by purge and extract.
type DocumentRef struct {
	ID         string
	SourcePath string
}

// Stats summarizes store contents.
type Stats struct {
	// Documents is the total row count.
	Documents int
	// InlineDocuments counts rows carrying raw content.
	InlineDocuments int
	// ReferenceDocuments counts rows that only reference a source path.
	ReferenceDocuments int
	// SourceBytes is the sum of recorded source file sizes.
	SourceBytes int64
	// InlineBytes is the total raw content stored inline.
	InlineBytes int64
}

// DocumentID computes the stable identity for a source path: the SHA256
// hex digest of its cleaned absolute path.
//
// Identity is deliberately path-based rather than content-based: moving
// or renaming a file indexes it as a new document, and two byte-identical
// files remain two rows. A content hash would silently collapse
// duplicates, which is not what an archive index wants.
func DocumentID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:]), nil
}
