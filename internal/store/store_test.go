package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDoc(id, title, text string) *Document {
	return &Document{
		ID:         id,
		Title:      title,
		Text:       text,
		SourcePath: "/archive/" + title + ".html",
		Size:       int64(len(text)),
		IndexedAt:  time.Now().UTC(),
	}
}

func TestDocumentID_Stable(t *testing.T) {
	// Given: the same path resolved twice
	a, err := DocumentID("/archive/page.html")
	require.NoError(t, err)
	b, err := DocumentID("/archive/page.html")
	require.NoError(t, err)

	// Then: identity is identical across invocations
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDocumentID_CanonicalizesPath(t *testing.T) {
	// Given: two spellings of the same location
	a, err := DocumentID("/archive/page.html")
	require.NoError(t, err)
	b, err := DocumentID("/archive/sub/../page.html")
	require.NoError(t, err)

	// Then: both resolve to the same identity
	assert.Equal(t, a, b)
}

func TestDocumentID_DistinctPaths(t *testing.T) {
	a, err := DocumentID("/archive/a.html")
	require.NoError(t, err)
	b, err := DocumentID("/archive/b.html")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStore_Open_Idempotent(t *testing.T) {
	// Given: a store created and closed
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)

	_, err = s.Upsert(context.Background(), testDoc("id1", "first", "content"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// When: reopening the same file
	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// Then: existing data survives
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Upsert_CreateThenUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// When: writing a new document
	created, err := s.Upsert(ctx, testDoc("id1", "Original Title", "some text"))
	require.NoError(t, err)

	// Then: it reports creation
	assert.True(t, created)

	// When: writing the same identity again
	created, err = s.Upsert(ctx, testDoc("id1", "Changed Title", "other text"))
	require.NoError(t, err)

	// Then: it reports an update and no duplicate row exists
	assert.False(t, created)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "Changed Title", got.Title)
}

func TestStore_Upsert_RejectsEmptyID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upsert(context.Background(), &Document{Title: "no id"})
	assert.Error(t, err)
}

func TestStore_Search_ReflectsUpdate(t *testing.T) {
	// Given: an indexed document
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("id1", "Old Title", "body about databases"))
	require.NoError(t, err)

	// When: the document is re-indexed with a new title
	_, err = s.Upsert(ctx, testDoc("id1", "New Title", "body about databases"))
	require.NoError(t, err)

	// Then: search by the old title finds nothing
	results, err := s.Search(ctx, "old", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// And: search by the new title finds exactly one hit
	results, err = s.Search(ctx, "new", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "id1", results[0].ID)
	assert.Equal(t, "New Title", results[0].Title)
}

func TestStore_Search_MatchesTitleAndText(t *testing.T) {
	// Given: two documents, the query term in a title and in a body
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("a", "Foo", "hello world"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, testDoc("b", "Bar", ""))
	require.NoError(t, err)

	// Then: body terms match document a only
	results, err := s.Search(ctx, "hello", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	// And: title terms match document b only
	results, err = s.Search(ctx, "bar", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestStore_Search_PorterStemming(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("a", "Migrations", "running database migrations"))
	require.NoError(t, err)

	// Stemmed query form matches the inflected text.
	results, err := s.Search(ctx, "migration", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_Search_ScoresDescend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("a", "cache", "cache cache cache"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, testDoc("b", "other", "mentions cache once among many other unrelated words"))
	require.NoError(t, err)

	results, err := s.Search(ctx, "cache", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestStore_Search_EmptyQueryRejected(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), "   ", 10)
	assert.Error(t, err)
}

func TestStore_Search_BadSyntaxReturnsNoResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("a", "Foo", "hello"))
	require.NoError(t, err)

	// Unbalanced quote is invalid FTS5 syntax, not a store failure.
	results, err := s.Search(ctx, `"hello`, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Search_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Upsert(ctx, testDoc(id, "page "+id, "common term"))
		require.NoError(t, err)
	}

	results, err := s.Search(ctx, "common", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStore_InlineMode_RoundTrip(t *testing.T) {
	// Given: a document written with raw content
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("id1", "Inline", "text")
	doc.RawContent = []byte("<html><title>Inline</title></html>")
	_, err := s.Upsert(ctx, doc)
	require.NoError(t, err)

	// Then: the raw bytes come back intact
	raw, err := s.RawContent(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, doc.RawContent, raw)

	got, err := s.Get(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.Inline())
}

func TestStore_InlineMode_EmptyContentStaysInline(t *testing.T) {
	// Given: an inline-mode write of a zero-byte source
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("id1", "Empty", "")
	doc.RawContent = []byte{}
	_, err := s.Upsert(ctx, doc)
	require.NoError(t, err)

	// Then: the row is classified inline, not reference
	inline, err := s.ListByMode(ctx, true)
	require.NoError(t, err)
	require.Len(t, inline, 1)
	assert.Equal(t, "id1", inline[0].ID)

	refs, err := s.ListByMode(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, refs)

	// And: stats count it as inline
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InlineDocuments)
	assert.Equal(t, 0, stats.ReferenceDocuments)
}

func TestStore_ReferenceRun_ClearsInlineContent(t *testing.T) {
	// Given: a document first indexed inline
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("id1", "Page", "text")
	doc.RawContent = []byte("<html></html>")
	_, err := s.Upsert(ctx, doc)
	require.NoError(t, err)

	// When: the same identity is re-indexed without raw content
	_, err = s.Upsert(ctx, testDoc("id1", "Page", "text"))
	require.NoError(t, err)

	// Then: the stored row reflects the most recent run's mode
	raw, err := s.RawContent(ctx, "id1")
	require.NoError(t, err)
	assert.Nil(t, raw)

	got, err := s.Get(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, got.Inline())
}

func TestStore_ListByMode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inline := testDoc("in", "inline", "text")
	inline.RawContent = []byte("<html></html>")
	_, err := s.Upsert(ctx, inline)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, testDoc("ref", "reference", "text"))
	require.NoError(t, err)

	got, err := s.ListByMode(ctx, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].ID)

	got, err = s.ListByMode(ctx, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ref", got[0].ID)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete_RemovesRowAndSearchEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testDoc("id1", "Doomed", "text"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "id1"))

	_, err = s.Get(ctx, "id1")
	assert.ErrorIs(t, err, ErrNotFound)

	results, err := s.Search(ctx, "doomed", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Delete_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inline := testDoc("in", "inline", "text")
	inline.RawContent = []byte("12345678")
	_, err := s.Upsert(ctx, inline)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, testDoc("ref", "reference", "longer body"))
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.InlineDocuments)
	assert.Equal(t, 1, stats.ReferenceDocuments)
	assert.Equal(t, int64(8), stats.InlineBytes)
	assert.Positive(t, stats.SourceBytes)
}
