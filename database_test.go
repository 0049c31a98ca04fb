package docvec

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docvec/ai/mock"
	"github.com/poiesic/docvec/blob/fs"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/search"
	"github.com/poiesic/docvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) (*Database, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider()
	db, err := NewDatabase("", WithInMemory(), WithAIProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, provider
}

func makeDocument(id string) (*core.Document, []*core.Chunk) {
	doc := &core.Document{
		ID:        id,
		Filename:  id + ".txt",
		Status:    core.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	chunks := make([]*core.Chunk, 3)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(id, i),
			DocumentID: id,
			Text:       fmt.Sprintf("chunk %d of %s with padding", i, id),
			Index:      i,
			Embedding:  []float32{float32(i), 1, 0},
		}
	}
	return doc, chunks
}

func TestDatabase_StoreAndGet(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	doc, chunks := makeDocument("doc-1")
	require.NoError(t, db.StoreProcessedDocument(ctx, doc, chunks))

	got, err := db.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "doc-1.txt", got.Filename)

	stored, err := db.DocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestDatabase_GetMissingDocumentIsNil(t *testing.T) {
	db, _ := newTestDatabase(t)

	got, err := db.GetDocument(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDatabase_DuplicateRejected(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	doc, chunks := makeDocument("doc-1")
	require.NoError(t, db.StoreProcessedDocument(ctx, doc, chunks))

	dup, dupChunks := makeDocument("doc-1")
	err := db.StoreProcessedDocument(ctx, dup, dupChunks)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestDatabase_StoreValidation(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	t.Run("invalid document", func(t *testing.T) {
		err := db.StoreProcessedDocument(ctx, &core.Document{ID: ""}, nil)
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})

	t.Run("invalid chunk", func(t *testing.T) {
		doc, chunks := makeDocument("doc-2")
		chunks[1].Text = "short"
		err := db.StoreProcessedDocument(ctx, doc, chunks)
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})

	t.Run("chunk from another document", func(t *testing.T) {
		doc, _ := makeDocument("doc-3")
		_, foreign := makeDocument("doc-4")
		err := db.StoreProcessedDocument(ctx, doc, foreign)
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})
}

func TestDatabase_ListDocuments(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		doc, chunks := makeDocument(fmt.Sprintf("doc-%d", i))
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.StoreProcessedDocument(ctx, doc, chunks))
	}

	page, total, err := db.ListDocuments(ctx, 2, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)

	// Newest first
	assert.Equal(t, "doc-4", page[0].ID)
	assert.Equal(t, "doc-3", page[1].ID)

	page, _, err = db.ListDocuments(ctx, 2, 4, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "doc-0", page[0].ID)
}

func TestDatabase_DeleteDocument(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	doc, chunks := makeDocument("doc-1")
	require.NoError(t, db.StoreProcessedDocument(ctx, doc, chunks))
	require.NoError(t, db.FileRepository().PutFileRef(ctx, &core.FileRef{
		DocumentID: "doc-1",
		BlobKey:    "uploads/doc-1",
		Filename:   "doc-1.txt",
	}))

	require.NoError(t, db.DeleteDocument(ctx, "doc-1"))

	got, err := db.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	remaining, err := db.DocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = db.FileRepository().GetFileRef(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again is a no-op
	require.NoError(t, db.DeleteDocument(ctx, "doc-1"))
}

func TestDatabase_Stats(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		doc, chunks := makeDocument(fmt.Sprintf("doc-%d", i))
		require.NoError(t, db.StoreProcessedDocument(ctx, doc, chunks))
	}

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 6, stats.Chunks)
	assert.Equal(t, 6, stats.EmbeddedChunks)
	assert.InDelta(t, 3.0, stats.AvgChunksPerDoc, 1e-9)
}

func TestDatabase_Health(t *testing.T) {
	db, provider := newTestDatabase(t)

	h := db.Health(context.Background())
	assert.Equal(t, search.StatusHealthy, h.Status)

	provider.GetMockEmbedder().PingFunc = func(ctx context.Context) error {
		return fmt.Errorf("connection refused")
	}
	h = db.Health(context.Background())
	assert.Equal(t, search.StatusDegraded, h.Status)
}

func TestDatabase_ProcessorRoundTrip(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()

	blobs, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	content := strings.Repeat("z", 600)
	require.NoError(t, blobs.Put(ctx, "uploads/doc-1", strings.NewReader(content), "text/plain"))
	require.NoError(t, db.FileRepository().PutFileRef(ctx, &core.FileRef{
		DocumentID:  "doc-1",
		BlobKey:     "uploads/doc-1",
		Filename:    "doc-1.txt",
		ContentType: "text/plain",
		Digest:      core.ContentDigest([]byte(content)),
	}))

	p, err := db.NewProcessor(blobs)
	require.NoError(t, err)

	result, err := p.Process(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Chunks)

	s, err := db.NewSearcher()
	require.NoError(t, err)
	hits, err := s.SearchText(ctx, content[:500], 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].Chunk.DocumentID)
}
