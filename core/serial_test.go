package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := Document{
		ID:            "doc-1",
		Filename:      "report.pdf",
		ContentType:   "application/pdf",
		Status:        StatusCompleted,
		ExtractedText: "extracted body text",
		TotalPages:    4,
		Duration:      1250 * time.Millisecond,
		Metadata:      map[string]string{"chunkCount": "3"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	bs := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, bs)
	require.Equal(t, len(bs), n)

	got, n, err := DocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, doc, got)
}

func TestChunkMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := Chunk{
		ID:         ChunkID("doc-1", 2),
		DocumentID: "doc-1",
		Text:       "a chunk of extracted text",
		Index:      2,
		PageNumber: 1,
		StartChar:  900,
		EndChar:    1000,
		Embedding:  []float32{0.25, -0.5, 0.75},
		Metadata:   map[string]string{"source": "upload"},
		CreatedAt:  now,
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	got, _, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestChunkMUS_RoundTrip_NoEmbedding(t *testing.T) {
	chunk := Chunk{
		ID:         ChunkID("doc-1", 0),
		DocumentID: "doc-1",
		Text:       "chunk without an embedding",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	got, _, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Empty(t, got.Embedding)
}

func TestFileRefMUS_RoundTrip(t *testing.T) {
	ref := FileRef{
		DocumentID:  "doc-1",
		BlobKey:     "uploads/doc-1",
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Digest:      ContentDigest([]byte("payload")),
		UploadedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, FileRefMUS.Size(ref))
	FileRefMUS.Marshal(ref, bs)

	got, _, err := FileRefMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}
