package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository_PutAndGet(t *testing.T) {
	_, _, files, _ := newTestRepositories(t)
	ctx := context.Background()

	ref := &core.FileRef{
		DocumentID:  "doc-1",
		BlobKey:     "uploads/doc-1",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Digest:      core.ContentDigest([]byte("raw bytes")),
		UploadedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, files.PutFileRef(ctx, ref))

	got, err := files.GetFileRef(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestFileRepository_Replace(t *testing.T) {
	_, _, files, _ := newTestRepositories(t)
	ctx := context.Background()

	first := &core.FileRef{DocumentID: "doc-1", BlobKey: "uploads/v1", Filename: "a.txt"}
	require.NoError(t, files.PutFileRef(ctx, first))

	second := &core.FileRef{DocumentID: "doc-1", BlobKey: "uploads/v2", Filename: "b.txt"}
	require.NoError(t, files.PutFileRef(ctx, second))

	got, err := files.GetFileRef(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "uploads/v2", got.BlobKey)
}

func TestFileRepository_GetMissing(t *testing.T) {
	_, _, files, _ := newTestRepositories(t)

	_, err := files.GetFileRef(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileRepository_DeleteMissing(t *testing.T) {
	_, _, files, _ := newTestRepositories(t)
	assert.NoError(t, files.DeleteFileRef(context.Background(), "nope"))
}
