package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		doc := &Document{ID: "doc-1", Status: StatusCompleted}
		assert.NoError(t, ValidateDocument(doc))
	})

	t.Run("nil", func(t *testing.T) {
		err := ValidateDocument(nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("empty id", func(t *testing.T) {
		err := ValidateDocument(&Document{Status: StatusCompleted})
		assert.ErrorIs(t, err, ErrEmptyDocumentID)
	})

	t.Run("unknown status", func(t *testing.T) {
		err := ValidateDocument(&Document{ID: "doc-1", Status: "processing"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			ID:         ChunkID("doc-1", 0),
			DocumentID: "doc-1",
			Text:       "long enough chunk text",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	})

	t.Run("empty document id", func(t *testing.T) {
		ch := valid()
		ch.DocumentID = ""
		assert.ErrorIs(t, ValidateChunk(ch), ErrEmptyDocumentID)
	})

	t.Run("too short after trimming", func(t *testing.T) {
		ch := valid()
		ch.Text = "   short  " + strings.Repeat(" ", 20)
		assert.ErrorIs(t, ValidateChunk(ch), ErrChunkTooShort)
	})

	t.Run("exactly at the floor", func(t *testing.T) {
		ch := valid()
		ch.Text = "0123456789"
		require.Len(t, ch.Text, MinChunkLength)
		assert.NoError(t, ValidateChunk(ch))
	})

	t.Run("id mismatch", func(t *testing.T) {
		ch := valid()
		ch.Index = 1
		assert.ErrorIs(t, ValidateChunk(ch), ErrChunkIDMismatch)
	})
}
