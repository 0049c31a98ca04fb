package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_chunk_0", ChunkID("doc-1", 0))
	assert.Equal(t, "doc-1_chunk_12", ChunkID("doc-1", 12))
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, ChunkID("abc", 3), ChunkID("abc", 3))
	assert.NotEqual(t, ChunkID("abc", 3), ChunkID("abc", 4))
	assert.NotEqual(t, ChunkID("abc", 3), ChunkID("abd", 3))
}

func TestContentDigest(t *testing.T) {
	a := ContentDigest([]byte("same content"))
	b := ContentDigest([]byte("same content"))
	c := ContentDigest([]byte("different content"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32) // 16 bytes hex encoded
}
