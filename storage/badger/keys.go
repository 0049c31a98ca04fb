package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	documentRecordPrefix  = "docrec"
	documentCreatedPrefix = "doccre"
	chunkRecordPrefix     = "chkrec"
	chunkDocumentPrefix   = "chkdoc"
	fileRefPrefix         = "filref"
	vectorIndexMetaKey    = "vecidx:meta"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, id))
}

// makeDocumentCreatedKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id
func makeDocumentCreatedKey(timestamp time.Time, id string) []byte {
	prefix := documentCreatedPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8 + len(id)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makePartialDocumentCreatedKey generates a partial key for seeking within
// the creation-time index.
// Format: prefix:timestamp
func makePartialDocumentCreatedKey(timestamp time.Time) []byte {
	prefix := documentCreatedPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeChunkKey generates a key for a chunk record by chunk ID.
func makeChunkKey(chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chunkRecordPrefix, chunkID))
}

// makeChunkDocumentKey generates a composite key for the chunk-by-document index.
// Format: prefix:documentID:index
func makeChunkDocumentKey(documentID string, index int) []byte {
	prefix := chunkDocumentPrefix + ":" + documentID + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+4)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so chunks iterate in index order
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makeChunkDocumentPrefix generates the iteration prefix for one document's
// chunk index entries.
func makeChunkDocumentPrefix(documentID string) []byte {
	return []byte(chunkDocumentPrefix + ":" + documentID + ":")
}

// makeFileRefKey generates a key for a file reference by document ID.
func makeFileRefKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", fileRefPrefix, documentID))
}
