package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close releases repository resources. The backend is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}

// GetDocumentChunks retrieves all chunks of one document ordered by chunk
// index ascending.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.scanDocumentChunks(tx, documentID, func(chunk *core.Chunk) {
			results = append(results, chunk)
		})
	}, false)
	return results, err
}

// DeleteDocumentChunks removes all chunks of one document along with their
// index entries. Returns the number of chunks removed.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentID string) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect first; badger iterators don't tolerate deletes mid-walk
		var indexKeys [][]byte
		var chunkIDs []string

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
			var chunkID string
			if err := iter.Item().Value(func(val []byte) error {
				chunkID = string(val)
				return nil
			}); err != nil {
				iter.Close()
				return err
			}
			chunkIDs = append(chunkIDs, chunkID)
		}
		iter.Close()

		for i, chunkID := range chunkIDs {
			if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// UpdateChunkEmbeddings overwrites the embeddings of existing chunks.
// Returns storage.ErrNotFound if any chunk doesn't exist.
func (r *ChunkRepository) UpdateChunkEmbeddings(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.ID)
			existing, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}

			existing.Embedding = chunk.Embedding
			if err := tx.Set(key, storage.MarshalChunk(existing)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchChunks delegates to the backend's exhaustive similarity scan.
func (r *ChunkRepository) SearchChunks(ctx context.Context, query []float32, topK int, filter *storage.SearchFilter) ([]*core.ScoredChunk, error) {
	return r.backend.SearchChunks(ctx, query, topK, filter)
}

// readChunk reads a chunk record from the transaction.
// Returns nil without error when the key is absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
