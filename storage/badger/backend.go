package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "storage")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		db:     db,
		logger: logger,
	}
	b.ensureVectorIndex()
	return b, nil
}

// ensureVectorIndex probes the vector index metadata key. The similarity
// scan does not depend on it; a failed probe only degrades startup
// diagnostics, so failures are logged and swallowed.
func (b *Backend) ensureVectorIndex() {
	err := b.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte(vectorIndexMetaKey))
		if err == badger.ErrKeyNotFound {
			if err := tx.Set([]byte(vectorIndexMetaKey), []byte("cosine")); err != nil {
				return err
			}
			return tx.Commit()
		}
		return err
	}, true)
	if err != nil {
		b.logger.Warn("vector index probe failed, continuing without it", "error", err)
	}
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Ping verifies the database is open and readable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("database is closed")
	}
	return b.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte(vectorIndexMetaKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	}, false)
}

// SearchChunks scores every embedded chunk against the query vector.
// Implements the scan behind storage.ChunkRepository.SearchChunks.
func (b *Backend) SearchChunks(ctx context.Context, query []float32, topK int, filter *storage.SearchFilter) ([]*core.ScoredChunk, error) {
	var results []*core.ScoredChunk

	scan := func(tx *badger.Txn, chunk *core.Chunk) {
		// Chunks without embeddings never participate
		if len(chunk.Embedding) == 0 {
			return
		}
		if len(chunk.Embedding) != len(query) {
			b.logger.Warn("embedding dimension mismatch, scoring 0",
				"chunkID", chunk.ID,
				"queryDims", len(query),
				"chunkDims", len(chunk.Embedding))
		}
		results = append(results, &core.ScoredChunk{
			Chunk: chunk,
			Score: core.CosineSimilarity(query, chunk.Embedding),
		})
	}

	err := b.WithTx(func(tx *badger.Txn) error {
		if filter != nil && filter.DocumentID != "" {
			// Walk the per-document index instead of the full record space
			return b.scanDocumentChunks(tx, filter.DocumentID, func(chunk *core.Chunk) {
				scan(tx, chunk)
			})
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				scan(tx, chunk)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// scanDocumentChunks visits every chunk of one document via the chunk index,
// ordered by chunk index ascending.
func (b *Backend) scanDocumentChunks(tx *badger.Txn, documentID string, visit func(chunk *core.Chunk)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkDocumentPrefix(documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunkID string
		if err := iter.Item().Value(func(val []byte) error {
			chunkID = string(val)
			return nil
		}); err != nil {
			return err
		}

		chunk, err := readChunk(tx, makeChunkKey(chunkID))
		if err != nil {
			return err
		}
		if chunk != nil {
			visit(chunk)
		}
	}
	return nil
}

// Stats reports aggregate counts over the store.
// Implements storage.StatsProvider.
func (b *Backend) Stats(ctx context.Context) (*core.Stats, error) {
	stats := &core.Stats{}

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			stats.Documents++
		}
		iter.Close()

		chunkOpts := badger.DefaultIteratorOptions
		chunkOpts.Prefix = []byte(chunkRecordPrefix + ":")
		chunkIter := tx.NewIterator(chunkOpts)
		defer chunkIter.Close()
		for chunkIter.Rewind(); chunkIter.Valid(); chunkIter.Next() {
			var chunk *core.Chunk
			err := chunkIter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			stats.Chunks++
			if chunk != nil && len(chunk.Embedding) > 0 {
				stats.EmbeddedChunks++
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if stats.Documents > 0 {
		stats.AvgChunksPerDoc = float64(stats.Chunks) / float64(stats.Documents)
	}
	return stats, nil
}
